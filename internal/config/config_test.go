package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/some/path"},
		Server: ServerConfig{Host: DefaultServerHost, Port: "8787"},
		AI: AIConfig{
			DefaultBaseURL: DefaultOpenAIBaseURL,
			Model:          "gpt-4o-mini",
			Timeout:        30 * time.Second,
			RPS:            2,
			Burst:          4,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Environments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.Logger.Level = "verbose" }},
		{"empty data path", func(c *Config) { c.Data.BasePath = "" }},
		{"base url scheme", func(c *Config) { c.AI.DefaultBaseURL = "ftp://api.openai.com" }},
		{"base url garbage", func(c *Config) { c.AI.DefaultBaseURL = "not a url" }},
		{"zero timeout", func(c *Config) { c.AI.Timeout = 0 }},
		{"zero rps", func(c *Config) { c.AI.RPS = 0 }},
		{"relay url", func(c *Config) { c.Relay.URL = "relay" }},
		{"empty host", func(c *Config) { c.Server.Host = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("AI_MODEL=from-file\nSERVER_PORT=9000\n"), 0o600))

	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("AI_TIMEOUT", "45s")
	t.Setenv("PERMISSION_OPTIONAL_ORIGINS", "https://*.example.com/*, http://localhost/*")

	cfg, err := Load([]string{"-env-file", envFile, "-data-path", dir, "-log-level", "debug"})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, dir, cfg.Data.BasePath)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, []string{"https://*.example.com/*", "http://localhost/*"}, cfg.Permission.OptionalOrigins)
	assert.Equal(t, []string{"https://api.openai.com/*"}, cfg.Permission.RequiredOrigins)
	assert.Equal(t, DefaultOpenAIBaseURL, cfg.AI.DefaultBaseURL)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "127.0.0.1:9100", cfg.Server.Addr())

	// .env only fills variables that are not already set.
	assert.Equal(t, "from-file", cfg.AI.Model)
	_ = os.Unsetenv("AI_MODEL")
}

func TestLoad_ListensOnLoopbackByDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SERVER_HOST", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load([]string{"-env-file", filepath.Join(dir, "missing.env"), "-data-path", dir})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "127.0.0.1:8787", cfg.Server.Addr())
	assert.True(t, cfg.Server.Loopback())

	t.Setenv("SERVER_HOST", "0.0.0.0")
	cfg, err = Load([]string{"-env-file", filepath.Join(dir, "missing.env"), "-data-path", dir})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8787", cfg.Server.Addr())
	assert.False(t, cfg.Server.Loopback())
}

func TestServerConfig_Loopback(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"127.0.0.1", true},
		{"localhost", true},
		{"::1", true},
		{"0.0.0.0", false},
		{"192.168.1.10", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, ServerConfig{Host: tt.host}.Loopback())
		})
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load([]string{"-env-file", filepath.Join(t.TempDir(), "missing.env"), "-ai-timeout", "soon"})
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/polypost", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "polypost"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}

// Package config loads application configuration from command-line flags,
// environment variables and a .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultOpenAIBaseURL is the first-party chat-completion endpoint.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Data       DataConfig
	Server     ServerConfig
	AI         AIConfig
	Permission PermissionConfig
	Relay      RelayConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig locates on-disk state.
type DataConfig struct {
	// BasePath holds the badger directory, the sqlite file, the search index and the secret key.
	BasePath string
}

// DefaultServerHost keeps the API on the local machine.
const DefaultServerHost = "127.0.0.1"

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host               string
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// Loopback reports whether Host only accepts local connections.
func (s ServerConfig) Loopback() bool {
	if s.Host == "localhost" {
		return true
	}
	ip := net.ParseIP(s.Host)
	return ip != nil && ip.IsLoopback()
}

// AIConfig configures the transform client.
type AIConfig struct {
	DefaultBaseURL string
	Model          string
	Timeout        time.Duration
	// Outbound requests per second per origin.
	RPS   float64
	Burst int
}

// PermissionConfig holds the origin pattern lists of the permission gate.
type PermissionConfig struct {
	RequiredOrigins []string
	OptionalOrigins []string
	ConsentTimeout  time.Duration
}

// RelayConfig selects how custom-endpoint traffic is relayed.
// An empty URL relays in-process.
type RelayConfig struct {
	URL     string
	Timeout time.Duration
}

// LoadConfig loads configuration from os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load resolves configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("polypost", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for local data")
	host := fs.String("host", "", "Server listen host (default: 127.0.0.1)")
	port := fs.String("port", "", "Server port (default: 8787)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 0, streaming)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins")
	aiBaseURL := fs.String("ai-base-url", "", "Default chat-completion base URL")
	aiModel := fs.String("ai-model", "", "Chat-completion model")
	aiTimeout := fs.String("ai-timeout", "", "Transform call timeout (default: 30s)")
	requiredOrigins := fs.String("required-origins", "", "Comma-separated pre-authorized origin patterns")
	optionalOrigins := fs.String("optional-origins", "", "Comma-separated origin patterns allowed with consent")
	consentTimeout := fs.String("consent-timeout", "", "Interactive consent timeout (default: 60s)")
	relayURL := fs.String("relay-url", "", "Remote relay endpoint (default: in-process)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Existing environment variables take precedence over the file; a missing file is fine.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Host:               getConfigValue(*host, "SERVER_HOST", DefaultServerHost),
			Port:               getConfigValue(*port, "SERVER_PORT", "8787"),
			CORSAllowedOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ALLOWED_ORIGINS", "chrome-extension://*,moz-extension://*")),
		},
		AI: AIConfig{
			DefaultBaseURL: strings.TrimRight(getConfigValue(*aiBaseURL, "AI_DEFAULT_BASE_URL", DefaultOpenAIBaseURL), "/"),
			Model:          getConfigValue(*aiModel, "AI_MODEL", "gpt-4o-mini"),
			RPS:            getFloatConfigValue("", "AI_RPS", 2),
			Burst:          getIntConfigValue("", "AI_BURST", 4),
		},
		Permission: PermissionConfig{
			RequiredOrigins: splitList(getConfigValue(*requiredOrigins, "PERMISSION_REQUIRED_ORIGINS", "https://api.openai.com/*")),
			OptionalOrigins: splitList(getConfigValue(*optionalOrigins, "PERMISSION_OPTIONAL_ORIGINS", "<all_urls>")),
		},
		Relay: RelayConfig{
			URL: getConfigValue(*relayURL, "RELAY_URL", ""),
		},
	}

	durations := []struct {
		flagValue, envKey, def string
		dest                   *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "0s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{"", "SHUTDOWN_TIMEOUT", "30s", &cfg.Server.ShutdownTimeout},
		{*aiTimeout, "AI_TIMEOUT", "30s", &cfg.AI.Timeout},
		{*consentTimeout, "CONSENT_TIMEOUT", "60s", &cfg.Permission.ConsentTimeout},
		{"", "RELAY_TIMEOUT", "30s", &cfg.Relay.Timeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dest = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if strings.TrimSpace(c.Server.Host) == "" {
		return errors.New("server host cannot be empty")
	}

	u, err := url.Parse(c.AI.DefaultBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid AI default base URL: %q", c.AI.DefaultBaseURL)
	}

	if c.AI.Timeout <= 0 {
		return errors.New("AI timeout must be positive")
	}

	if c.AI.RPS <= 0 || c.AI.Burst <= 0 {
		return errors.New("AI rate limit must be positive")
	}

	if c.Relay.URL != "" {
		if u, err := url.Parse(c.Relay.URL); err != nil || u.Host == "" {
			return fmt.Errorf("invalid relay URL: %q", c.Relay.URL)
		}
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, ".polypost"))
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return v
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

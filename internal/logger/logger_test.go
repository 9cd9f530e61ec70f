package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_FormatFollowsEnvironment(t *testing.T) {
	tests := []struct {
		environment string
		wantJSON    bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Level: slog.LevelInfo, Environment: tt.environment, Writer: &buf})
			log.Info("variant selected")

			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"variant selected"`)
			} else {
				assert.Contains(t, buf.String(), "variant selected")
				assert.Contains(t, buf.String(), "INF")
			}
		})
	}
}

func TestNew_ExplicitFormatWins(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Environment: "development", Writer: &buf})
	log.Info("test")

	assert.Contains(t, buf.String(), `"msg":"test"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestConsoleHandler_Enabled(t *testing.T) {
	h := NewConsoleHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	assert.True(t, NewConsoleHandler(&bytes.Buffer{}, nil).Enabled(context.Background(), slog.LevelInfo))
}

func TestConsoleHandler_Line(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewConsoleHandler(&buf, nil))
	log.Info("batch finished", "post_id", "post-1", "completed", 2, "label", "Spanish (ES)")

	out := buf.String()
	assert.Contains(t, out, "batch finished")
	assert.Contains(t, out, "post_id=post-1")
	assert.Contains(t, out, "completed=2")
	assert.Contains(t, out, `label="Spanish (ES)"`)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestConsoleHandler_ComponentTag(t *testing.T) {
	var buf bytes.Buffer
	log := &Logger{Logger: slog.New(NewConsoleHandler(&buf, nil))}
	log.Component("orchestrator").Info("hello", "n", 1)

	out := buf.String()
	assert.Contains(t, out, "[orchestrator]")
	assert.NotContains(t, out, "component=")
	assert.Contains(t, out, "n=1")
}

func TestConsoleHandler_GroupsQualifyKeys(t *testing.T) {
	var buf bytes.Buffer
	h := NewConsoleHandler(&buf, nil)
	assert.Equal(t, h, h.WithGroup(""))

	log := slog.New(h.WithGroup("relay")).With("origin", "https://api.test")
	log.Info("forwarded", "status", 200)

	assert.Contains(t, buf.String(), "relay.origin=https://api.test")
	assert.Contains(t, buf.String(), "relay.status=200")
}

func TestConsoleHandler_WithAttrsDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(NewConsoleHandler(&buf, nil))
	a := base.With("surface", "popup")
	_ = base.With("surface", "sidepanel")

	a.Info("hello")
	assert.Contains(t, buf.String(), "surface=popup")
	assert.NotContains(t, buf.String(), "sidepanel")
}

func TestConsoleHandler_WithSource(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewConsoleHandler(&buf, &slog.HandlerOptions{AddSource: true}))
	log.Info("test message")

	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestFormatValue(t *testing.T) {
	now := time.Now()

	assert.Equal(t, "test", formatValue(slog.StringValue("test")))
	assert.Equal(t, `"two words"`, formatValue(slog.StringValue("two words")))
	assert.Equal(t, now.Format(time.RFC3339), formatValue(slog.TimeValue(now)))
	assert.Equal(t, "5s", formatValue(slog.DurationValue(5*time.Second)))
	assert.Equal(t, "42", formatValue(slog.IntValue(42)))
}

func TestLogger_WithErrorAndComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Writer: &buf})

	log.WithError(errors.New("relay unreachable")).Info("fallback")
	log.Component("gate").Info("checked")

	out := buf.String()
	assert.Contains(t, out, "relay unreachable")
	assert.Contains(t, out, `"component":"gate"`)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Info("dropped") })
}

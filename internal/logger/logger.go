// Package logger builds the server's slog loggers: JSON in production and a
// colored single-line console format everywhere else.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// ComponentKey is the attribute Component sets. The console format shows it
// as a tag in front of the message.
const ComponentKey = "component"

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiBlue  = "\033[34m"
	ansiCyan  = "\033[36m"
)

var levelStyles = map[slog.Level]struct{ tag, color string }{
	slog.LevelDebug: {"DBG", "\033[35m"},
	slog.LevelInfo:  {"INF", "\033[32m"},
	slog.LevelWarn:  {"WRN", "\033[33m"},
	slog.LevelError: {"ERR", "\033[31m"},
}

// Logger is the application logger.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration. An empty Format picks JSON for the
// production environment and the console format otherwise.
type Config struct {
	Writer      io.Writer
	Format      string
	Environment string
	Level       slog.Level
	AddSource   bool
}

// New creates a logger.
func New(cfg Config) *Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	format := cfg.Format
	if format == "" {
		format = FormatConsole
		if cfg.Environment == "production" {
			format = FormatJSON
		}
	}

	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	if format == FormatJSON {
		opts.ReplaceAttr = shortSource
		return &Logger{Logger: slog.New(slog.NewJSONHandler(w, opts))}
	}
	return &Logger{Logger: slog.New(NewConsoleHandler(w, opts))}
}

func shortSource(_ []string, a slog.Attr) slog.Attr {
	if src, ok := a.Value.Any().(*slog.Source); ok && a.Key == slog.SourceKey {
		src.File = filepath.Base(src.File)
	}
	return a
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a config string to a level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithError returns a logger that records err on every line.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.With(slog.String("error", err.Error()))}
}

// Component returns a logger tagged with the owning component name.
func (l *Logger) Component(name string) *slog.Logger {
	return l.With(slog.String(ComponentKey, name))
}

// ConsoleHandler writes lines like
//
//	15:04:05 INF [orchestrator] batch finished post_id=p1 completed=2
type ConsoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	opts      slog.HandlerOptions
	component string
	attrs     []slog.Attr
	group     string
}

// NewConsoleHandler creates a console handler. opts may be nil.
func NewConsoleHandler(w io.Writer, opts *slog.HandlerOptions) *ConsoleHandler {
	h := &ConsoleHandler{mu: &sync.Mutex{}, w: w}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

// Enabled implements slog.Handler.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}
	return level >= threshold
}

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	b.WriteString(ansiDim + r.Time.Format(time.TimeOnly) + ansiReset + " ")

	style, ok := levelStyles[r.Level]
	if !ok {
		style.tag, style.color = r.Level.String(), ansiDim
	}
	b.WriteString(style.color + style.tag + ansiReset + " ")

	if h.component != "" {
		b.WriteString(ansiBlue + "[" + h.component + "]" + ansiReset + " ")
	}

	if h.opts.AddSource && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		b.WriteString(ansiDim + filepath.Base(frame.File) + ":" + strconv.Itoa(frame.Line) + ansiReset + " ")
	}

	b.WriteString(ansiBold + r.Message + ansiReset)

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, slog.Attr{Key: h.group + a.Key, Value: a.Value})
		return true
	})
	if len(attrs) > 0 {
		b.WriteString(ansiCyan)
		for _, a := range attrs {
			b.WriteString(" " + a.Key + "=" + formatValue(a.Value))
		}
		b.WriteString(ansiReset)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// WithAttrs implements slog.Handler. An ungrouped component attribute
// becomes the line tag instead of a key=value pair.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if a.Key == ComponentKey && h.group == "" {
			next.component = a.Value.String()
			continue
		}
		next.attrs = append(next.attrs, slog.Attr{Key: h.group + a.Key, Value: a.Value})
	}
	return &next
}

// WithGroup implements slog.Handler by prefixing later keys with name.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = h.group + name + "."
	return &next
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindString:
		if s := v.String(); strings.ContainsAny(s, " \t\"=") {
			return strconv.Quote(s)
		}
		return v.String()
	default:
		return v.String()
	}
}

package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the application logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	// WithContext binds ctx to later records. A request ID carried by ctx
	// is added to each record as request_id.
	WithContext(ctx context.Context) Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is json or text; anything else means text.
	Format string
	// Output defaults to os.Stderr.
	Output    io.Writer
	AddSource bool
}

// DefaultConfig returns the CLI logger configuration.
func DefaultConfig() Config {
	return Config{Level: "warn", Format: "text", Output: os.Stderr}
}

// level is shared by every logger from New, so --verbose applies to
// components that captured the default logger earlier.
var level = new(slog.LevelVar)

// New builds a logger that redacts credentials and stamps request IDs.
func New(cfg Config) (Logger, error) {
	level.Set(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	var h slog.Handler = slog.NewTextHandler(out, opts)
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(out, opts)
	}
	return &slogLogger{logger: slog.New(requestIDHandler{h}), ctx: context.Background()}, nil
}

// Discard returns a logger that drops every record.
func Discard() Logger {
	return &slogLogger{logger: slog.New(slog.DiscardHandler), ctx: context.Background()}
}

// SetLevel changes the level of every logger built by New.
func SetLevel(name string) {
	level.Set(parseLevel(name))
}

// GetLevel returns the current level name: debug, info, warn or error.
func GetLevel() string {
	return strings.ToLower(level.Level().String())
}

// parseLevel maps a level name to slog; unknown names mean info.
func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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

// requestIDHandler adds the request ID from the record's context.
type requestIDHandler struct {
	slog.Handler
}

func (h requestIDHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h requestIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return requestIDHandler{h.Handler.WithAttrs(attrs)}
}

func (h requestIDHandler) WithGroup(name string) slog.Handler {
	return requestIDHandler{h.Handler.WithGroup(name)}
}

type slogLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

func (l *slogLogger) Debug(msg string, args ...any) { l.logger.Log(l.ctx, slog.LevelDebug, msg, args...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.logger.Log(l.ctx, slog.LevelInfo, msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.logger.Log(l.ctx, slog.LevelWarn, msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.logger.Log(l.ctx, slog.LevelError, msg, args...) }

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...), ctx: l.ctx}
}

func (l *slogLogger) WithContext(ctx context.Context) Logger {
	return &slogLogger{logger: l.logger, ctx: ctx}
}

type holder struct{ Logger }

var fallback atomic.Pointer[holder]

func init() {
	l, _ := New(DefaultConfig())
	fallback.Store(&holder{l})
}

// SetDefault replaces the process-wide logger. Nil is ignored.
func SetDefault(l Logger) {
	if l != nil {
		fallback.Store(&holder{l})
	}
}

// Default returns the process-wide logger.
func Default() Logger {
	return fallback.Load().Logger
}

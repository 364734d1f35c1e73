package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the logging interface used across the application.
type Logger interface {
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	Debug(msg string, fields ...Field)
	Printf(format string, args ...any)
	Println(args ...any)
	// WithFields returns a child logger that adds fields to every entry.
	WithFields(fields ...Field) Logger
}

// Field is a structured key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// String creates a string field.
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Int creates an int field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Uint64 creates a uint64 field.
func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }

// Float64 creates a float64 field.
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }

// Bool creates a bool field.
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Err creates an error field under the "error" key.
func Err(err error) Field { return Field{Key: "error", Value: err} }

// Options selects the level and encoding of a logger built with New.
type Options struct {
	// Level is a zerolog level name ("debug", "info", "warn", "error").
	Level string
	// Format is "console" or "json".
	Format string
	// Component is added to every entry when non-empty.
	Component string
	// NoColor disables colour in console output.
	NoColor bool
}

// ZerologAdapter implements Logger on top of zerolog.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter wraps an existing zerolog logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// NewDefaultLogger returns a logger writing to stderr with timestamps.
func NewDefaultLogger() *ZerologAdapter {
	return NewZerologAdapter(zerolog.New(os.Stderr).With().Timestamp().Logger())
}

// NewLogger returns a JSON logger writing to w, tagged with component.
func NewLogger(w io.Writer, component string) *ZerologAdapter {
	return NewZerologAdapter(zerolog.New(w).With().Timestamp().Str("component", component).Logger())
}

// New builds a logger from Options. An unknown level falls back to warn.
func New(w io.Writer, opts Options) *ZerologAdapter {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.WarnLevel
	}
	out := w
	if opts.Format == "console" {
		out = zerolog.ConsoleWriter{Out: w, NoColor: opts.NoColor, TimeFormat: "15:04:05"}
	}
	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if opts.Component != "" {
		ctx = ctx.Str("component", opts.Component)
	}
	return NewZerologAdapter(ctx.Logger())
}

// Nop returns a logger that discards everything.
func Nop() *ZerologAdapter {
	return NewZerologAdapter(zerolog.Nop())
}

// Info logs at info level.
func (z *ZerologAdapter) Info(msg string, fields ...Field) {
	applyFields(z.logger.Info(), fields).Msg(msg)
}

// Warn logs at warn level.
func (z *ZerologAdapter) Warn(msg string, fields ...Field) {
	applyFields(z.logger.Warn(), fields).Msg(msg)
}

// Error logs at error level with the error attached.
func (z *ZerologAdapter) Error(msg string, err error, fields ...Field) {
	applyFields(z.logger.Error().Err(err), fields).Msg(msg)
}

// Debug logs at debug level.
func (z *ZerologAdapter) Debug(msg string, fields ...Field) {
	applyFields(z.logger.Debug(), fields).Msg(msg)
}

// Printf logs a formatted message at info level.
func (z *ZerologAdapter) Printf(format string, args ...any) {
	z.logger.Info().Msgf(format, args...)
}

// Println logs the space-joined arguments at info level.
func (z *ZerologAdapter) Println(args ...any) {
	z.logger.Info().Msg(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

// WithFields returns a child logger carrying fields.
func (z *ZerologAdapter) WithFields(fields ...Field) Logger {
	ctx := z.logger.With()
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			ctx = ctx.Str(f.Key, v)
		case int:
			ctx = ctx.Int(f.Key, v)
		case error:
			ctx = ctx.AnErr(f.Key, v)
		default:
			ctx = ctx.Interface(f.Key, v)
		}
	}
	return &ZerologAdapter{logger: ctx.Logger()}
}

func applyFields(e *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			e = e.Str(f.Key, v)
		case int:
			e = e.Int(f.Key, v)
		case int64:
			e = e.Int64(f.Key, v)
		case uint64:
			e = e.Uint64(f.Key, v)
		case float64:
			e = e.Float64(f.Key, v)
		case bool:
			e = e.Bool(f.Key, v)
		case error:
			e = e.AnErr(f.Key, v)
		default:
			e = e.Interface(f.Key, v)
		}
	}
	return e
}

// StdLoggerAdapter implements Logger on top of the standard library logger,
// for embedding in programs that already configure log.Logger.
type StdLoggerAdapter struct {
	logger *log.Logger
	fields []Field
}

// NewStdLoggerAdapter wraps a *log.Logger.
func NewStdLoggerAdapter(logger *log.Logger) *StdLoggerAdapter {
	return &StdLoggerAdapter{logger: logger}
}

func (s *StdLoggerAdapter) emit(prefix, msg string, fields []Field) {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte(' ')
	b.WriteString(msg)
	for _, f := range append(s.fields[:len(s.fields):len(s.fields)], fields...) {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	s.logger.Println(b.String())
}

// Info logs with an [INFO] prefix.
func (s *StdLoggerAdapter) Info(msg string, fields ...Field) { s.emit("[INFO]", msg, fields) }

// Warn logs with a [WARN] prefix.
func (s *StdLoggerAdapter) Warn(msg string, fields ...Field) { s.emit("[WARN]", msg, fields) }

// Error logs with an [ERROR] prefix and the error as a field.
func (s *StdLoggerAdapter) Error(msg string, err error, fields ...Field) {
	s.emit("[ERROR]", msg, append([]Field{Err(err)}, fields...))
}

// Debug logs with a [DEBUG] prefix.
func (s *StdLoggerAdapter) Debug(msg string, fields ...Field) { s.emit("[DEBUG]", msg, fields) }

// Printf forwards to the underlying logger.
func (s *StdLoggerAdapter) Printf(format string, args ...any) { s.logger.Printf(format, args...) }

// Println forwards to the underlying logger.
func (s *StdLoggerAdapter) Println(args ...any) { s.logger.Println(args...) }

// WithFields returns a child logger carrying fields.
func (s *StdLoggerAdapter) WithFields(fields ...Field) Logger {
	merged := make([]Field, 0, len(s.fields)+len(fields))
	merged = append(merged, s.fields...)
	merged = append(merged, fields...)
	return &StdLoggerAdapter{logger: s.logger, fields: merged}
}

var (
	_ Logger = (*ZerologAdapter)(nil)
	_ Logger = (*StdLoggerAdapter)(nil)
)

package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel represents the logging verbosity level
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// DebugCategory represents specific debug categories for targeted debugging
// in the cloud-render send pipeline.
type DebugCategory string

const (
	DebugBWE     DebugCategory = "bwe"
	DebugEncode  DebugCategory = "encode"
	DebugSession DebugCategory = "session"
	DebugPacer   DebugCategory = "pacer"
	DebugAll     DebugCategory = "all"
)

// OutputFormat determines the log output format
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatText OutputFormat = "text"
)

// Config holds logger configuration
type Config struct {
	Level             LogLevel
	Format            OutputFormat
	OutputFile        string
	EnabledCategories map[DebugCategory]bool
	mu                sync.RWMutex
}

// NewConfig creates a new logger configuration with defaults
func NewConfig() *Config {
	return &Config{
		Level:             LevelInfo,
		Format:            FormatText,
		OutputFile:        "",
		EnabledCategories: make(map[DebugCategory]bool),
	}
}

// ParseLevel converts a string to LogLevel
func ParseLevel(level string) (LogLevel, error) {
	switch level {
	case "debug", "DEBUG":
		return LevelDebug, nil
	case "info", "INFO":
		return LevelInfo, nil
	case "warn", "WARN", "warning", "WARNING":
		return LevelWarn, nil
	case "error", "ERROR":
		return LevelError, nil
	default:
		return "", fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", level)
	}
}

// ParseFormat converts a string to OutputFormat
func ParseFormat(format string) (OutputFormat, error) {
	switch format {
	case "json", "JSON":
		return FormatJSON, nil
	case "text", "TEXT":
		return FormatText, nil
	default:
		return "", fmt.Errorf("invalid log format: %s (must be json or text)", format)
	}
}

// ToZerologLevel converts LogLevel to a zerolog.Level
func (l LogLevel) ToZerologLevel() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger wraps zerolog.Logger with category-based debug gating, in the same
// shape this pack's slog-backed Logger exposed.
type Logger struct {
	zl     zerolog.Logger
	config *Config
	file   *os.File
}

// Global logger instance
var (
	defaultLogger *Logger
	once          sync.Once
)

// New creates a new Logger instance with the given configuration
func New(cfg *Config) (*Logger, error) {
	var writer io.Writer = os.Stdout
	var file *os.File

	if cfg.OutputFile != "" {
		f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.OutputFile, err)
		}
		writer = f
		file = f
	}

	if cfg.Format == FormatText {
		writer = zerolog.ConsoleWriter{Out: writer, NoColor: cfg.OutputFile != ""}
	}

	zl := zerolog.New(writer).Level(cfg.Level.ToZerologLevel()).With().Timestamp().Logger()

	return &Logger{zl: zl, config: cfg, file: file}, nil
}

// EnableCategory enables a specific debug category
func (c *Config) EnableCategory(category DebugCategory) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if category == DebugAll {
		c.EnabledCategories[DebugBWE] = true
		c.EnabledCategories[DebugEncode] = true
		c.EnabledCategories[DebugSession] = true
		c.EnabledCategories[DebugPacer] = true
	} else {
		c.EnabledCategories[category] = true
	}
}

// IsCategoryEnabled checks if a debug category is enabled
func (c *Config) IsCategoryEnabled(category DebugCategory) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.EnabledCategories[category]
}

// IsDebugEnabled checks if any debug category is enabled
func (c *Config) IsDebugEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.EnabledCategories) > 0
}

// Close closes the log file if one was opened
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) event(ev *zerolog.Event, msg string, args ...any) {
	ev.Fields(argsToMap(args)).Msg(msg)
}

func (l *Logger) Debug(msg string, args ...any) { l.event(l.zl.Debug(), msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.event(l.zl.Info(), msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.event(l.zl.Warn(), msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.event(l.zl.Error(), msg, args...) }

// DebugBWE logs bandwidth-estimate details if the BWE category is enabled.
func (l *Logger) DebugBWE(msg string, args ...any) {
	if l.config.IsCategoryEnabled(DebugBWE) {
		l.Debug(msg, append([]any{"category", "bwe"}, args...)...)
	}
}

// DebugEncode logs encoder-stage details if the Encode category is enabled.
func (l *Logger) DebugEncode(msg string, args ...any) {
	if l.config.IsCategoryEnabled(DebugEncode) {
		l.Debug(msg, append([]any{"category", "encode"}, args...)...)
	}
}

// DebugSession logs session-state transition details if enabled.
func (l *Logger) DebugSession(msg string, args ...any) {
	if l.config.IsCategoryEnabled(DebugSession) {
		l.Debug(msg, append([]any{"category", "session"}, args...)...)
	}
}

// DebugPacer logs pacing/cadence details if enabled.
func (l *Logger) DebugPacer(msg string, args ...any) {
	if l.config.IsCategoryEnabled(DebugPacer) {
		l.Debug(msg, append([]any{"category", "pacer"}, args...)...)
	}
}

// With returns a new Logger with the given attributes attached to every
// subsequent entry.
func (l *Logger) With(args ...any) *Logger {
	ctx := l.zl.With()
	for k, v := range argsToMap(args) {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zl: ctx.Logger(), config: l.config, file: l.file}
}

// argsToMap converts slog-style alternating key/value pairs into a map for
// zerolog's Fields().
func argsToMap(args []any) map[string]any {
	m := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", args[i])
		}
		m[key] = args[i+1]
	}
	return m
}

// SetDefault sets the global default logger
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// Default returns the default logger, creating one if necessary
func Default() *Logger {
	once.Do(func() {
		cfg := NewConfig()
		logger, err := New(cfg)
		if err != nil {
			logger = &Logger{zl: zerolog.New(os.Stderr), config: cfg}
		}
		defaultLogger = logger
	})
	return defaultLogger
}

// Package-level convenience functions

func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }

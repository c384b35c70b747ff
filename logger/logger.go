// Package logger wraps zerolog with the field conventions the rest of
// whisperpool logs against (component, worker_id, port, state).
package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger wraps a configured zerolog.Logger.
type Logger struct {
	logger zerolog.Logger
	name   string
}

// Init sets the process-wide default logger from config. Call once at
// startup before any component calls Get.
func Init(cfg Config) {
	cfg.ApplyDefaults()
	globalLogger = New(&cfg, "whisperpool")
}

// New builds a logger for one named component.
func New(cfg *Config, name string) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var zl zerolog.Logger
	if strings.EqualFold(cfg.Format, "console") || strings.EqualFold(cfg.Format, "pretty") {
		zl = newConsoleLogger(cfg, name)
	} else {
		zl = zerolog.New(outputWriter(cfg.Output))
	}

	if cfg.Timestamp {
		zl = zl.With().Timestamp().Logger()
	}
	if cfg.Caller {
		zl = zl.With().Caller().Logger()
	}

	return &Logger{logger: zl.With().Str(FieldComponent, name).Logger(), name: name}
}

// NewDefault creates a console logger for name with default settings.
// Useful for tests that don't go through config.
func NewDefault(name string) *Logger {
	cfg := &Config{Level: "info", Format: "console", Output: "stdout", Timestamp: true}
	return New(cfg, name)
}

// Named returns a logger scoped to a sub-component, e.g. "pool.health".
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		logger: l.logger.With().Str(FieldComponent, l.name+"."+name).Logger(),
		name:   l.name + "." + name,
	}
}

// WithFields returns a logger with additional persistent fields attached.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	zc := l.logger.With()
	for k, v := range fields {
		zc = zc.Interface(k, v)
	}
	return &Logger{logger: zc.Logger(), name: l.name}
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	event := l.logger.Debug()
	addFields(event, fields...)
	event.Msg(msg)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	event := l.logger.Info()
	addFields(event, fields...)
	event.Msg(msg)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	event := l.logger.Warn()
	addFields(event, fields...)
	event.Msg(msg)
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	event := l.logger.Error()
	addFields(event, fields...)
	event.Msg(msg)
}

func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) {
	event := l.logger.Fatal()
	addFields(event, fields...)
	event.Msg(msg)
}

// --- global default logger, used by components that don't carry their own ---

var globalLogger *Logger

// Get returns a named logger derived from the global default, creating a
// bare console default if Init was never called (e.g. in tests).
func Get(name string) *Logger {
	if globalLogger == nil {
		globalLogger = NewDefault("whisperpool")
	}
	return globalLogger.Named(name)
}

// --- internal helpers ---

func addFields(event *zerolog.Event, fields ...map[string]interface{}) {
	for _, fm := range fields {
		for k, v := range fm {
			event.Interface(k, v)
		}
	}
}

func outputWriter(output string) *os.File {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

func newConsoleLogger(cfg *Config, name string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        outputWriter(cfg.Output),
		TimeFormat: "15:04:05",
		NoColor:    cfg.NoColor,
		FormatLevel: func(i interface{}) string {
			lvl := strings.ToUpper(fmt.Sprintf("%s", i))
			return fmt.Sprintf("[%s]", lvl)
		},
	}).With().Str("svc", name).Logger()
}

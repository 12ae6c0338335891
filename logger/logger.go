package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FormatPretty is accepted as an alias of the console format.
const FormatPretty = "pretty"

// Logger is a zerolog logger bound to a service name. Derived loggers share
// the output of their parent and only add fields.
type Logger struct {
	zl      zerolog.Logger
	service string
}

var global atomic.Pointer[Logger]

// Init installs the process-wide logger and level from cfg.
func Init(cfg Config) {
	cfg.ApplyDefaults()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "augkit"
	}
	l := New(&cfg, cfg.ServiceName)
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	if isConsole(cfg.Format) {
		log.Logger = l.zl
	}
	global.Store(l)
}

// New builds a logger for service. An unknown level falls back to info.
func New(cfg *Config, service string) *Logger {
	var zl zerolog.Logger
	if isConsole(cfg.Format) {
		zl = zerolog.New(consoleWriter(cfg, service)).With().Timestamp().Logger()
	} else {
		zl = zerolog.New(sink(cfg))
		if cfg.Timestamp {
			zl = zl.With().Timestamp().Logger()
		}
	}
	if cfg.Caller {
		zl = zl.With().Caller().Logger()
	}
	return &Logger{zl: zl.Level(parseLevel(cfg.Level)), service: service}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop(), service: "nop"}
}

type ctxKey int

const (
	keyPipeline ctxKey = iota
	keyEpoch
)

// ContextWithPipeline records the pipeline ID and epoch for WithContext.
func ContextWithPipeline(ctx context.Context, pipelineID string, epoch int) context.Context {
	return context.WithValue(context.WithValue(ctx, keyPipeline, pipelineID), keyEpoch, epoch)
}

// WithContext tags the logger with the pipeline ID and epoch found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context {
		if id, ok := ctx.Value(keyPipeline).(string); ok {
			c = c.Str(FieldPipelineID, id)
		}
		if epoch, ok := ctx.Value(keyEpoch).(int); ok {
			c = c.Int(FieldEpoch, epoch)
		}
		return c
	})
}

// WithComponent tags the logger with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Str(FieldComponent, name) })
}

// WithPipeline tags the logger with a pipeline ID.
func (l *Logger) WithPipeline(id string) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Str(FieldPipelineID, id) })
}

// WithFields attaches every entry of fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Fields(fields) })
}

// WithError attaches err under the error key.
func (l *Logger) WithError(err error) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Err(err) })
}

func (l *Logger) derive(fn func(zerolog.Context) zerolog.Context) *Logger {
	return &Logger{zl: fn(l.zl.With()).Logger(), service: l.service}
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Error(), msg, fields)
}

func emit(ev *zerolog.Event, msg string, fields []map[string]interface{}) {
	for _, f := range fields {
		ev = ev.Fields(f)
	}
	ev.Msg(msg)
}

// SetGlobalLogger replaces the process-wide logger.
func SetGlobalLogger(l *Logger) { global.Store(l) }

// GetGlobalLogger returns the process-wide logger. Before Init it is a
// console logger at info level.
func GetGlobalLogger() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	cfg := Config{Output: "stderr"}
	cfg.ApplyDefaults()
	global.CompareAndSwap(nil, New(&cfg, "augkit"))
	return global.Load()
}

func Debug(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Error(msg, fields...) }

// WithComponent tags the global logger with a component name.
func WithComponent(name string) *Logger {
	return GetGlobalLogger().WithComponent(name)
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func isConsole(format string) bool {
	switch strings.ToLower(format) {
	case "console", FormatPretty:
		return true
	}
	return false
}

func sink(cfg *Config) io.Writer {
	if cfg.Writer != nil {
		return cfg.Writer
	}
	if strings.EqualFold(cfg.Output, "stdout") {
		return os.Stdout
	}
	return os.Stderr
}

// consoleWriter renders "[SVC][LVL] message key:value". The service tag is
// the first three letters of the service name.
func consoleWriter(cfg *Config, service string) zerolog.ConsoleWriter {
	tag := ""
	if len(service) >= 3 {
		tag = "[" + strings.ToUpper(service[:3]) + "]"
		if !cfg.NoColor {
			tag = ansiBlue + tag + ansiReset
		}
	}
	return zerolog.ConsoleWriter{
		Out:        sink(cfg),
		TimeFormat: "15:04:05",
		NoColor:    cfg.NoColor,
		FormatLevel: func(i interface{}) string {
			return tag + levelTag(fmt.Sprint(i), cfg.NoColor)
		},
		FormatFieldName: func(i interface{}) string { return fmt.Sprint(i) + ":" },
		FormatFieldValue: func(i interface{}) string {
			if i == nil {
				return ""
			}
			return fmt.Sprint(i)
		},
	}
}

const (
	ansiBlue  = "\033[34m"
	ansiReset = "\033[0m"
)

var levelStyles = map[string]struct{ short, color string }{
	"debug": {"DBG", "\033[36m"},
	"info":  {"INF", "\033[32m"},
	"warn":  {"WRN", "\033[33m"},
	"error": {"ERR", "\033[31m"},
	"fatal": {"FTL", "\033[35m"},
}

func levelTag(level string, noColor bool) string {
	style, ok := levelStyles[strings.ToLower(level)]
	if !ok {
		return "[" + strings.ToUpper(level) + "]"
	}
	if noColor {
		return "[" + style.short + "]"
	}
	return style.color + "[" + style.short + "]" + ansiReset
}

package logging

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where log lines go. Console output goes to stderr so that
// fetched markup on stdout stays clean.
type Config struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig logs info and above to the console and to pagefetch.log.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Console:    true,
		File:       "pagefetch.log",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// ZapLogger implements Logger on top of a *zap.Logger.
type ZapLogger struct {
	z       *zap.Logger
	closers []func() error
}

// New builds a ZapLogger named after component. Every line carries a
// timestamp, the component name, the level and the message. The console sink
// uses the human-readable encoder, the file sink writes JSON and rotates via
// lumberjack.
func New(cfg Config, component string) (*ZapLogger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrapf(err, "logging: parse level %q", cfg.Level)
	}

	var cores []zapcore.Core
	var closers []func() error

	if cfg.Console {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			level,
		))
	}

	if cfg.File != "" {
		if dir := filepath.Dir(cfg.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, eris.Wrapf(err, "logging: create log dir %s", dir)
			}
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "time"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(rotator),
			level,
		))
		closers = append(closers, rotator.Close)
	}

	if len(cores) == 0 {
		return &ZapLogger{z: zap.NewNop()}, nil
	}

	z := zap.New(zapcore.NewTee(cores...))
	if component != "" {
		z = z.Named(component)
	}
	return &ZapLogger{z: z, closers: closers}, nil
}

// NewFromZap adapts an existing zap logger, e.g. one built on a zaptest
// observer core.
func NewFromZap(z *zap.Logger) *ZapLogger {
	if z == nil {
		z = zap.NewNop()
	}
	return &ZapLogger{z: z}
}

func (l *ZapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, toZap(fields)...) }
func (l *ZapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, toZap(fields)...) }
func (l *ZapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, toZap(fields)...) }
func (l *ZapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, toZap(fields)...) }

// With returns a child logger. A "component" field renames the child instead
// of being attached as a plain field.
func (l *ZapLogger) With(fields ...Field) Logger {
	z := l.z
	rest := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Key == "component" {
			if name, ok := f.Value.(string); ok && name != "" {
				z = z.Named(name)
				continue
			}
		}
		rest = append(rest, f)
	}
	if len(rest) > 0 {
		z = z.With(toZap(rest)...)
	}
	return &ZapLogger{z: z}
}

// Close flushes buffered entries and closes the rotating file.
func (l *ZapLogger) Close() error {
	// Sync on stderr returns EINVAL on some platforms; it is not worth failing over.
	_ = l.z.Sync()
	var firstErr error
	for _, c := range l.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = eris.Wrap(err, "logging: close sink")
		}
	}
	return firstErr
}

func toZap(fields []Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		switch v := f.Value.(type) {
		case error:
			out = append(out, zap.NamedError(f.Key, v))
		default:
			out = append(out, zap.Any(f.Key, v))
		}
	}
	return out
}

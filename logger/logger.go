package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"localchef/config"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// New builds the process logger. Output always goes to stdout; when a log
// file is configured it is also written to a rotating file.
func New(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 7,
			MaxAge:     7, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
	}
	log.SetOutput(out)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type ctxKey struct{}

// WithContext attaches a request scoped entry to ctx.
func WithContext(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, entry)
}

// FromContext returns the entry stored by WithContext, or one backed by the
// standard logger when there is none.
func FromContext(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

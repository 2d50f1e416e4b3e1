// Package logger builds the logrus logger shared by every gohire component.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	Level    string // debug, info, warn, error
	Format   string // "json" or "text"
	Instance string
}

// New creates a logger writing to stderr and tagged with the instance name.
func New(cfg Config) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		l.SetFormatter(&logrus.TextFormatter{TimestampFormat: time.RFC3339, FullTimestamp: true})
	}

	entry := logrus.NewEntry(l)
	if cfg.Instance != "" {
		entry = entry.WithField("instance", cfg.Instance)
	}
	return entry
}

// Discard returns a logger that drops everything. Used by tests and as a nil fallback.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return Discard()
	}
	return l
}

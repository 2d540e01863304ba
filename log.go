package scpi

import (
	"os"

	"github.com/sirupsen/logrus"
)

// SetLogger attaches a diagnostic sink to e. *logrus.Logger already exposes
// Debugf/Warnf, so it satisfies diagnosticLogger directly with no adapter.
// Passing nil detaches the sink; the zero value (no logger attached) is
// valid and silent.
func (e *Engine) SetLogger(l *logrus.Logger) {
	if l == nil {
		e.logger = nil
		return
	}
	e.logger = l
}

// NewLogger builds a *logrus.Logger from a LogConfig, following the same
// level/format/output wiring as liultimate-instrument-server's setupLogger:
// parse the level (falling back to Info on a bad string), choose between a
// JSON and a timestamped text formatter, and redirect output to a file if
// requested.
func NewLogger(cfg LogConfig) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	switch cfg.Output {
	case "stderr":
		log.SetOutput(os.Stderr)
	case "", "stdout":
		// stdout is logrus's own default.
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			log.SetOutput(file)
		} else {
			log.Warnf("scpi: could not open log output %q: %v, falling back to stdout", cfg.Output, err)
		}
	}

	return log
}

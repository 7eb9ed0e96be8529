package logger

import (
	"github.com/sirupsen/logrus"
)

type Logger struct {
	log *logrus.Logger
}

// New builds a logger for the given level. When env is production the
// output is JSON, matching what log aggregation expects.
func New(level, env string) *Logger {
	log := logrus.New()

	if env == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	return &Logger{
		log: log,
	}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.log.Infof(msg, args...)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log.Debugf(msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.log.Errorf(msg, args...)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.log.Fatalf(msg, args...)
}

// WithFields returns a logrus entry for structured context, used by the
// sync pipeline to tag lines with state and slug.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.log.WithFields(logrus.Fields(fields))
}

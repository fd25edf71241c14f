package utils

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// LogLevel gates which severities are emitted, matching the teacher's
// internal/utils.LogLevel shape (Nothing/Error/Info/Debug), backed here
// by a logrus.Logger instead of the teacher's bare log.Printf wrapper.
type LogLevel uint8

const (
	logEnv = "QRECOVERY_LOG_LEVEL"

	LogLevelNothing LogLevel = 0
	LogLevelError   LogLevel = 1
	LogLevelInfo    LogLevel = 2
	LogLevelDebug   LogLevel = 3
)

func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelInfo:
		return logrus.InfoLevel
	case LogLevelError:
		return logrus.ErrorLevel
	default:
		return logrus.PanicLevel // effectively silent: nothing logged is ever PanicLevel
	}
}

// Logger wraps a *logrus.Entry pre-populated with the fields a recovery
// event trace cares about (packet-number space, connection id).
// Distinct components hold distinct Loggers via WithSpace, mirroring the
// per-connection tracer field-tagging used throughout distribution's and
// grafana-k6's logrus call sites (logrus.WithField(...).Debugf(...)).
type Logger struct {
	entry *logrus.Entry
}

// NewLogger constructs a Logger at the given level. An empty connID is
// omitted from the base fields.
func NewLogger(level LogLevel, connID string) *Logger {
	l := logrus.New()
	l.SetLevel(level.logrusLevel())
	fields := logrus.Fields{}
	if connID != "" {
		fields["conn"] = connID
	}
	return &Logger{entry: l.WithFields(fields)}
}

// WithSpace returns a child Logger tagged with the given packet-number
// space, so every subsequent log line self-identifies which of the
// three parallel state machines it concerns.
func (l *Logger) WithSpace(space fmt.Stringer) *Logger {
	return &Logger{entry: l.entry.WithField("space", space.String())}
}

func (l *Logger) Debug() bool { return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// LevelFromEnv reads QRECOVERY_LOG_LEVEL the way the teacher's
// readLoggingEnv reads QUIC_GO_LOG_LEVEL, defaulting to LogLevelNothing.
func LevelFromEnv() LogLevel {
	env := os.Getenv(logEnv)
	if env == "" {
		return LogLevelNothing
	}
	n, err := strconv.Atoi(env)
	if err != nil {
		return LogLevelNothing
	}
	return LogLevel(n)
}

package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// levelTags maps log levels to the tag printed in the first column
var levelTags = map[logger.LogLevel]string{
	logger.CRITICAL: "PANIC",
	logger.ERROR:    "ERROR",
	logger.WARNING:  "WARN",
	logger.INFO:     "INFO",
	logger.DEBUG:    "DEBUG",
}

// fKVLogger is a named package logger. All loggers of one factory share the
// same *log.Logger, so lines of different packages never interleave.
type fKVLogger struct {
	name  string
	level atomic.Int32
	out   *log.Logger
}

func (l *fKVLogger) SetLevel(level logger.LogLevel) {
	l.level.Store(int32(level))
}

func (l *fKVLogger) Debugf(format string, args ...interface{}) {
	l.logf(logger.DEBUG, format, args...)
}

func (l *fKVLogger) Infof(format string, args ...interface{}) {
	l.logf(logger.INFO, format, args...)
}

func (l *fKVLogger) Warningf(format string, args ...interface{}) {
	l.logf(logger.WARNING, format, args...)
}

func (l *fKVLogger) Errorf(format string, args ...interface{}) {
	l.logf(logger.ERROR, format, args...)
}

// Panicf writes the message regardless of the level and panics with it
func (l *fKVLogger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.write(logger.CRITICAL, msg)
	panic(msg)
}

func (l *fKVLogger) logf(level logger.LogLevel, format string, args ...interface{}) {
	if level > logger.LogLevel(l.level.Load()) {
		return
	}
	l.write(level, fmt.Sprintf(format, args...))
}

func (l *fKVLogger) write(level logger.LogLevel, msg string) {
	l.out.Printf("%-5s | %-8s | %s", levelTags[level], l.name, msg)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// NewLoggerFactory returns a dragonboat logger.Factory whose loggers write
// to w. New loggers start at level INFO.
func NewLoggerFactory(w io.Writer) logger.Factory {
	out := log.New(w, "", log.Ldate|log.Ltime)
	return func(pkgName string) logger.ILogger {
		l := &fKVLogger{name: pkgName, out: out}
		l.level.Store(int32(logger.INFO))
		return l
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

var installFactory sync.Once

// Loggers lists the names of the package loggers of fKV
var Loggers = []string{"kvs", "pool", "cache", "metrics", "cli"}

// InitLoggers installs the custom format for all loggers and sets their level.
// Loggers that were already handed out by logger.GetLogger are updated too.
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	// dragonboat panics when the factory is set twice
	installFactory.Do(func() {
		logger.SetLoggerFactory(NewLoggerFactory(os.Stderr))
	})
	for _, name := range Loggers {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}

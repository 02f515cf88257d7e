package main

import (
	"io"
	"log"
	"os"
	"strings"
)

// LogLevel orders log output by severity.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

func (l LogLevel) String() string {
	if l < LogLevelDebug || l > LogLevelError {
		return "unknown"
	}
	return levelNames[l]
}

func (l LogLevel) tag() string {
	return "[" + strings.ToUpper(l.String()) + "] "
}

// parseLogLevel maps a case-insensitive level name to a LogLevel. Unknown
// names fall back to info.
func parseLogLevel(level string) LogLevel {
	switch name := strings.ToLower(strings.TrimSpace(level)); name {
	case "warning":
		return LogLevelWarn
	default:
		for i, n := range levelNames {
			if n == name {
				return LogLevel(i)
			}
		}
		return LogLevelInfo
	}
}

// Logger writes leveled lines through a standard library logger. It
// satisfies scan.Logger, so the scan manager, dispatcher and scanner log
// through it directly.
type Logger struct {
	level LogLevel
	out   *log.Logger
}

func NewLogger(level string) *Logger {
	return newLoggerTo(os.Stderr, level)
}

func newLoggerTo(w io.Writer, level string) *Logger {
	return &Logger{
		level: parseLogLevel(level),
		out:   log.New(w, "starseed ", log.LstdFlags|log.Lmsgprefix),
	}
}

func (l *Logger) shouldLog(level LogLevel) bool {
	return level >= l.level
}

func (l *Logger) logf(level LogLevel, format string, v ...any) {
	if l.shouldLog(level) {
		l.out.Printf(level.tag()+format, v...)
	}
}

func (l *Logger) Debugf(format string, v ...any) { l.logf(LogLevelDebug, format, v...) }
func (l *Logger) Infof(format string, v ...any)  { l.logf(LogLevelInfo, format, v...) }
func (l *Logger) Warnf(format string, v ...any)  { l.logf(LogLevelWarn, format, v...) }
func (l *Logger) Errorf(format string, v ...any) { l.logf(LogLevelError, format, v...) }

// Fatalf logs regardless of level and exits.
func (l *Logger) Fatalf(format string, v ...any) {
	l.out.Fatalf("[FATAL] "+format, v...)
}

// Package logging provides log level constants and a minimal leveled
// logger used by long-running components such as stage execution.
package logging

import (
	"log"
	"os"
)

const (
	// TraceLevel indicates a log message's level of criticality
	TraceLevel = iota
	// DebugLevel indicates a log message's level of criticality
	DebugLevel
	// InfoLevel indicates a log message's level of criticality
	InfoLevel
	// WarnLevel indicates a log message's level of criticality
	WarnLevel
	// ErrorLevel indicates a log message's level of criticality
	ErrorLevel
	// FatalLevel indicates a log message's level of criticality
	FatalLevel
)

// LogLevelToString translates a log level enum to a string representation
func LogLevelToString(level int) string {
	switch level {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "TRACE"
	}
}

// A Logger writes leveled log messages, discarding those below its
// threshold level
type Logger struct {
	level  int
	logger *log.Logger
}

// CreateLogger is a factory for Loggers writing to standard error
func CreateLogger(level int) *Logger {
	return &Logger{level: level, logger: log.New(os.Stderr, "", log.LstdFlags)}
}

// Logf writes a message at the given level
func (l *Logger) Logf(level int, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	l.logger.Printf("["+LogLevelToString(level)+"] "+format, args...)
}

// Debugf writes a message at DebugLevel
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.Logf(DebugLevel, format, args...)
}

// Infof writes a message at InfoLevel
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Logf(InfoLevel, format, args...)
}

// Warnf writes a message at WarnLevel
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Logf(WarnLevel, format, args...)
}

// Errorf writes a message at ErrorLevel
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Logf(ErrorLevel, format, args...)
}

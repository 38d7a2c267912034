// Package logger defines the logging abstraction used across go-director, so applications can plug
// their own logging framework into the client.
//
// The Logger interface exposes leveled methods (Debug, Info, Warn, Error, Fatal) that take a message
// followed by alternating key/value pairs.
//
// Log Levels:
//
//   - DebugLevel: wire-level detail such as raw replies, normally disabled.
//   - InfoLevel:  connection lifecycle events.
//   - WarnLevel:  rejected commands and recoverable anomalies.
//   - ErrorLevel: transport failures and protocol violations.
//   - FatalLevel: unrecoverable errors, the process exits after logging.
package logger

// LogLevel indicates the logging severity level.
type LogLevel = int8

const (
	// DebugLevel logs are voluminous and usually disabled in production.
	DebugLevel LogLevel = iota - 1
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual human review.
	WarnLevel
	// ErrorLevel logs are high-priority.
	ErrorLevel
	// FatalLevel logs a message, then calls os.Exit(1).
	FatalLevel
)

// Logger defines a common interface for logging.
type Logger interface {
	// Debug logs a message at DebugLevel.
	Debug(msg string, keysAndValues ...any)
	// Info logs a message at InfoLevel.
	Info(msg string, keysAndValues ...any)
	// Warn logs a message at WarnLevel.
	Warn(msg string, keysAndValues ...any)
	// Error logs a message at ErrorLevel.
	Error(msg string, keysAndValues ...any)
	// Fatal logs a message at FatalLevel, then calls os.Exit(1).
	Fatal(msg string, keysAndValues ...any)
	// With creates a child logger carrying the given key/value pairs.
	// Key-values added to the child don't affect the parent, and vice versa.
	With(keyValues ...any) Logger
	// Level returns the minimum enabled level for this logger.
	Level() LogLevel
	// SetLevel sets the minimum enabled level for this logger.
	SetLevel(level LogLevel)
}

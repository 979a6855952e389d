package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log message
type LogLevel int

// Log level constants define the severity hierarchy for filtering log output
const (
	DEBUG LogLevel = iota // DEBUG is the lowest severity level for detailed diagnostics
	INFO                  // INFO is for general informational messages
	WARN                  // WARN is for warning messages that don't prevent operation
	ERROR                 // ERROR is the highest severity for error conditions
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel converts a string to a LogLevel
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger provides structured logging with configurable levels
type Logger struct {
	mu     sync.Mutex
	level  LogLevel
	logger *log.Logger
	prefix string
}

// New creates a new Logger with the specified level
func New(level LogLevel, prefix string) *Logger {
	return &Logger{
		level:  level,
		logger: log.New(os.Stderr, "", log.LstdFlags),
		prefix: prefix,
	}
}

// NewWithWriter creates a new Logger with custom output writer
func NewWithWriter(level LogLevel, prefix string, w io.Writer) *Logger {
	return &Logger{
		level:  level,
		logger: log.New(w, "", log.LstdFlags),
		prefix: prefix,
	}
}

// SetLevel changes the log level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// shouldLog checks if a message at the given level should be logged
func (l *Logger) shouldLog(level LogLevel) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

// log writes a log message with the given level and fields
func (l *Logger) log(level LogLevel, msg string, fields map[string]interface{}) {
	if !l.shouldLog(level) {
		return
	}

	var sb strings.Builder

	if l.prefix != "" {
		sb.WriteString(l.prefix)
		sb.WriteString(" ")
	}

	sb.WriteString(level.String())
	sb.WriteString(": ")
	sb.WriteString(msg)

	if len(fields) > 0 {
		sb.WriteString(" |")
		for k, v := range fields {
			sb.WriteString(fmt.Sprintf(" %s=%v", k, v))
		}
	}

	l.logger.Println(sb.String())
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.log(DEBUG, msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.log(INFO, msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.log(WARN, msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.log(ERROR, msg, fields)
}

// Event identifies a type of pipeline event
type Event string

// Event constants identify resolution and proxy lifecycle events
const (
	EventChannelResolved      Event = "channel_resolved"       // EventChannelResolved indicates a channel URL was resolved
	EventChannelFailed        Event = "channel_failed"         // EventChannelFailed indicates a channel resolution failed
	EventChannelSkipped       Event = "channel_skipped"        // EventChannelSkipped indicates a failed channel was skipped
	EventCircuitBreakerChange Event = "circuit_breaker_change" // EventCircuitBreakerChange indicates a breaker state transition
)

// LogChannelResolved logs a successful channel resolution (DEBUG level)
func (l *Logger) LogChannelResolved(provider, name string, elapsed time.Duration) {
	l.Debug("Channel resolved", map[string]interface{}{
		"event":    EventChannelResolved,
		"provider": provider,
		"channel":  name,
		"elapsed":  elapsed.String(),
	})
}

// LogChannelFailed logs a failed channel resolution (WARN level)
func (l *Logger) LogChannelFailed(provider, name string, err error) {
	l.Warn("Channel resolution failed", map[string]interface{}{
		"event":    EventChannelFailed,
		"provider": provider,
		"channel":  name,
		"reason":   err.Error(),
	})
}

// LogChannelSkipped logs a channel omitted from the playlist (WARN level)
func (l *Logger) LogChannelSkipped(provider, name string) {
	l.Warn("Channel skipped", map[string]interface{}{
		"event":    EventChannelSkipped,
		"provider": provider,
		"channel":  name,
	})
}

// LogCircuitBreakerChange logs a circuit breaker state change (WARN level)
func (l *Logger) LogCircuitBreakerChange(oldState, newState string, provider string) {
	fields := map[string]interface{}{
		"event":    EventCircuitBreakerChange,
		"oldState": oldState,
		"newState": newState,
	}
	if provider != "" {
		fields["provider"] = provider
	}
	l.Warn("Circuit breaker state changed", fields)
}

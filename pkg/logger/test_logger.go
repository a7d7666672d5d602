package logger

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger captures log messages for assertions in tests.
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage

	fields map[string]interface{}
	err    error
	nop    *zerolog.Logger
	parent *TestLogger
}

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	nopLogger := zerolog.Nop()
	return &TestLogger{
		messages: make([]LogMessage, 0),
		nop:      &nopLogger,
	}
}

func (l *TestLogger) root() *TestLogger {
	if l.parent != nil {
		return l.parent
	}
	return l
}

func (l *TestLogger) log(level, msg string, fields map[string]interface{}) {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()

	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	r.messages = append(r.messages, LogMessage{
		Level:   level,
		Message: msg,
		Fields:  merged,
		Error:   l.err,
	})
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, nil) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields)
}

func (l *TestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.log("FATAL", msg, fields)
}

func (l *TestLogger) derive() *TestLogger {
	child := &TestLogger{
		parent: l.root(),
		nop:    l.nop,
		err:    l.err,
		fields: make(map[string]interface{}, len(l.fields)),
	}
	for k, v := range l.fields {
		child.fields[k] = v
	}
	return child
}

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	child := l.derive()
	child.fields[key] = value
	return child
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	child := l.derive()
	for k, v := range fields {
		child.fields[k] = v
	}
	return child
}

func (l *TestLogger) WithError(err error) Logger {
	child := l.derive()
	child.err = err
	return child
}

func (l *TestLogger) WithContext(ctx context.Context) Logger { return l }

func (l *TestLogger) GetZerolog() *zerolog.Logger { return l.nop }

// GetMessages returns all captured log messages
func (l *TestLogger) GetMessages() []LogMessage {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()

	messages := make([]LogMessage, len(r.messages))
	copy(messages, r.messages)
	return messages
}

// GetMessagesByLevel returns all messages of a specific level
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	var filtered []LogMessage
	for _, msg := range l.GetMessages() {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage checks if a message with the given text was logged
func (l *TestLogger) HasMessage(text string) bool {
	for _, msg := range l.GetMessages() {
		if msg.Message == text {
			return true
		}
	}
	return false
}

// Clear clears all captured messages
func (l *TestLogger) Clear() {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = r.messages[:0]
}

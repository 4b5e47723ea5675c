package log

// NoopLogger discards all log messages. Useful in tests and as a default
// when no logger is configured.
type NoopLogger struct{}

// NewNoopLogger creates a logger that discards everything.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (NoopLogger) Debug(msg string, fields ...Field) {}
func (NoopLogger) Info(msg string, fields ...Field)  {}
func (NoopLogger) Warn(msg string, fields ...Field)  {}
func (NoopLogger) Error(msg string, fields ...Field) {}

package core

// Logger logs leveled messages to an underlying sink. Arbitrary args may be
// attached for context (an error, a map, the acting user...); implementations
// decide how to render them.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

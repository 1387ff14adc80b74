package core

// Logger is any service that can log messages at several levels.
// Extra args may carry an error, a user.User (to tag the event with the
// acting identity) or any other context value.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

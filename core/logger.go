package core

// Actor identifies who a request is made for. Loggers attach it to reported events.
type Actor struct {
	UserID     string
	OrgOwnerID string
}

// Logger is any service that can log messages.
// args may hold errors, extra fields (map[string]interface{}) and at most one Actor.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

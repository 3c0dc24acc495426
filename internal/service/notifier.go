package service

// Notifier receives best-effort broadcasts after a state change commits.
// Implementations must never block the caller for long and must never
// surface delivery failures back into the operation.
type Notifier interface {
	Notify(event, sessionID string, payload any, excludeUserID string)
}

// NopNotifier discards all events. Used in tests and CLI commands.
type NopNotifier struct{}

func (NopNotifier) Notify(event, sessionID string, payload any, excludeUserID string) {}

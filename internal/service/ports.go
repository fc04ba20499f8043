package service

// Notifier delivers user-facing notifications. Implementations are
// best-effort and asynchronous: failures are logged by the implementation,
// never surfaced to the workflow that triggered them.
type Notifier interface {
	NotifyUser(email, phone, subject, body string)
}

// TokenRenderer turns a session token into a durable retrievable reference,
// typically a QR image URL. The core stores the reference, never the bytes.
type TokenRenderer interface {
	Render(sessionID int, token string) (string, error)
}

// noopNotifier is used when no notification channels are configured.
type noopNotifier struct{}

func (noopNotifier) NotifyUser(email, phone, subject, body string) {}

// NoopNotifier returns a Notifier that drops everything.
func NoopNotifier() Notifier { return noopNotifier{} }

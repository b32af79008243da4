package mail

import "log/slog"

type Message struct {
	To      []string
	Subject string
	Body    string
}

type MailSender interface {
	Send(message *Message) error
}

// NullSender is used when no mail backend is configured; sends are logged
// and dropped.
type NullSender struct{}

func (NullSender) Send(message *Message) error {
	slog.Warn("Mail backend not configured, dropping message", "to", message.To, "subject", message.Subject)
	return nil
}

// Package email renders and delivers transactional mail.
package email

import "context"

// Email is one outgoing message.
type Email struct {
	To       []string
	From     string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers a message and returns the provider's message id.
type Sender interface {
	Name() string
	Send(ctx context.Context, email *Email) (string, error)
}

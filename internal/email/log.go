package email

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// LogSender writes messages to the log instead of delivering them.
// Used in development and when no provider key is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(ctx context.Context, email *Email) (string, error) {
	id := "log-" + uuid.NewString()
	s.logger.InfoContext(ctx, "email not delivered (log sender)",
		slog.String("message_id", id),
		slog.String("to", strings.Join(email.To, ",")),
		slog.String("subject", email.Subject),
		slog.Int("html_bytes", len(email.HTMLBody)),
	)
	return id, nil
}

package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/trinhly333/worksheet/pkg/httpclient"
)

const resendService = "resend"

// ResendSender delivers mail through the Resend HTTP API. Each message is
// posted once; failures go back to the caller.
type ResendSender struct {
	client  *httpclient.CircuitBreakerClient
	apiKey  string
	baseURL string
	logger  *slog.Logger
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// NewResendSender builds a sender for baseURL (normally https://api.resend.com).
func NewResendSender(apiKey, baseURL string, logger *slog.Logger) *ResendSender {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0

	return &ResendSender{
		client: httpclient.NewCircuitBreakerClient(
			httpclient.New(cfg),
			httpclient.DefaultCircuitBreakerConfig(resendService),
			logger,
		),
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

func (s *ResendSender) Name() string { return resendService }

// Healthy reports whether the breaker in front of Resend is closed.
func (s *ResendSender) Healthy(ctx context.Context) error {
	return s.client.Healthy(ctx)
}

func (s *ResendSender) Send(ctx context.Context, email *Email) (string, error) {
	payload, err := json.Marshal(resendRequest{
		From:    email.From,
		To:      email.To,
		Subject: email.Subject,
		HTML:    email.HTMLBody,
		Text:    email.TextBody,
	})
	if err != nil {
		return "", fmt.Errorf("marshal resend payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("send via resend: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", httpclient.ParseResponseError(resp, resendService)
	}
	defer resp.Body.Close()

	var out resendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode resend response: %w", err)
	}

	s.logger.InfoContext(ctx, "email sent",
		slog.String("provider", resendService),
		slog.String("message_id", out.ID),
		slog.String("subject", email.Subject),
	)
	return out.ID, nil
}

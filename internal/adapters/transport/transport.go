// Package transport provides the outbound delivery adapters used by
// cmd/tendril. Library consumers usually bring their own ports.Transport
// bound to a channel provider SDK.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tendrilhq/tendril/internal/logging"
	"github.com/tendrilhq/tendril/pkg/domain"
	"github.com/tendrilhq/tendril/pkg/ports"
)

// Log writes outbound payloads to the logger. Development only.
type Log struct {
	logger *slog.Logger
}

var _ ports.Transport = (*Log)(nil)

// NewLog creates a logging transport.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Log{logger: logger}
}

func (l *Log) Send(ctx context.Context, userID, contact string, payload domain.Payload) error {
	l.logger.Info("outbound message",
		"user", userID, "contact", contact,
		"text", payload.Text, "options", len(payload.Options))
	return nil
}

// Webhook POSTs outbound payloads as JSON to a channel gateway.
type Webhook struct {
	client *resty.Client
	url    string
}

var _ ports.Transport = (*Webhook)(nil)

// NewWebhook creates a webhook transport targeting url.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		client: resty.New().SetTimeout(15 * time.Second),
		url:    url,
	}
}

type outboundMessage struct {
	UserID  string                `json:"user_id"`
	Contact string                `json:"contact"`
	Text    string                `json:"text,omitempty"`
	Options []domain.ButtonOption `json:"options,omitempty"`
}

func (w *Webhook) Send(ctx context.Context, userID, contact string, payload domain.Payload) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(outboundMessage{
			UserID:  userID,
			Contact: contact,
			Text:    payload.Text,
			Options: payload.Options,
		}).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("outbound webhook failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("outbound webhook returned status %d", resp.StatusCode())
	}
	return nil
}

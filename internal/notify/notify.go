// Package notify delivers best-effort chat notifications for newly
// posted messages. Delivery is decoupled from the request path: the
// caller fires a notification after a successful write and failures
// are logged, never propagated.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chatrelay/apiserver/config"
)

// Notification is the payload relayed to the owner's linked chat.
type Notification struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	FirstName string `json:"first_name"`
}

// Notifier defines the backend-agnostic delivery operation.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
	Close() error
}

// FromConfig constructs the configured notifier backend.
func FromConfig(ctx context.Context, cfg config.Config) (Notifier, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Notifier.Backend)) {
	case "", "none":
		return Noop{}, nil
	case "telegram":
		return NewTelegramNotifier(cfg.Telegram)
	case "rabbitmq":
		return NewRabbitMQNotifier(cfg.RabbitMQ)
	case "pubsub":
		return NewPubSubNotifier(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown notifier backend %q", cfg.Notifier.Backend)
	}
}

// Noop drops every notification. Used when no backend is configured.
type Noop struct{}

func (Noop) Send(context.Context, Notification) error { return nil }
func (Noop) Close() error                             { return nil }

var errMissingChatID = errors.New("notification chat id is required")

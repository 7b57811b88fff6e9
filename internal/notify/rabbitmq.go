package notify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/chatrelay/apiserver/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQNotifier publishes notifications to a RabbitMQ queue for an
// out-of-process delivery worker.
type RabbitMQNotifier struct {
	conn            *amqp.Connection
	channel         *amqp.Channel
	queue           string
	queueDurable    bool
	queueAutoDelete bool
}

// NewRabbitMQNotifier constructs a RabbitMQ notifier from config.
func NewRabbitMQNotifier(cfg config.RabbitMQConfig) (*RabbitMQNotifier, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if strings.TrimSpace(cfg.Queue) == "" {
		return nil, errors.New("rabbitmq queue is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}

	return &RabbitMQNotifier{
		conn:            conn,
		channel:         ch,
		queue:           cfg.Queue,
		queueDurable:    cfg.QueueDurable,
		queueAutoDelete: cfg.QueueAutoDelete,
	}, nil
}

// Send publishes the notification to the configured queue.
func (r *RabbitMQNotifier) Send(ctx context.Context, n Notification) error {
	if n.ChatID == 0 {
		return errMissingChatID
	}

	if _, err := r.channel.QueueDeclare(
		r.queue,
		r.queueDurable,
		r.queueAutoDelete,
		false,
		false,
		nil,
	); err != nil {
		return err
	}

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	return r.channel.PublishWithContext(ctx, "", r.queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   newMessageID(),
		Body:        body,
	})
}

// Close closes the underlying channel and connection.
func (r *RabbitMQNotifier) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func newMessageID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(buf[:])
}

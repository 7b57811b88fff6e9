package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"cloud.google.com/go/pubsub"
	"github.com/chatrelay/apiserver/config"
	"google.golang.org/api/option"
)

// PubSubNotifier publishes notifications to a Google Cloud Pub/Sub
// topic for an out-of-process delivery worker.
type PubSubNotifier struct {
	client *pubsub.Client
	topic  string
}

// NewPubSubNotifier constructs a Pub/Sub notifier from config.
func NewPubSubNotifier(ctx context.Context, cfg config.PubSubConfig) (*PubSubNotifier, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("pubsub topic is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	return &PubSubNotifier{
		client: client,
		topic:  cfg.Topic,
	}, nil
}

// Send publishes the notification to the configured topic.
func (p *PubSubNotifier) Send(ctx context.Context, n Notification) error {
	if n.ChatID == 0 {
		return errMissingChatID
	}

	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	result := topic.Publish(ctx, &pubsub.Message{Data: body})
	_, err = result.Get(ctx)
	return err
}

// Close closes the underlying Pub/Sub client.
func (p *PubSubNotifier) Close() error {
	return p.client.Close()
}

func (p *PubSubNotifier) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	topic := p.client.Topic(p.topic)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return p.client.CreateTopic(ctx, p.topic)
	}
	return topic, nil
}

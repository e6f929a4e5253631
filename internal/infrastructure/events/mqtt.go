package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"account-service/internal/domain/notification"
)

type jsonPublisher interface {
	PublishJSON(topic string, v interface{}) error
}

type eventPayload struct {
	Type       string            `json:"type"`
	UserID     string            `json:"user_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// MQTTPublisher publishes account events to <prefix>/<event type>.
type MQTTPublisher struct {
	client jsonPublisher
	prefix string
}

func NewMQTTPublisher(client jsonPublisher, prefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: strings.TrimRight(prefix, "/")}
}

func (p *MQTTPublisher) Topic(eventType notification.EventType) string {
	return p.prefix + "/" + strings.ReplaceAll(string(eventType), ".", "/")
}

func (p *MQTTPublisher) Publish(ctx context.Context, event notification.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload := eventPayload{
		Type:       string(event.Type),
		UserID:     event.UserID.String(),
		OccurredAt: event.OccurredAt.UTC(),
		Metadata:   event.Metadata,
	}
	if err := p.client.PublishJSON(p.Topic(event.Type), payload); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

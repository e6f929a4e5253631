package notification

//go:generate mockgen -source=notification.go -destination=mock/mock_notification.go -package=mock

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Message is a plain-text email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type EventType string

const (
	EventUserRegistered  EventType = "user.registered"
	EventUserLoggedIn    EventType = "user.logged_in"
	EventSessionRevoked  EventType = "session.revoked"
	EventSessionsRevoked EventType = "session.revoked_all"
	EventPasswordChanged EventType = "password.changed"
	EventPasswordReset   EventType = "password.reset"
	EventResetRequested  EventType = "password.reset_requested"
)

// Event is an account-security event published for downstream consumers.
type Event struct {
	Type       EventType         `json:"type"`
	UserID     uuid.UUID         `json:"user_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// EventPublisher fans account events out to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Package events publishes account lifecycle notifications for downstream
// consumers. Publishing is best effort: the account store never fails an
// operation because an event could not be delivered.
package events

import (
	"context"
	"time"
)

// Event types
const (
	AccountRegistered = "account.registered"
	AccountDeleted    = "account.deleted"
)

// DefaultStream is the redis stream used when none is configured.
const DefaultStream = "account.events"

// Event is the envelope written to the stream.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type AccountRegisteredEvent struct {
	AccountID int    `json:"accountId"`
	Username  string `json:"username"`
}

type AccountDeletedEvent struct {
	AccountID int `json:"accountId"`
}

// Publisher delivers an event of the given type.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// Nop discards every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

package service

import (
	"context"
	"time"
)

// EventType names a lifecycle change
type EventType string

const (
	EventCrudCreated  EventType = "crud.created"
	EventCrudUpdated  EventType = "crud.updated"
	EventCrudReplaced EventType = "crud.replaced"
	EventCrudDeleted  EventType = "crud.deleted"
	EventTagCreated   EventType = "tag.created"
)

// Event describes a successful mutation
type Event struct {
	Type       EventType `json:"type"`
	ID         uint      `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Listener is notified after every successful mutation. Listeners must not
// block for long; the request waits for them.
type Listener interface {
	OnEvent(ctx context.Context, event Event)
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(ctx context.Context, event Event)

func (f ListenerFunc) OnEvent(ctx context.Context, event Event) { f(ctx, event) }

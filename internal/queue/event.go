// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer pair that moves them.
package queue

import "time"

// Event types published by the application.
const (
	EventUserCreated       = "user.created"
	EventUserDeleted       = "user.deleted"
	EventUserStatusChanged = "user.status_changed"
	EventTemplateFilled    = "template.filled"
)

// Event is an audit record.  It carries enough information for downstream
// consumers to log or notify without querying the primary database.
type Event struct {
	Type       string            `json:"type"`
	UserID     uint64            `json:"user_id"`
	ActorID    uint64            `json:"actor_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// NewEvent stamps an event with the current UTC time.
func NewEvent(typ string, userID, actorID uint64, attrs map[string]string) Event {
	return Event{Type: typ, UserID: userID, ActorID: actorID, Attributes: attrs, OccurredAt: time.Now().UTC()}
}

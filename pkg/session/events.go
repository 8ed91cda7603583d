package session

import "oasyspark/pkg/models"

// EventType defines the type of event being broadcast.
type EventType string

const (
	EventConnecting     EventType = "connecting"
	EventSessionUpdated EventType = "session_updated"
	EventAssetsLoaded   EventType = "assets_loaded"
	EventConnectFailed  EventType = "connect_failed"
	EventDisconnected   EventType = "disconnected"
)

// Event is a session transition. Session is a snapshot taken right after it.
type Event struct {
	Type     EventType              `json:"type"`
	ActionID string                 `json:"action_id,omitempty"`
	Method   models.ConnectionMethod `json:"method,omitempty"`
	Session  models.Session         `json:"session"`
	Error    string                 `json:"error,omitempty"`
}

// Subscriber is a channel that receives events.
type Subscriber chan Event

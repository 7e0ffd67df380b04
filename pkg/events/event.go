package events

import "time"

// Event type codes published by the chat backend.
const (
	TypeMessagePosted        = "MESSAGE_POSTED"
	TypeSessionDeleted       = "SESSION_DELETED"
	TypeDataQuestionAnswered = "DATA_QUESTION_ANSWERED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "MESSAGE_POSTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewMessagePosted records that a message landed on a session timeline.
func NewMessagePosted(sessionID, messageID, messageType string) Event {
	return BaseEvent{
		Type: TypeMessagePosted,
		Data: map[string]interface{}{
			"session_id":   sessionID,
			"message_id":   messageID,
			"message_type": messageType,
		},
		OccurredAt: time.Now(),
	}
}

// NewSessionDeleted records an explicit session clear.
func NewSessionDeleted(sessionID string) Event {
	return BaseEvent{
		Type: TypeSessionDeleted,
		Data: map[string]interface{}{
			"session_id": sessionID,
		},
		OccurredAt: time.Now(),
	}
}

// NewDataQuestionAnswered records one full pass of the data pipeline, used
// by the audit trail consumer.
func NewDataQuestionAnswered(sessionID, question, answer string, elapsed time.Duration) Event {
	return BaseEvent{
		Type: TypeDataQuestionAnswered,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"question":   question,
			"answer":     answer,
			"elapsed_ms": elapsed.Milliseconds(),
		},
		OccurredAt: time.Now(),
	}
}

package dto

import "time"

type SendMessageRequest struct {
	Message   string     `json:"message" validate:"required"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// MessageResponse is one chat record as the dashboard renders it.
type MessageResponse struct {
	Id        string    `json:"id"`
	Type      string    `json:"type"` // "user" | "bot"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type SessionListResponse struct {
	ActiveSessions int      `json:"active_sessions"`
	Sessions       []string `json:"sessions"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// PublishQARecordMessage is queued for the audit consumer after a data
// question is answered.
type PublishQARecordMessage struct {
	SessionId string `json:"session_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

package store

import (
	"sync"
	"time"

	"ai-datachat-be/pkg/history"
)

// Message record types as they appear on the wire.
const (
	MessageTypeUser = "user"
	MessageTypeBot  = "bot"
)

// MessageRecord is one entry on a session's timeline.
type MessageRecord struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // "user" | "bot"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session represents the active chat session state in memory. The timeline
// holds every record posted to the session; History keeps only the bounded
// recent rounds used for prompt context.
type Session struct {
	ID        string
	CreatedAt time.Time
	History   *history.Buffer

	mu       sync.RWMutex
	messages []MessageRecord
}

// NewSession creates an empty session whose history buffer keeps
// historyWindow rounds.
func NewSession(id string, historyWindow int) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		History:   history.NewBuffer(historyWindow),
	}
}

// Append adds a record to the end of the timeline.
func (s *Session) Append(record MessageRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, record)
}

// Snapshot returns a copy of the timeline in insertion order.
func (s *Session) Snapshot() []MessageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MessageRecord, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of records on the timeline.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// SessionStore is the session registry injected into the service layer.
// Implementations must be safe for concurrent use.
type SessionStore interface {
	// Get returns the session if it exists.
	Get(sessionID string) (*Session, bool)
	// GetOrCreate returns the session, creating it when absent. The flag
	// reports whether this call created it.
	GetOrCreate(sessionID string) (*Session, bool)
	// Save refreshes the stored session, extending its lifetime.
	Save(session *Session)
	// Delete removes the session and reports whether it existed.
	Delete(sessionID string) bool
	// List returns the ids of all live sessions.
	List() []string
	// Count returns the number of live sessions.
	Count() int
}

package graph

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Checkpointer persists conversation state between graph passes, keyed by a
// thread identifier. It gives callers without their own session layer
// conversational memory across calls.
type Checkpointer interface {
	Load(threadID string) (*ConversationState, bool)
	Save(threadID string, state *ConversationState)
	Clear(threadID string)
}

// MemoryCheckpointer keeps checkpoints in an expiring in-process cache.
// Stale threads fall out on their own; no cleanup call is needed.
type MemoryCheckpointer struct {
	store *cache.Cache
}

// NewMemoryCheckpointer creates a checkpointer whose threads expire after
// ttl of inactivity. A non-positive ttl keeps threads forever.
func NewMemoryCheckpointer(ttl time.Duration) *MemoryCheckpointer {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemoryCheckpointer{
		store: cache.New(ttl, 10*time.Minute),
	}
}

func (c *MemoryCheckpointer) Load(threadID string) (*ConversationState, bool) {
	item, found := c.store.Get(threadID)
	if !found {
		return nil, false
	}
	state, ok := item.(*ConversationState)
	if !ok {
		return nil, false
	}
	return state.clone(), true
}

// Save stores a snapshot. The state is cloned so later mutations by the
// caller cannot reach into the checkpoint.
func (c *MemoryCheckpointer) Save(threadID string, state *ConversationState) {
	c.store.Set(threadID, state.clone(), cache.DefaultExpiration)
}

func (c *MemoryCheckpointer) Clear(threadID string) {
	c.store.Delete(threadID)
}

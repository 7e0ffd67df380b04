package memory

import (
	"time"

	"ai-datachat-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository is the in-process store.SessionStore implementation.
// Sessions expire after an hour without a Save, mirroring how long a
// dashboard tab realistically stays open.
type SessionRepository struct {
	cache         *cache.Cache
	historyWindow int
}

var _ store.SessionStore = &SessionRepository{}

// NewSessionRepository creates a repository whose sessions carry a history
// buffer of historyWindow rounds.
func NewSessionRepository(historyWindow int) *SessionRepository {
	// Create a cache with a default expiration time of 1 hour, and which
	// purges expired items every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache:         c,
		historyWindow: historyWindow,
	}
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

func (r *SessionRepository) GetOrCreate(sessionID string) (*store.Session, bool) {
	if session, found := r.Get(sessionID); found {
		return session, false
	}

	session := store.NewSession(sessionID, r.historyWindow)
	if err := r.cache.Add(sessionID, session, cache.DefaultExpiration); err != nil {
		// Lost a create race; the winner's session is the real one.
		if existing, found := r.Get(sessionID); found {
			return existing, false
		}
	}
	return session, true
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Delete(sessionID string) bool {
	if _, found := r.cache.Get(sessionID); !found {
		return false
	}
	r.cache.Delete(sessionID)
	return true
}

func (r *SessionRepository) List() []string {
	items := r.cache.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	return ids
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

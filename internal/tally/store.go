package tally

import (
	"sync"
	"time"
)

// DefaultTTL is how long an idle calculator survives.
const DefaultTTL = 6 * time.Hour

// Store keeps one calculator session per chat.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a Store. A non-positive ttl uses DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Start replaces the chat's session with s.
func (st *Store) Start(chatID int64, s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s.UpdatedAt = st.now()
	st.sessions[chatID] = s
}

// Update runs fn on the chat's session while holding the store lock.
// It reports false when there is no live session.
func (st *Store) Update(chatID int64, fn func(*Session)) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.live(chatID)
	if !ok {
		return false
	}
	fn(s)
	s.UpdatedAt = st.now()
	return true
}

// Remove ends the chat's session and returns it.
func (st *Store) Remove(chatID int64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.live(chatID)
	delete(st.sessions, chatID)
	return s, ok
}

// Len returns the number of sessions held, including expired ones not yet
// swept.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for chatID, s := range st.sessions {
		if st.expired(s) {
			delete(st.sessions, chatID)
			removed++
		}
	}
	return removed
}

func (st *Store) live(chatID int64) (*Session, bool) {
	s, ok := st.sessions[chatID]
	if !ok {
		return nil, false
	}
	if st.expired(s) {
		delete(st.sessions, chatID)
		return nil, false
	}
	return s, true
}

func (st *Store) expired(s *Session) bool {
	return st.now().Sub(s.UpdatedAt) > st.ttl
}

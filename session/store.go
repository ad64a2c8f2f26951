package session

import (
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// Store is an in-memory session registry. Sessions are ephemeral: nothing
// survives a process restart, and idle sessions are swept after a TTL.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl      time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewStore creates a session store with the given idle TTL.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}
}

// Create registers a new session and returns it.
func (st *Store) Create() *Session {
	s := newSession(uuid.NewString())

	st.mu.Lock()
	st.sessions[s.ID()] = s
	st.mu.Unlock()

	return s
}

// Get returns the session with the given id, if it exists.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.sessions[id]
	return s, ok
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return len(st.sessions)
}

// StartSweeper launches a background goroutine that drops sessions idle for
// longer than the TTL. Stop terminates it.
func (st *Store) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-st.stopChan:
				return
			case <-ticker.C:
				st.sweep(time.Now())
			}
		}
	}()
}

// Stop terminates the sweeper goroutine. Safe to call multiple times.
func (st *Store) Stop() {
	st.stopOnce.Do(func() {
		close(st.stopChan)
	})
}

func (st *Store) sweep(now time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for id, s := range st.sessions {
		if s.expired(st.ttl, now) {
			delete(st.sessions, id)
			log.Debugf("Swept expired session %s", id)
		}
	}
}

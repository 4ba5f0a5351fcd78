package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Manager keeps per-conversation session windows in process memory.
// Each session mutates under its own lock, so concurrent requests on
// distinct sessions never serialize against each other. MaxTurns bounds
// the window: the oldest turn is evicted first once the window is full.
type Manager struct {
	cache    *cache.Cache
	locks    sync.Map // session key -> *sync.Mutex
	maxTurns int
}

func NewManager(maxTurns int, ttl time.Duration) *Manager {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		cache:    cache.New(ttl, 10*time.Minute),
		maxTurns: maxTurns,
	}
}

// Key scopes a conversation to its organization so two tenants reusing
// the same conversation id never share a window.
func Key(orgID, conversationID string) string {
	return fmt.Sprintf("%s:%s", orgID, conversationID)
}

func (m *Manager) lock(key string) *sync.Mutex {
	if mu, ok := m.locks.Load(key); ok {
		return mu.(*sync.Mutex)
	}
	mu, _ := m.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// GetOrCreate returns a deep copy of the session window, creating an
// empty session on first touch.
func (m *Manager) GetOrCreate(orgID, conversationID string) *Session {
	key := Key(orgID, conversationID)
	mu := m.lock(key)
	mu.Lock()
	defer mu.Unlock()

	session := m.loadLocked(key, orgID, conversationID)
	m.cache.Set(key, session, cache.DefaultExpiration)
	return copySession(session)
}

// AppendTurn records a completed exchange, evicting the oldest turn
// when the window is full. Incomplete exchanges must never reach here.
func (m *Manager) AppendTurn(orgID, conversationID string, turn Turn) {
	key := Key(orgID, conversationID)
	mu := m.lock(key)
	mu.Lock()
	defer mu.Unlock()

	session := m.loadLocked(key, orgID, conversationID)
	session.Turns = append(session.Turns, turn)
	if len(session.Turns) > m.maxTurns {
		session.Turns = session.Turns[len(session.Turns)-m.maxTurns:]
	}
	session.MessageCount += 2 // one question, one answer
	session.LastActive = time.Now()

	m.cache.Set(key, session, cache.DefaultExpiration)
}

// Snapshot returns an immutable copy of the recent turns, newest last.
// An unknown session yields an empty slice.
func (m *Manager) Snapshot(orgID, conversationID string) []Turn {
	key := Key(orgID, conversationID)
	mu := m.lock(key)
	mu.Lock()
	defer mu.Unlock()

	x, found := m.cache.Get(key)
	if !found {
		return []Turn{}
	}
	session := x.(*Session)
	turns := make([]Turn, len(session.Turns))
	copy(turns, session.Turns)
	return turns
}

// Info reports session metadata without exposing the turns themselves.
func (m *Manager) Info(orgID, conversationID string) (*SessionInfo, bool) {
	key := Key(orgID, conversationID)
	mu := m.lock(key)
	mu.Lock()
	defer mu.Unlock()

	x, found := m.cache.Get(key)
	if !found {
		return nil, false
	}
	session := x.(*Session)
	return &SessionInfo{
		ID:           session.ID,
		OrgID:        session.OrgID,
		CreatedAt:    session.CreatedAt,
		LastActive:   session.LastActive,
		MessageCount: session.MessageCount,
		TurnCount:    len(session.Turns),
	}, true
}

// Delete drops the session window. Deleting an unknown session is a
// no-op and reports false.
func (m *Manager) Delete(orgID, conversationID string) bool {
	key := Key(orgID, conversationID)
	mu := m.lock(key)
	mu.Lock()
	defer mu.Unlock()

	_, found := m.cache.Get(key)
	if found {
		m.cache.Delete(key)
	}
	// The lock entry stays: a concurrent mutator may still hold the old
	// mutex, and minting a fresh one would let two of them run at once.
	return found
}

// EvictStale removes sessions idle longer than maxAge and returns the
// number evicted. The cache's own TTL handles fully expired entries;
// this sweep exists for operator-triggered cleanup at shorter horizons.
func (m *Manager) EvictStale(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	evicted := 0
	for key, item := range m.cache.Items() {
		session, ok := item.Object.(*Session)
		if !ok {
			continue
		}
		if session.LastActive.Before(cutoff) {
			m.cache.Delete(key)
			evicted++
		}
	}
	return evicted
}

// ActiveSessions reports how many windows are currently held.
func (m *Manager) ActiveSessions() int {
	return m.cache.ItemCount()
}

// loadLocked returns the live session for key, creating it when absent.
// Callers must hold the session lock.
func (m *Manager) loadLocked(key, orgID, conversationID string) *Session {
	if x, found := m.cache.Get(key); found {
		return x.(*Session)
	}
	now := time.Now()
	return &Session{
		ID:         conversationID,
		OrgID:      orgID,
		CreatedAt:  now,
		LastActive: now,
		Turns:      []Turn{},
	}
}

func copySession(s *Session) *Session {
	out := *s
	out.Turns = make([]Turn, len(s.Turns))
	copy(out.Turns, s.Turns)
	return &out
}

package session

import (
	"container/list"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flexigpt/ordermerge-go/spec"
)

const (
	defaultTTL         = 24 * time.Hour
	defaultMaxSessions = 4096
)

type StoreConfig struct {
	TTL             time.Duration
	MaxSessions     int
	MaxDocuments    int
	DuplicatePolicy spec.DuplicatePolicy
	Logger          *slog.Logger
}

// Store holds live sessions. Sessions idle for longer than TTL expire, and
// the least recently used ones are dropped once MaxSessions is exceeded.
// A dropped session is closed: its methods return spec.ErrSessionNotFound.
type Store struct {
	mu sync.Mutex

	ttl         time.Duration
	maxSessions int
	newConfig   func(spec.SessionID) SessionConfig
	logger      *slog.Logger

	recency *list.List // of *entry, most recent first
	byID    map[spec.SessionID]*list.Element

	now func() time.Time
}

type entry struct {
	s        *Session
	lastUsed time.Time
}

type evictReason string

const (
	evictExpired  evictReason = "expired"
	evictCapacity evictReason = "capacity"
	evictDeleted  evictReason = "deleted"
)

func NewStore(cfg StoreConfig) *Store {
	st := &Store{
		ttl:         cfg.TTL,
		maxSessions: cfg.MaxSessions,
		logger:      cfg.Logger,
		recency:     list.New(),
		byID:        map[spec.SessionID]*list.Element{},
		now:         time.Now,
	}
	if st.ttl <= 0 {
		st.ttl = defaultTTL
	}
	if st.maxSessions <= 0 {
		st.maxSessions = defaultMaxSessions
	}
	if st.logger == nil {
		st.logger = slog.Default()
	}
	st.newConfig = func(id spec.SessionID) SessionConfig {
		return SessionConfig{
			ID:              id,
			MaxDocuments:    cfg.MaxDocuments,
			DuplicatePolicy: cfg.DuplicatePolicy,
			Logger:          st.logger,
			Touch:           func() { st.touch(id) },
		}
	}
	return st
}

// NewSession creates and registers an empty session with a UUIDv7 id.
func (st *Store) NewSession() *Session {
	id := spec.SessionID(uuid.Must(uuid.NewV7()).String())
	s := newSession(st.newConfig(id))

	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.sweepLocked(now)
	st.byID[id] = st.recency.PushFront(&entry{s: s, lastUsed: now})
	for st.recency.Len() > st.maxSessions {
		st.removeLocked(st.recency.Back(), evictCapacity)
	}
	return s
}

// Get returns a live session and marks it as used.
func (st *Store) Get(id spec.SessionID) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.sweepLocked(now)
	e, ok := st.markUsedLocked(id, now)
	if !ok {
		return nil, false
	}
	return e.s, true
}

// Delete closes and forgets a session. Unknown ids are ignored.
func (st *Store) Delete(id spec.SessionID) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if el := st.byID[id]; el != nil {
		st.removeLocked(el, evictDeleted)
	}
}

// Sweep drops every expired session now instead of on the next access.
func (st *Store) Sweep() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked(st.now())
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.recency.Len()
}

// touch is called by sessions on every operation.
func (st *Store) touch(id spec.SessionID) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.markUsedLocked(id, st.now())
}

func (st *Store) markUsedLocked(id spec.SessionID, now time.Time) (*entry, bool) {
	el := st.byID[id]
	if el == nil {
		return nil, false
	}
	e := el.Value.(*entry)
	if e.s.closed.Load() {
		st.removeLocked(el, evictDeleted)
		return nil, false
	}
	e.lastUsed = now
	st.recency.MoveToFront(el)
	return e, true
}

// sweepLocked walks from the least recently used end and stops at the first
// session still within TTL.
func (st *Store) sweepLocked(now time.Time) {
	for el := st.recency.Back(); el != nil; {
		prev := el.Prev()
		if now.Sub(el.Value.(*entry).lastUsed) <= st.ttl {
			return
		}
		st.removeLocked(el, evictExpired)
		el = prev
	}
}

func (st *Store) removeLocked(el *list.Element, reason evictReason) {
	e := el.Value.(*entry)
	e.s.closed.Store(true)
	delete(st.byID, e.s.id)
	st.recency.Remove(el)
	st.logger.Debug("session removed", "session", string(e.s.id), "reason", string(reason))
}

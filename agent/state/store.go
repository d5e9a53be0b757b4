package state

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var ErrStateNotFound = errors.New("turn state not found")

// Store is the session persistence contract: at most one live entry per
// user, replaced every turn, removed on explicit termination.
type Store interface {
	Get(ctx context.Context, userID string) (*TurnState, error)
	Put(ctx context.Context, st *TurnState) error
	Evict(ctx context.Context, userID string) (bool, error)
}

// Locker serializes turns for a single user. The hosting layer holds the
// lock across the whole read-compute-write cycle; two concurrent turns for
// the same user racing on the store would corrupt the missing-parameter
// bookkeeping.
type Locker interface {
	Lock(ctx context.Context, userID string) (func(), error)
}

// MemoryStore keeps sessions in-process. Entries live until evicted; there
// is no TTL, so process-wide growth is bounded only by explicit termination.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*TurnState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*TurnState),
	}
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (*TurnState, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.entries[userID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return st.Clone(), nil
}

func (s *MemoryStore) Put(ctx context.Context, st *TurnState) error {
	if st == nil {
		return ErrNilState
	}
	if strings.TrimSpace(st.UserID) == "" {
		return ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[st.UserID] = st.Clone()
	return nil
}

func (s *MemoryStore) Evict(ctx context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[userID]; !ok {
		return false, nil
	}
	delete(s.entries, userID)
	return true, nil
}

// MemoryLocker provides per-user mutual exclusion for in-process serving.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]*sync.Mutex),
	}
}

func (l *MemoryLocker) Lock(ctx context.Context, userID string) (func(), error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}

	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	var once sync.Once
	return func() {
		once.Do(m.Unlock)
	}, nil
}

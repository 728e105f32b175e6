package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const sweepEvery = 256

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. Expired entries are dropped when
// read and swept periodically on write.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]memoryEntry
	now    func() time.Time
	writes int
}

// NewMemoryStore builds an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

// SessionKey implements the keyer used by Manager.
func (s *MemoryStore) SessionKey(sessionID string) string {
	return "session:" + sessionID
}

func (s *MemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{value: fmt.Sprint(value)}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.data[key] = entry

	s.writes++
	if s.writes%sweepEvery == 0 {
		s.sweepLocked()
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	entry, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return "", ErrNoSession
	}
	if s.expired(entry) {
		s.mu.Lock()
		if current, still := s.data[key]; still && s.expired(current) {
			delete(s.data, key)
		}
		s.mu.Unlock()
		return "", ErrNoSession
	}
	return entry.value, nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt)
}

func (s *MemoryStore) sweepLocked() {
	for key, entry := range s.data {
		if s.expired(entry) {
			delete(s.data, key)
		}
	}
}

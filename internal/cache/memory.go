package cache

import (
	"context"
	"sync"
	"time"
)

// sweepEvery is the number of saves between full expiry sweeps.
const sweepEvery = 256

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps entries in process memory. Expired entries are dropped on
// load and by a periodic sweep on save.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]memoryEntry
	saves int
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryEntry), now: time.Now}
}

// WithClock overrides the time source used for expiry.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if s.expired(e, s.now()) {
		s.mu.Lock()
		if cur, ok := s.data[key]; ok && s.expired(cur, s.now()) {
			delete(s.data, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return e.data, true, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, data []byte, ttl time.Duration) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	now := s.now()
	e := memoryEntry{data: buf}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}

	s.mu.Lock()
	s.data[key] = e
	s.saves++
	if s.saves%sweepEvery == 0 {
		s.sweepLocked(now)
	}
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for key, e := range s.data {
		if s.expired(e, now) {
			delete(s.data, key)
		}
	}
}

func (s *MemoryStore) expired(e memoryEntry, now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

package kv

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore implements Store with a mutex-guarded map. Expired entries are
// dropped lazily on access. Suitable for tests and single-process deploys;
// state does not survive a restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	// nowFunc allows tests to inject a clock.
	nowFunc func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		nowFunc: time.Now,
	}
}

// SetTimeFunc replaces the clock used for expiry checks (for testing).
func (s *MemoryStore) SetTimeFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFunc = fn
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(key)
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = s.entry(value, ttl)
	return nil
}

func (s *MemoryStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.entries[key] = s.entry(value, ttl)
	return true, nil
}

func (s *MemoryStore) IncrByFloat(ctx context.Context, key string, delta float64, ttl time.Duration) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current float64
	if entry, ok := s.live(key); ok {
		parsed, err := strconv.ParseFloat(string(entry.value), 64)
		if err != nil {
			return 0, err
		}
		current = parsed
	}

	total := current + delta
	s.entries[key] = s.entry([]byte(strconv.FormatFloat(total, 'f', -1, 64)), ttl)
	return total, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]memoryEntry)
	return nil
}

// live returns the entry for key if present and unexpired, pruning it
// otherwise. Caller must hold the mutex.
func (s *MemoryStore) live(key string) (memoryEntry, bool) {
	entry, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !s.nowFunc().Before(entry.expiresAt) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (s *MemoryStore) entry(value []byte, ttl time.Duration) memoryEntry {
	stored := make([]byte, len(value))
	copy(stored, value)

	e := memoryEntry{value: stored}
	if ttl > 0 {
		e.expiresAt = s.nowFunc().Add(ttl)
	}
	return e
}

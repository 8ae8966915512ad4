package alert

import (
	"context"
	"sync"
	"time"
)

// MemKeyStore keeps the dedup index in process memory. Dedup state is lost on
// restart, so it only backs tests and one-off tooling.
type MemKeyStore struct {
	mu   sync.RWMutex
	keys map[string]time.Time // zero value = never expires
}

func NewMemKeyStore() *MemKeyStore {
	return &MemKeyStore{keys: make(map[string]time.Time)}
}

func (s *MemKeyStore) Seen(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exp, ok := s.keys[key]
	if !ok {
		return false, nil
	}
	if !exp.IsZero() && time.Now().After(exp) {
		return false, nil
	}
	return true, nil
}

func (s *MemKeyStore) MarkSeen(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	s.keys[key] = exp
	return nil
}

// Prune drops expired keys. Keys without an expiry stay forever.
func (s *MemKeyStore) Prune(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for key, exp := range s.keys {
		if !exp.IsZero() && now.After(exp) {
			delete(s.keys, key)
			removed++
		}
	}
	return removed, nil
}

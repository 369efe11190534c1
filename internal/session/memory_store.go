package session

import (
	"context"
	"sync"
	"time"

	"forceautomaton/api/internal/crm"
)

type memoryEntry struct {
	session   crm.Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. It is used when no Redis URL
// is configured, so a single instance still reuses its CRM session.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (crm.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return crm.Session{}, false, nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return crm.Session{}, false, nil
	}
	return entry.session, true, nil
}

// Put stores a session under key for ttl
func (s *MemoryStore) Put(_ context.Context, key string, session crm.Session, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{session: session, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Sessions are stored encoded
// so that concurrent requests never share a *Session.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewMemoryStore creates a memory store whose sessions live for ttl after
// their last save. Expired sessions are swept every sweepInterval.
func NewMemoryStore(ttl, sweepInterval time.Duration) *MemoryStore {
	m := &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}
	if sweepInterval > 0 {
		m.startSweeper(sweepInterval)
	}
	return m
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || !time.Now().Before(entry.expiresAt) {
		return nil, ErrNotFound
	}
	return decode(entry.data)
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	s.UpdatedAt = time.Now()
	data, err := encode(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.sessions[s.ID] = memoryEntry{data: data, expiresAt: s.UpdatedAt.Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, expired ones included until swept.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, entry := range m.sessions {
		if !now.Before(entry.expiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *MemoryStore) startSweeper(interval time.Duration) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				if n := m.Sweep(now); n > 0 {
					slog.Debug("swept expired sessions", "count", n)
				}
			case <-m.stopChan:
				return
			}
		}
	}()
}

// Close stops the sweeper.
func (m *MemoryStore) Close() error {
	select {
	case <-m.stopChan:
	default:
		close(m.stopChan)
	}
	m.wg.Wait()
	return nil
}

// Package sessionstore persists the client's credential together with the
// last identity snapshot the server confirmed.
package sessionstore

import (
	"sync"

	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

// Snapshot is the persisted session. Identity is only meaningful while Token
// is set; a snapshot without a token is treated as empty.
type Snapshot struct {
	Token    string
	Identity *domain.Identity
}

func (s Snapshot) Empty() bool { return s.Token == "" }

// Store reads and writes both keys together. Save must be atomic: a reader
// never observes a new token paired with an old identity, or the reverse.
type Store interface {
	Load() (Snapshot, error)
	Save(Snapshot) error
	Clear() error
}

func normalize(s Snapshot) Snapshot {
	if s.Token == "" {
		return Snapshot{}
	}
	s.Identity = s.Identity.Snapshot()
	return s
}

type MemoryStore struct {
	mu   sync.Mutex
	snap Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return normalize(m.snap), nil
}

func (m *MemoryStore) Save(s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = normalize(s)
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = Snapshot{}
	return nil
}

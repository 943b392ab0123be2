// Package memory provides a process-local AccountDirectory for development
// runs and end-to-end tests. Data does not survive a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

type AccountDirectory struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Identity
	byEmail map[string]string
}

func NewAccountDirectory() *AccountDirectory {
	return &AccountDirectory{
		byID:    make(map[string]*domain.Identity),
		byEmail: make(map[string]string),
	}
}

func clone(i *domain.Identity) *domain.Identity {
	c := *i
	return &c
}

func (d *AccountDirectory) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, taken := d.byEmail[identity.Email]; taken {
		return nil, domain.ErrDuplicateAccount
	}
	stored := clone(identity)
	stored.ID = uuid.NewString()
	d.byID[stored.ID] = stored
	d.byEmail[stored.Email] = stored.ID
	return clone(stored), nil
}

func (d *AccountDirectory) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(d.byID[id]), nil
}

func (d *AccountDirectory) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stored, ok := d.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(stored), nil
}

func (d *AccountDirectory) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate) (*domain.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	stored, ok := d.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	update.ApplyTo(stored)
	stored.UpdatedAt = time.Now().UTC()
	return clone(stored), nil
}

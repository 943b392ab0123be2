package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

func TestAccountDirectory_ConcurrentDuplicateRegistration(t *testing.T) {
	dir := NewAccountDirectory()
	var created atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := dir.Create(context.Background(), &domain.Identity{Email: "same@x.com"}); err == nil {
				created.Add(1)
			} else if err != domain.ErrDuplicateAccount {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created.Load() != 1 {
		t.Fatalf("expected exactly one account, got %d", created.Load())
	}
}

func TestAccountDirectory_ReturnsCopies(t *testing.T) {
	dir := NewAccountDirectory()
	ctx := context.Background()
	created, _ := dir.Create(ctx, &domain.Identity{Email: "a@x.com", DisplayName: "A"})

	created.DisplayName = "mutated"
	found, err := dir.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.DisplayName != "A" {
		t.Fatalf("caller mutation leaked into store: %+v", found)
	}

	if _, err := dir.FindByEmail(ctx, "missing@x.com"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := dir.UpdateProfile(ctx, "nope", domain.ProfileUpdate{}); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccountDirectory_UpdateProfileStampsUpdatedAt(t *testing.T) {
	dir := NewAccountDirectory()
	ctx := context.Background()
	created, _ := dir.Create(ctx, &domain.Identity{Email: "a@x.com", DisplayName: "A", Phone: "555"})
	before := time.Now().UTC()

	updated, err := dir.UpdateProfile(ctx, created.ID, domain.ProfileUpdate{Address: domain.Some("North Field"), Phone: domain.Some("")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.UpdatedAt.Before(before) {
		t.Fatalf("expected updated_at to be bumped, got %v", updated.UpdatedAt)
	}
	if updated.Address != "North Field" || updated.Phone != "555" {
		t.Fatalf("unexpected profile: %+v", updated)
	}

	found, _ := dir.FindByID(ctx, created.ID)
	if !found.UpdatedAt.Equal(updated.UpdatedAt) {
		t.Fatalf("stored updated_at %v differs from returned %v", found.UpdatedAt, updated.UpdatedAt)
	}
}

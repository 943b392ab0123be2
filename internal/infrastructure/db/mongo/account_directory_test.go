package mongo

import (
	"testing"
	"time"

	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

func TestProfileSet_OnlyPresentFields(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	set := profileSet(domain.ProfileUpdate{
		Address: domain.Some(""),
		Avatar:  domain.Some("me.png"),
	}, now)

	if _, ok := set["address"]; ok {
		t.Fatalf("empty address must not be written: %v", set)
	}
	if set["avatar"] != "me.png" {
		t.Fatalf("expected avatar in $set, got %v", set)
	}
	if _, ok := set["display_name"]; ok {
		t.Fatalf("absent display name must not be written: %v", set)
	}
	if _, ok := set["phone"]; ok {
		t.Fatalf("absent phone must not be written: %v", set)
	}
	if set["updated_at"] != now {
		t.Fatalf("expected updated_at to be stamped")
	}
}

func TestAccountDoc_ToDomain(t *testing.T) {
	doc := accountDoc{Email: "a@x.com", Role: "consumer", DisplayName: "A"}
	id := doc.toDomain()
	if id.Role != domain.RoleConsumer || id.Email != "a@x.com" {
		t.Fatalf("unexpected mapping: %+v", id)
	}
}

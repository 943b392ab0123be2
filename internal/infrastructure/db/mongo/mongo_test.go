package mongo

import (
	"context"
	"testing"
	"time"
)

func TestConfig_ClientOptions(t *testing.T) {
	opts := Config{
		URI:         "mongodb://localhost:27017",
		AppName:     "marketplace-auth",
		MaxPoolSize: 50,
		Timeout:     3 * time.Second,
	}.clientOptions()

	if opts.AppName == nil || *opts.AppName != "marketplace-auth" {
		t.Fatalf("app name not applied: %v", opts.AppName)
	}
	if opts.MaxPoolSize == nil || *opts.MaxPoolSize != 50 {
		t.Fatalf("pool size not applied: %v", opts.MaxPoolSize)
	}
	if opts.ServerSelectionTimeout == nil || *opts.ServerSelectionTimeout != 3*time.Second {
		t.Fatalf("server selection timeout not applied: %v", opts.ServerSelectionTimeout)
	}
	if opts.WriteConcern == nil {
		t.Fatal("expected majority write concern")
	}
}

func TestConnect_RequiresDatabase(t *testing.T) {
	if _, _, err := Connect(context.Background(), Config{URI: "mongodb://localhost:27017"}); err == nil {
		t.Fatal("expected error without database name")
	}
}

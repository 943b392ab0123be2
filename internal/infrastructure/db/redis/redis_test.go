package redis

import (
	"context"
	"reflect"
	"testing"
)

func TestConfig_Addrs(t *testing.T) {
	cfg := Config{Addr: " a:6379, ,b:6379 "}
	if got, want := cfg.addrs(), []string{"a:6379", "b:6379"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("addrs() = %v, want %v", got, want)
	}
}

func TestConnect_RequiresAddress(t *testing.T) {
	if _, err := Connect(context.Background(), Config{Addr: " , "}); err == nil {
		t.Fatal("expected error for empty address list")
	}
}

package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingProcessor struct {
	mu   sync.Mutex
	seen []string
	done chan string
	err  error
}

func (p *recordingProcessor) ProcessReset(_ context.Context, email string) error {
	p.mu.Lock()
	p.seen = append(p.seen, email)
	p.mu.Unlock()
	p.done <- email
	return p.err
}

func TestDispatcher_ProcessesInOrderPerAccount(t *testing.T) {
	proc := &recordingProcessor{done: make(chan string, 16)}
	d := NewDispatcher(1, proc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	emails := []string{"a@x.com", "b@x.com", "a@x.com"}
	for _, e := range emails {
		if !d.Enqueue(e) {
			t.Fatalf("enqueue %s rejected", e)
		}
	}
	for range emails {
		select {
		case <-proc.done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for worker")
		}
	}

	cancel()
	d.Wait()

	proc.mu.Lock()
	defer proc.mu.Unlock()
	for i, e := range emails {
		if proc.seen[i] != e {
			t.Fatalf("expected order %v, got %v", emails, proc.seen)
		}
	}
}

func TestDispatcher_SameEmailSameShard(t *testing.T) {
	d := NewDispatcher(8, &recordingProcessor{}, zerolog.Nop())
	if d.shardIndex("farmer@x.com") != d.shardIndex("farmer@x.com") {
		t.Fatal("shard index must be deterministic")
	}
	if got := len(d.workers); got != 8 {
		t.Fatalf("expected 8 workers, got %d", got)
	}
	if got := len(NewDispatcher(0, &recordingProcessor{}, zerolog.Nop()).workers); got != defaultWorkers {
		t.Fatalf("expected default worker count, got %d", got)
	}
}

func TestDispatcher_EnqueueDropsWhenFull(t *testing.T) {
	d := NewDispatcher(1, &recordingProcessor{}, zerolog.Nop())

	for i := 0; i < channelBuffer; i++ {
		if !d.Enqueue("a@x.com") {
			t.Fatalf("enqueue %d rejected before buffer was full", i)
		}
	}
	if d.Enqueue("a@x.com") {
		t.Fatal("expected enqueue to report a dropped request")
	}
}

func TestDispatcher_ProcessorErrorDoesNotStopWorker(t *testing.T) {
	proc := &recordingProcessor{done: make(chan string, 4), err: errors.New("mongo down")}
	d := NewDispatcher(1, proc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		d.Wait()
	}()
	d.Start(ctx)

	d.Enqueue("a@x.com")
	d.Enqueue("b@x.com")
	for i := 0; i < 2; i++ {
		select {
		case <-proc.done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker stopped after a failed job")
		}
	}
}

package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agroconnect/marketplace-auth/internal/core/ports"
)

const (
	defaultWorkers    = 4
	channelBuffer     = 128
	defaultJobTimeout = 10 * time.Second
)

// Dispatcher runs forgot-password requests on a fixed set of workers. The
// email is hashed to pick a worker, so repeated requests for one account are
// handled in order by the same worker.
type Dispatcher struct {
	workers   []chan string
	processor ports.ResetProcessor
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, processor ports.ResetProcessor, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan string, numWorkers),
		processor: processor,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches the workers. They stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue never blocks. It returns false when the worker's buffer is full
// and the request was dropped.
func (d *Dispatcher) Enqueue(email string) bool {
	select {
	case d.workers[d.shardIndex(email)] <- email:
		return true
	default:
		return false
	}
}

func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case email := <-ch:
			jobCtx, cancel := context.WithTimeout(ctx, defaultJobTimeout)
			if err := d.processor.ProcessReset(jobCtx, email); err != nil {
				d.log.Error().Err(err).Int("worker_id", id).Msg("password reset processing failed")
			}
			cancel()
		}
	}
}

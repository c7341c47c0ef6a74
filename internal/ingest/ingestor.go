// Package ingest groups concurrent hit writes into batched inserts.
package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/ewm/internal/stats"
)

var (
	ErrQueueFull = errors.New("ingest: hit queue full")
	ErrStopped   = errors.New("ingest: stopped")
)

// BatchStore is a stats store that can also insert many hits at once.
// SaveHits returns the hits in input order with their ids set.
type BatchStore interface {
	stats.Store
	SaveHits(ctx context.Context, hs []stats.Hit) ([]stats.Hit, error)
}

type result struct {
	hit stats.Hit
	err error
}

type pending struct {
	hit  stats.Hit
	done chan result
}

// Ingestor implements stats.Store. SaveHit blocks until the batch holding
// the hit has been written; reads go straight to the underlying store.
type Ingestor struct {
	store        BatchStore
	queue        chan pending
	batchMaxSize int
	batchMaxWait time.Duration
	log          *logrus.Entry

	// mu orders enqueues against shutdown: once closed is set under mu,
	// nothing else enters the queue and rejectQueued sees every pending hit.
	mu      sync.Mutex
	closed  bool
	stopped chan struct{}
	done    chan struct{}
}

var _ stats.Store = (*Ingestor)(nil)

func NewIngestor(store BatchStore, queueMaxSize, batchMaxSize int, batchMaxWait time.Duration, log *logrus.Entry) *Ingestor {
	if batchMaxSize < 1 {
		batchMaxSize = 1
	}
	if batchMaxWait <= 0 {
		batchMaxWait = 50 * time.Millisecond
	}
	return &Ingestor{
		store:        store,
		queue:        make(chan pending, queueMaxSize),
		batchMaxSize: batchMaxSize,
		batchMaxWait: batchMaxWait,
		log:          log,
		stopped:      make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start runs the flush loop until ctx is cancelled. The hits buffered at
// that point are still written; hits queued afterwards fail with ErrStopped.
func (ig *Ingestor) Start(ctx context.Context) {
	go func() {
		defer close(ig.done)
		batch := make([]pending, 0, ig.batchMaxSize)
		t := time.NewTimer(ig.batchMaxWait)
		defer t.Stop()

		resetTimer := func() {
			if !t.Stop() {
				select {
				case <-t.C:
				default:
				}
			}
			t.Reset(ig.batchMaxWait)
		}

		flush := func() {
			if len(batch) > 0 {
				ig.write(ctx, batch)
				batch = batch[:0]
			}
			resetTimer()
		}

		for {
			select {
			case <-ctx.Done():
				flush()
				ig.mu.Lock()
				ig.closed = true
				close(ig.stopped)
				ig.mu.Unlock()
				ig.rejectQueued()
				return
			case p := <-ig.queue:
				batch = append(batch, p)
				if len(batch) >= ig.batchMaxSize {
					flush()
				}
			case <-t.C:
				flush()
			}
		}
	}()
}

// Wait blocks until the loop started by Start has exited.
func (ig *Ingestor) Wait() { <-ig.done }

func (ig *Ingestor) SaveHit(ctx context.Context, h stats.Hit) (stats.Hit, error) {
	p := pending{hit: h, done: make(chan result, 1)}
	if err := ig.enqueue(p); err != nil {
		return stats.Hit{}, err
	}
	select {
	case r := <-p.done:
		return r.hit, r.err
	case <-ctx.Done():
		return stats.Hit{}, ctx.Err()
	}
}

func (ig *Ingestor) enqueue(p pending) error {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	if ig.closed {
		return ErrStopped
	}
	select {
	case ig.queue <- p:
		return nil
	default:
		return ErrQueueFull
	}
}

func (ig *Ingestor) Stats(ctx context.Context, q stats.Query) ([]stats.ViewStats, error) {
	return ig.store.Stats(ctx, q)
}

func (ig *Ingestor) Ready(ctx context.Context) error {
	select {
	case <-ig.stopped:
		return ErrStopped
	default:
	}
	return ig.store.Ready(ctx)
}

func (ig *Ingestor) write(ctx context.Context, batch []pending) {
	// the last flush runs after ctx is cancelled
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	hits := make([]stats.Hit, len(batch))
	for i, p := range batch {
		hits[i] = p.hit
	}
	saved, err := ig.store.SaveHits(wctx, hits)
	if err == nil && len(saved) != len(batch) {
		err = errors.New("ingest: store returned a short batch")
	}
	if err != nil {
		ig.log.WithError(err).WithField("dropped", len(batch)).Error("hit batch insert failed")
		for _, p := range batch {
			p.done <- result{err: err}
		}
		return
	}
	ig.log.WithField("size", len(batch)).Debug("hit batch inserted")
	for i, p := range batch {
		p.done <- result{hit: saved[i]}
	}
}

func (ig *Ingestor) rejectQueued() {
	for {
		select {
		case p := <-ig.queue:
			p.done <- result{err: ErrStopped}
		default:
			return
		}
	}
}

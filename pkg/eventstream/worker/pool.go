// Package worker provides an asynchronous worker pool that publishes turn
// events off the session call path.
//
// Events for one session always land on the same worker, so a session's
// events reach the backend in the order they were published.
package worker

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/advisor/pkg/eventstream"
	"github.com/papercomputeco/advisor/pkg/logger"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// ErrQueueFull is returned when a worker queue cannot take another event.
// The event is dropped.
var ErrQueueFull = errors.New("event queue full, event dropped")

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher is the backend events are handed to.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of each worker's queue (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

type job struct {
	ctx   context.Context
	event *eventstream.TurnCompletedEvent
}

// Pool is an eventstream.Publisher that queues events for background workers.
type Pool struct {
	inner  eventstream.Publisher
	queues []chan job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a Pool and starts its worker goroutines.
func NewPool(c Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, errors.New("worker pool needs a publisher")
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	p := &Pool{
		inner:  c.Publisher,
		queues: make([]chan job, c.NumWorkers),
		logger: c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range p.queues {
		p.queues[i] = make(chan job, c.QueueSize)
		go p.worker(i)
	}

	return p, nil
}

// PublishTurn queues the event and returns without waiting for the backend.
// The caller's context values are kept but its cancellation is not.
func (p *Pool) PublishTurn(ctx context.Context, event *eventstream.TurnCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return eventstream.ErrPublisherClosed
	}

	queue := p.queues[p.shard(event.SessionID)]
	select {
	case queue <- job{ctx: context.WithoutCancel(ctx), event: event}:
		p.logger.Debug("turn event queued", "event_id", event.EventID, "session_id", event.SessionID)
		return nil
	default:
		p.logger.Error("turn event not queued, queue full, event dropped",
			"event_id", event.EventID,
			"session_id", event.SessionID,
		)
		return ErrQueueFull
	}
}

// Close stops accepting events, waits for queued events to drain and then
// closes the wrapped publisher.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()

	p.wg.Wait()
	return p.inner.Close()
}

func (p *Pool) shard(sessionID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return int(h.Sum32() % uint32(len(p.queues)))
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	p.logger.Debug("event worker started", "worker_id", id)

	for j := range p.queues[id] {
		if err := p.inner.PublishTurn(j.ctx, j.event); err != nil {
			p.logger.Warn("publishing turn event failed",
				"event_id", j.event.EventID,
				"session_id", j.event.SessionID,
				"error", err,
			)
		}
	}

	p.logger.Debug("event worker stopped", "worker_id", id)
}

package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"stockledger/pkg/logger"
)

// DefaultBufferSize is the dispatcher queue length when none is configured.
const DefaultBufferSize = 1024

// Dispatcher queues events and fans them out to sinks on its own goroutine.
type Dispatcher struct {
	sinks   []Sink
	queue   chan Event
	timeout time.Duration
	log     *logger.Logger

	dropped atomic.Int64

	// mu guards closed and the send side of queue.
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewDispatcher creates a dispatcher. Call Start before publishing and Close on shutdown.
func NewDispatcher(bufferSize int, sinks ...Sink) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Dispatcher{
		sinks:   sinks,
		queue:   make(chan Event, bufferSize),
		timeout: 5 * time.Second,
		log:     logger.Default().WithComponent("notify"),
		done:    make(chan struct{}),
	}
}

// Start runs the delivery loop until Close.
func (d *Dispatcher) Start() {
	go d.run()
}

// Publish enqueues events without blocking. When the queue is full the event
// is dropped and logged.
func (d *Dispatcher) Publish(ctx context.Context, events ...Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	for _, ev := range events {
		select {
		case d.queue <- ev:
		default:
			d.dropped.Add(1)
			d.log.WithContext(ctx).Warnw("notification dropped, queue full", "event", ev.Name)
		}
	}
}

// Dropped returns the number of events dropped because the queue was full.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Close stops accepting events and waits until queued events are delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev Event) {
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := sink.Deliver(ctx, ev); err != nil {
			d.log.Warnw("notification delivery failed",
				"sink", sink.Name(),
				"event", ev.Name,
				"error", err,
			)
		}
		cancel()
	}
}

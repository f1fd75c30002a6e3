// Package async provides a transport wrapper with a bounded queue for high-throughput scenarios.
// Envelopes are queued and sent asynchronously; oldest envelopes are dropped when full.
package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/strongdm/aisen/pkg/aisen"
)

// ErrTransportClosed is returned by SendEnvelope after Close.
var ErrTransportClosed = errors.New("async transport is closed")

// Option configures the async transport.
type Option func(*config)

type config struct {
	queueSize    int
	pollInterval time.Duration
	onDropped    func(count int)
	limiter      *rate.Limiter
	logger       aisen.DiagnosticLogger
}

// WithQueueSize sets the maximum number of queued envelopes (default: 1000).
func WithQueueSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithFlushInterval sets how often Flush checks whether the queue has drained (default: 10ms).
func WithFlushInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithOnDropped sets a callback invoked when envelopes are dropped due to
// queue overflow or rate limiting.
func WithOnDropped(fn func(count int)) Option {
	return func(c *config) {
		c.onDropped = fn
	}
}

// WithRateLimit admits at most perSecond envelopes per second with the given
// burst. Envelopes over the limit are dropped without being queued.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *config) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the diagnostic logger used for drops and background send failures.
func WithLogger(logger aisen.DiagnosticLogger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type queued struct {
	ctx      context.Context
	envelope *aisen.Envelope
}

// Transport wraps a transport with a bounded queue.
type Transport struct {
	inner        aisen.Transport
	queue        chan queued
	done         chan struct{}
	closeOnce    sync.Once
	closeMu      sync.RWMutex
	closed       bool
	wg           sync.WaitGroup
	pending      atomic.Int64
	pollInterval time.Duration
	onDropped    func(count int)
	limiter      *rate.Limiter
	logger       aisen.DiagnosticLogger
}

var _ aisen.Transport = (*Transport)(nil)

// New wraps inner with a bounded queue for async sends.
// SendEnvelope returns immediately with a queued Response; envelopes are sent
// in the background. When the queue is full, the oldest envelope is dropped to make room.
func New(inner aisen.Transport, opts ...Option) *Transport {
	cfg := &config{
		queueSize:    1000,
		pollInterval: 10 * time.Millisecond,
		logger:       aisen.NopLogger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	t := &Transport{
		inner:        inner,
		queue:        make(chan queued, cfg.queueSize),
		done:         make(chan struct{}),
		pollInterval: cfg.pollInterval,
		onDropped:    cfg.onDropped,
		limiter:      cfg.limiter,
		logger:       cfg.logger,
	}

	t.wg.Add(1)
	go t.processLoop()

	return t
}

// processLoop drains the queue and sends to the inner transport.
func (t *Transport) processLoop() {
	defer t.wg.Done()
	for {
		select {
		case item := <-t.queue:
			t.send(item)
		case <-t.done:
			// Drain remaining envelopes
			for {
				select {
				case item := <-t.queue:
					t.send(item)
				default:
					return
				}
			}
		}
	}
}

func (t *Transport) send(item queued) {
	defer t.pending.Add(-1)

	// Rejections are logged by the inner transport
	if _, err := t.inner.SendEnvelope(item.ctx, item.envelope); err != nil {
		id, _ := item.envelope.EventID()
		t.logger.Log(aisen.LevelError, err, "Failed to send envelope {0}.", id)
	}
}

// SendEnvelope enqueues an envelope for async sending and returns immediately.
// The caller's cancellation does not apply to the background send; context
// values are kept.
func (t *Transport) SendEnvelope(ctx context.Context, envelope *aisen.Envelope) (aisen.Response, error) {
	id, _ := envelope.EventID()

	t.closeMu.RLock()
	defer t.closeMu.RUnlock()
	if t.closed {
		return aisen.Response{EventID: id}, ErrTransportClosed
	}

	if t.limiter != nil && !t.limiter.Allow() {
		t.dropped(id, "rate limit exceeded")
		return aisen.Response{Status: aisen.StatusDropped, EventID: id}, nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	item := queued{ctx: context.WithoutCancel(ctx), envelope: envelope}

	t.pending.Add(1)
	// Try to enqueue
	select {
	case t.queue <- item:
		return aisen.Response{Status: aisen.StatusQueued, EventID: id}, nil
	default:
		// Queue is full - drop oldest and enqueue new
		if t.dropOldestAndEnqueue(item) {
			return aisen.Response{Status: aisen.StatusQueued, EventID: id}, nil
		}
		return aisen.Response{Status: aisen.StatusDropped, EventID: id}, nil
	}
}

// dropOldestAndEnqueue drops the oldest envelope and enqueues item.
// It reports whether item was enqueued.
func (t *Transport) dropOldestAndEnqueue(item queued) bool {
	// Try to read (drop) one envelope from the queue
	select {
	case old := <-t.queue:
		t.pending.Add(-1)
		oldID, _ := old.envelope.EventID()
		t.dropped(oldID, "queue full")
	default:
		// Queue was emptied by processor, try again
	}

	// Now try to enqueue again
	select {
	case t.queue <- item:
		return true
	default:
		// Still full, just drop the new envelope
		t.pending.Add(-1)
		id, _ := item.envelope.EventID()
		t.dropped(id, "queue full")
		return false
	}
}

func (t *Transport) dropped(id aisen.EventID, reason string) {
	t.logger.Log(aisen.LevelWarning, nil, "Dropped envelope {0}: {1}.", id, reason)
	if t.onDropped != nil {
		t.onDropped(1)
	}
}

// Pending returns the number of envelopes queued or being sent.
func (t *Transport) Pending() int {
	return int(t.pending.Load())
}

// Flush blocks until all queued envelopes are sent, then flushes the inner transport.
func (t *Transport) Flush(ctx context.Context) error {
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		if t.pending.Load() == 0 {
			return t.inner.Flush(ctx)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close stops accepting envelopes, sends the queued ones and closes the inner transport.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.closeMu.Lock()
		t.closed = true
		t.closeMu.Unlock()

		// Signal done and wait for drain
		close(t.done)
		t.wg.Wait()
	})

	return t.inner.Close()
}

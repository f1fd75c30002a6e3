// hub.go is the entry point of the SDK: it owns the client and the scope
// stacks of every logical chain started from it.

package aisen

import (
	"context"
	"errors"
	"fmt"
)

// ErrNilError is returned by CaptureException when given a nil error.
var ErrNilError = errors.New("aisen: nil error")

// ErrNoTransport is returned by NewHub when a DSN is configured without a transport.
var ErrNoTransport = errors.New("aisen: DSN configured without a transport")

// Hub binds a Client to per-chain scope stacks.
//
// Each logical chain of execution is identified by the stack carried in its
// context.Context. Contexts that carry no stack share the hub's root chain.
// Use Fork before handing a context to another goroutine so that scopes pushed
// there do not leak back into the parent chain. Goroutines that push scopes on
// an unforked context all push onto the root chain.
//
// A Hub is safe for concurrent use.
type Hub struct {
	cfg    *hubConfig
	client *defaultClient
	root   *ScopeStack
}

// NewHub creates a Hub. The hub is disabled when neither a DSN nor a transport
// is configured; every capture call then returns DisabledResponse without
// touching the transport.
func NewHub(opts ...Option) (*Hub, error) {
	cfg := defaultHubConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.dsn != nil && cfg.transport == nil {
		return nil, ErrNoTransport
	}

	enabled := cfg.dsn != nil || cfg.transport != nil
	h := &Hub{
		cfg:    cfg,
		client: newClient(cfg, enabled),
		root:   NewScopeStack(NewScope(cfg.maxBreadcrumbs), cfg.logger),
	}

	if enabled {
		cfg.logger.Log(LevelDebug, nil, "Hub enabled. Release: {0}. Environment: {1}.", cfg.release, cfg.environment)
	} else {
		cfg.logger.Log(LevelInfo, nil, "No DSN configured. Events will not be sent.")
	}
	return h, nil
}

// IsEnabled reports whether captured events are sent.
func (h *Hub) IsEnabled() bool {
	return h.client.IsEnabled()
}

// Client returns the hub's client.
func (h *Hub) Client() Client {
	return h.client
}

// Logger returns the hub's diagnostic logger.
func (h *Hub) Logger() DiagnosticLogger {
	return h.cfg.logger
}

func (h *Hub) stack(ctx context.Context) *ScopeStack {
	if stack, ok := stackFromContext(ctx, h); ok {
		return stack
	}
	return h.root
}

// Fork returns a context carrying a new chain whose bottom scope is a copy of
// ctx's current scope. Scopes pushed on the returned chain are invisible to
// ctx and vice versa.
func (h *Hub) Fork(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return withStack(ctx, h, h.stack(ctx).Fork())
}

// Go runs fn in a new goroutine on a forked chain.
func (h *Hub) Go(ctx context.Context, fn func(ctx context.Context)) {
	forked := h.Fork(ctx)
	go fn(forked)
}

// PushScope pushes a copy of the current scope on ctx's chain.
// Release the returned handle to restore the previous scope.
//
// Goroutines that share a chain share its stack: concurrent pushes interleave
// and releases fail with ErrScopeOrder. Call Fork, or start the goroutine with
// Go, before fanning out; a context that was never forked is on the root chain.
func (h *Hub) PushScope(ctx context.Context) *ScopeHandle {
	return h.PushScopeWithState(ctx, nil)
}

// PushScopeWithState pushes a copy of the current scope carrying state.
func (h *Hub) PushScopeWithState(ctx context.Context, state any) *ScopeHandle {
	return h.stack(ctx).Push(state)
}

// ConfigureScope applies fn to the current scope of ctx's chain.
func (h *Hub) ConfigureScope(ctx context.Context, fn func(*Scope)) {
	if fn == nil {
		return
	}
	h.stack(ctx).Configure(fn)
}

// CurrentScope returns a snapshot of the current scope of ctx's chain.
func (h *Hub) CurrentScope(ctx context.Context) *Scope {
	return h.stack(ctx).Current()
}

// ScopeDepth returns the number of scopes on ctx's chain, including the bottom one.
func (h *Hub) ScopeDepth(ctx context.Context) int {
	return h.stack(ctx).Depth()
}

// AddBreadcrumb records a breadcrumb on the current scope of ctx's chain.
// It is a no-op when the hub is disabled.
func (h *Hub) AddBreadcrumb(ctx context.Context, message string, opts BreadcrumbOptions) error {
	if !h.IsEnabled() {
		return nil
	}
	crumb, err := NewBreadcrumb(h.cfg.now(), message, opts)
	if err != nil {
		return err
	}
	h.stack(ctx).Configure(func(s *Scope) {
		s.AddBreadcrumb(crumb)
	})
	return nil
}

// CaptureEvent sends event with the current scope of ctx's chain.
// event is not modified.
func (h *Hub) CaptureEvent(ctx context.Context, event *Event) (Response, error) {
	if !h.IsEnabled() {
		return DisabledResponse, nil
	}
	return h.client.CaptureEvent(ctx, event, h.stack(ctx).Current())
}

// CaptureEventFunc sends the event produced by fn. fn is not called when the
// hub is disabled. A nil fn yields ErrNilEvent.
func (h *Hub) CaptureEventFunc(ctx context.Context, fn func() *Event) (Response, error) {
	if !h.IsEnabled() {
		return DisabledResponse, nil
	}
	if fn == nil {
		return Response{}, ErrNilEvent
	}
	return h.client.CaptureEvent(ctx, fn(), h.stack(ctx).Current())
}

// CaptureEventFrom sends the event produced by fn with ctx. Errors from fn are
// returned wrapped and nothing is sent. fn is not called when the hub is disabled.
// A nil fn yields ErrNilEvent.
func (h *Hub) CaptureEventFrom(ctx context.Context, fn func(context.Context) (*Event, error)) (Response, error) {
	if !h.IsEnabled() {
		return DisabledResponse, nil
	}
	if fn == nil {
		return Response{}, ErrNilEvent
	}
	scope := h.stack(ctx).Current()
	event, err := fn(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("produce event: %w", err)
	}
	return h.client.CaptureEvent(ctx, event, scope)
}

// CaptureEventAsync snapshots the current scope, then produces and sends the
// event on a new goroutine. The returned channel receives exactly one result.
func (h *Hub) CaptureEventAsync(ctx context.Context, fn func(context.Context) (*Event, error)) <-chan CaptureResult {
	if !h.IsEnabled() {
		return resultOf(DisabledResponse, nil)
	}
	if fn == nil {
		return resultOf(Response{}, ErrNilEvent)
	}
	scope := h.stack(ctx).Current()
	return h.async(func() (Response, error) {
		event, err := fn(ctx)
		if err != nil {
			return Response{}, fmt.Errorf("produce event: %w", err)
		}
		return h.client.CaptureEvent(ctx, event, scope)
	})
}

// CaptureException sends an error event built from err and its wrapped chain.
func (h *Hub) CaptureException(ctx context.Context, err error) (Response, error) {
	if !h.IsEnabled() {
		return DisabledResponse, nil
	}
	if err == nil {
		return Response{}, ErrNilError
	}
	event := NewExceptionEvent(err)
	event.Timestamp = h.cfg.now().UTC()
	return h.client.CaptureEvent(ctx, event, h.stack(ctx).Current())
}

// CaptureExceptionAsync is CaptureException on a new goroutine. The stack
// trace and scope are taken synchronously.
func (h *Hub) CaptureExceptionAsync(ctx context.Context, err error) <-chan CaptureResult {
	if !h.IsEnabled() {
		return resultOf(DisabledResponse, nil)
	}
	if err == nil {
		return resultOf(Response{}, ErrNilError)
	}
	event := NewExceptionEvent(err)
	event.Timestamp = h.cfg.now().UTC()
	scope := h.stack(ctx).Current()
	return h.async(func() (Response, error) {
		return h.client.CaptureEvent(ctx, event, scope)
	})
}

// CaptureMessage sends a message event at level.
func (h *Hub) CaptureMessage(ctx context.Context, message string, level Level) (Response, error) {
	if !h.IsEnabled() {
		return DisabledResponse, nil
	}
	event := NewMessageEvent(message, level)
	event.Timestamp = h.cfg.now().UTC()
	return h.client.CaptureEvent(ctx, event, h.stack(ctx).Current())
}

// WithClientAndScope calls fn with the client and a snapshot of the current
// scope and returns its result. fn is not called when the hub is disabled.
func (h *Hub) WithClientAndScope(ctx context.Context, fn func(ctx context.Context, client Client, scope *Scope) (Response, error)) (Response, error) {
	if !h.IsEnabled() {
		return DisabledResponse, nil
	}
	return fn(ctx, h.client, h.stack(ctx).Current())
}

// WithClientAndScopeAsync is WithClientAndScope on a new goroutine. The scope
// is snapshotted before returning.
func (h *Hub) WithClientAndScopeAsync(ctx context.Context, fn func(ctx context.Context, client Client, scope *Scope) (Response, error)) <-chan CaptureResult {
	if !h.IsEnabled() {
		return resultOf(DisabledResponse, nil)
	}
	scope := h.stack(ctx).Current()
	return h.async(func() (Response, error) {
		return fn(ctx, h.client, scope)
	})
}

// Flush delivers buffered envelopes, blocking until done or ctx is cancelled.
func (h *Hub) Flush(ctx context.Context) error {
	return h.client.Flush(ctx)
}

// Close closes the transport. The hub must not be used afterwards.
func (h *Hub) Close() error {
	return h.client.Close()
}

func (h *Hub) async(fn func() (Response, error)) <-chan CaptureResult {
	ch := make(chan CaptureResult, 1)
	go func() {
		defer close(ch)
		defer func() {
			if r := recover(); r != nil {
				h.cfg.logger.Log(LevelError, nil, "Async capture panicked: {0}", r)
				ch <- CaptureResult{Err: fmt.Errorf("async capture panicked: %v", r)}
			}
		}()
		resp, err := fn()
		ch <- CaptureResult{Response: resp, Err: err}
	}()
	return ch
}

func resultOf(resp Response, err error) <-chan CaptureResult {
	ch := make(chan CaptureResult, 1)
	ch <- CaptureResult{Response: resp, Err: err}
	close(ch)
	return ch
}

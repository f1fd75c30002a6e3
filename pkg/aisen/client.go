// client.go merges scope data into events, builds envelopes and hands them to the transport.

package aisen

import (
	"context"
	"errors"
	"os"
	"time"
)

// ErrNilEvent is returned when a capture call is given, or produces, no event.
var ErrNilEvent = errors.New("aisen: nil event")

// Client sends events with explicit scope data.
type Client interface {
	// IsEnabled reports whether events are sent at all.
	IsEnabled() bool

	// CaptureEvent merges scope into a copy of event and sends it.
	// scope may be nil. event is not modified.
	CaptureEvent(ctx context.Context, event *Event, scope *Scope) (Response, error)

	// Flush ensures any buffered envelopes are delivered.
	Flush(ctx context.Context) error

	// Close releases the transport.
	Close() error
}

// defaultClient is the standard Client implementation.
type defaultClient struct {
	cfg        *hubConfig
	transport  Transport
	enabled    bool
	serverName string
	startTime  time.Time
}

func newClient(cfg *hubConfig, enabled bool) *defaultClient {
	transport := cfg.transport
	// Default to a noop transport if none provided
	if transport == nil {
		transport = &noopTransportInternal{}
	}

	serverName := cfg.serverName
	if serverName == "" {
		serverName, _ = os.Hostname()
	}

	return &defaultClient{
		cfg:        cfg,
		transport:  transport,
		enabled:    enabled,
		serverName: serverName,
		startTime:  cfg.now(),
	}
}

func (c *defaultClient) IsEnabled() bool {
	return c.enabled
}

// CaptureEvent prepares the event, builds its envelope and sends it.
func (c *defaultClient) CaptureEvent(ctx context.Context, event *Event, scope *Scope) (Response, error) {
	if !c.enabled {
		return DisabledResponse, nil
	}
	if event == nil {
		return Response{}, ErrNilEvent
	}

	prepared, id := c.prepare(ctx, event, scope)
	if prepared == nil {
		c.cfg.logger.Log(LevelDebug, nil, "Event {0} dropped by before-send hook.", id)
		return Response{Status: StatusDropped, EventID: id}, nil
	}
	id = prepared.EventID

	envelope, err := NewEventEnvelope(prepared)
	if err != nil {
		c.cfg.logger.Log(LevelError, err, "Failed to serialize event {0}.", id)
		return Response{EventID: id}, err
	}

	resp, err := c.transport.SendEnvelope(ctx, envelope)
	if resp.EventID == "" {
		resp.EventID = id
	}
	if err != nil {
		c.cfg.logger.Log(LevelError, err, "Failed to send envelope {0}.", id)
		return resp, err
	}
	return resp, nil
}

// prepare returns the merged, processed copy of event, or nil if the
// before-send hook dropped it, together with the event ID in both cases.
func (c *defaultClient) prepare(ctx context.Context, event *Event, scope *Scope) (*Event, EventID) {
	ev := event.clone()

	// Generate EventID if not set
	if ev.EventID == "" {
		ev.EventID = NewEventID()
	}

	// Set timestamp if not set
	if ev.Timestamp.IsZero() {
		ev.Timestamp = c.cfg.now().UTC()
	}

	if scope != nil {
		c.applyScope(ev, scope)
	}

	if ev.Level == "" {
		ev.Level = LevelInfo
		if len(ev.Exception) > 0 {
			ev.Level = LevelError
		}
	}
	if ev.Platform == "" {
		ev.Platform = "go"
	}
	if ev.Release == "" {
		ev.Release = c.cfg.release
	}
	if ev.Environment == "" {
		ev.Environment = c.cfg.environment
	}
	if ev.ServerName == "" {
		ev.ServerName = c.serverName
	}
	if ev.SDK == nil {
		ev.SDK = &SDKInfo{Name: SDKName, Version: SDKVersion}
	}

	if contextID, ok := ContextIDFromContext(ctx); ok {
		setContextIfAbsent(ev, CXDBContextName, cxdbContext(contextID))
	}
	if tc := traceContext(ctx); tc != nil {
		setContextIfAbsent(ev, TraceContextName, tc)
	}
	if c.cfg.systemState {
		for name, value := range CaptureSystemState(c.startTime).Contexts() {
			setContextIfAbsent(ev, name, value)
		}
	}

	// Apply scrubbing if configured
	if c.cfg.scrubber != nil {
		c.cfg.scrubber.ScrubEvent(ev)
	}

	if c.cfg.fingerprinting && len(ev.Fingerprint) == 0 {
		ev.Fingerprint = []string{Fingerprint(ev)}
	}

	id := ev.EventID
	if c.cfg.beforeSend != nil {
		ev = c.cfg.beforeSend(ev)
		if ev != nil && ev.EventID == "" {
			ev.EventID = id
		}
	}
	return ev, id
}

// applyScope merges scope into ev. Values already on the event win over the
// scope's; the scope's level override wins over the event level.
func (c *defaultClient) applyScope(ev *Event, scope *Scope) {
	if len(scope.tags) > 0 {
		tags := make(map[string]string, len(scope.tags)+len(ev.Tags))
		for k, v := range scope.tags {
			tags[k] = v
		}
		for k, v := range ev.Tags {
			tags[k] = v
		}
		ev.Tags = tags
	}

	if len(scope.extra) > 0 {
		extra := make(map[string]any, len(scope.extra)+len(ev.Extra))
		for k, v := range scope.extra {
			extra[k] = v
		}
		for k, v := range ev.Extra {
			extra[k] = v
		}
		ev.Extra = extra
	}

	for name, value := range scope.contexts {
		setContextIfAbsent(ev, name, copyAnyMap(value))
	}

	if ev.User == nil {
		ev.User = scope.user.clone()
	}

	if scope.level != "" {
		ev.Level = scope.level
	}

	if len(ev.Fingerprint) == 0 && len(scope.fingerprint) > 0 {
		ev.Fingerprint = append([]string(nil), scope.fingerprint...)
	}

	if scope.breadcrumbs.Len() > 0 {
		crumbs := append(scope.breadcrumbs.All(), ev.Breadcrumbs...)
		if max := c.cfg.maxBreadcrumbs; len(crumbs) > max {
			crumbs = crumbs[len(crumbs)-max:]
		}
		ev.Breadcrumbs = crumbs
	}
}

func setContextIfAbsent(ev *Event, name string, value map[string]any) {
	if ev.Contexts == nil {
		ev.Contexts = make(map[string]map[string]any)
	}
	if _, ok := ev.Contexts[name]; !ok {
		ev.Contexts[name] = value
	}
}

// Flush delegates to the transport.
func (c *defaultClient) Flush(ctx context.Context) error {
	return c.transport.Flush(ctx)
}

// Close delegates to the transport.
func (c *defaultClient) Close() error {
	return c.transport.Close()
}

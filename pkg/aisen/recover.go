// recover.go provides panic recovery for goroutines, HTTP handlers and other
// code that is not wrapped by an adapter.

package aisen

import "context"

// Recover captures a panic with the current scope of ctx's chain and returns
// the recovered value. Recover does NOT re-panic after capturing.
//
// Recover must be deferred directly; called from inside a deferred closure it
// sees no panic:
//
//	func handler(ctx context.Context) {
//	    defer hub.Recover(ctx)
//	    // code that might panic
//	}
//
// To act on the recovered value, recover it yourself and use CapturePanic:
//
//	func handler(ctx context.Context) (err error) {
//	    defer func() {
//	        if r := recover(); r != nil {
//	            _, _ = hub.CapturePanic(ctx, r)
//	            err = fmt.Errorf("panic: %v", r)
//	        }
//	    }()
//	    // code that might panic
//	}
func (h *Hub) Recover(ctx context.Context) any {
	r := recover()
	if r == nil {
		return nil
	}

	// Capture errors are logged by the client; the caller is not affected.
	_, _ = h.CapturePanic(ctx, r)
	return r
}

// CapturePanic sends a fatal event for a recovered panic value.
func (h *Hub) CapturePanic(ctx context.Context, recovered any) (Response, error) {
	if !h.IsEnabled() {
		return DisabledResponse, nil
	}
	event := NewPanicEvent(recovered)
	event.Timestamp = h.cfg.now().UTC()
	return h.client.CaptureEvent(ctx, event, h.stack(ctx).Current())
}

// NewPanicEvent creates a fatal event for a recovered panic value. The stack
// trace starts at the caller.
func NewPanicEvent(recovered any) *Event {
	event := NewEvent()
	event.Level = LevelFatal
	event.Exception = []Exception{exceptionFromPanic(recovered, 1)}
	return event
}

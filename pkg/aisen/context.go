// context.go provides utilities for propagating scope stacks and cxdb context IDs
// through Go context.Context.

package aisen

import "context"

// Context key types (unexported to avoid collisions)
type stackKey struct {
	hub *Hub
}
type contextIDKey struct{}

// contextIDSet is used to distinguish "zero value" from "not set"
type contextIDSet struct {
	id uint64
}

// withStack returns a context carrying the scope stack of hub's chain.
func withStack(ctx context.Context, hub *Hub, stack *ScopeStack) context.Context {
	return context.WithValue(ctx, stackKey{hub: hub}, stack)
}

// stackFromContext extracts hub's scope stack from context.
func stackFromContext(ctx context.Context, hub *Hub) (*ScopeStack, bool) {
	if ctx == nil {
		return nil, false
	}
	stack, ok := ctx.Value(stackKey{hub: hub}).(*ScopeStack)
	return stack, ok && stack != nil
}

// WithContextID returns a context with the cxdb context ID attached.
// Events captured with this context are linked to that conversation.
func WithContextID(ctx context.Context, contextID uint64) context.Context {
	return context.WithValue(ctx, contextIDKey{}, contextIDSet{id: contextID})
}

// ContextIDFromContext extracts the cxdb context ID from context.
// Returns 0 and false if not set.
func ContextIDFromContext(ctx context.Context) (uint64, bool) {
	if ctx == nil {
		return 0, false
	}
	v := ctx.Value(contextIDKey{})
	if v == nil {
		return 0, false
	}
	set, ok := v.(contextIDSet)
	if !ok {
		return 0, false
	}
	return set.id, true
}

// ContextIDProvider is an optional interface that session implementations can
// satisfy to enable automatic context linkage for events.
//
// The ai-agents-sdk CXDBSession already implements this interface via its
// ContextID() method.
type ContextIDProvider interface {
	ContextID(ctx context.Context) (uint64, error)
}

// CXDBContextName is the event context that carries the cxdb context ID.
const CXDBContextName = "cxdb"

// cxdbContext builds the "cxdb" event context for a context ID.
func cxdbContext(contextID uint64) map[string]any {
	return map[string]any{"context_id": contextID}
}

// stack.go implements the per-chain stack of Scope frames.

package aisen

import (
	"errors"
	"fmt"
	"sync"
)

// ErrScopeOrder is returned when a ScopeHandle is released while a scope
// pushed after it is still active.
var ErrScopeOrder = errors.New("aisen: scope released out of order")

// ScopeStack is the stack of Scope frames of one logical chain.
// The bottom frame always exists and cannot be popped.
// ScopeStack is safe for concurrent use.
type ScopeStack struct {
	mu     sync.Mutex
	frames []*scopeFrame
	logger DiagnosticLogger
}

type scopeFrame struct {
	scope  *Scope
	handle *ScopeHandle
}

// NewScopeStack creates a stack whose bottom frame is root.
func NewScopeStack(root *Scope, logger DiagnosticLogger) *ScopeStack {
	if logger == nil {
		logger = NopLogger{}
	}
	return &ScopeStack{
		frames: []*scopeFrame{{scope: root}},
		logger: logger,
	}
}

// Push installs a copy of the current scope, carrying state, as the new top
// frame. Releasing the returned handle restores the previous top.
func (s *ScopeStack) Push(state any) *ScopeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	child := s.top().scope.Clone()
	child.state = state

	handle := &ScopeHandle{stack: s, depth: len(s.frames)}
	s.frames = append(s.frames, &scopeFrame{scope: child, handle: handle})
	return handle
}

// Configure applies fn to the current scope in place.
func (s *ScopeStack) Configure(fn func(*Scope)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.top().scope)
}

// Current returns a snapshot of the current scope.
func (s *ScopeStack) Current() *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.top().scope.Clone()
}

// Depth returns the number of frames, including the bottom frame.
func (s *ScopeStack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Fork returns a new stack whose bottom frame is a copy of the current scope.
func (s *ScopeStack) Fork() *ScopeStack {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &ScopeStack{
		frames: []*scopeFrame{{scope: s.top().scope.Clone()}},
		logger: s.logger,
	}
}

func (s *ScopeStack) top() *scopeFrame {
	return s.frames[len(s.frames)-1]
}

func (s *ScopeStack) release(h *ScopeHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.released {
		return nil
	}

	if s.top().handle != h {
		s.logger.Log(LevelError, nil,
			"Scope released out of order. Released depth: {0}. Current depth: {1}.",
			h.depth, len(s.frames)-1)
		return fmt.Errorf("release scope at depth %d with depth %d active: %w", h.depth, len(s.frames)-1, ErrScopeOrder)
	}

	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
	h.released = true
	return nil
}

// ScopeHandle restores the previous scope when released.
//
// Use it with defer so the scope is popped on every exit path:
//
//	handle := hub.PushScope(ctx)
//	defer handle.Release()
type ScopeHandle struct {
	stack    *ScopeStack
	depth    int
	released bool // guarded by stack.mu
}

// Release pops the scope pushed with this handle. Releasing twice is a no-op.
// Releasing while a later-pushed scope is still active leaves the stack
// untouched and returns an error wrapping ErrScopeOrder.
func (h *ScopeHandle) Release() error {
	if h == nil || h.stack == nil {
		return nil
	}
	return h.stack.release(h)
}

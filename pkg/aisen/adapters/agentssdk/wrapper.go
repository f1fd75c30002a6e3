// wrapper.go implements WrappedRunner that wraps agents.Runner to capture errors and panics.
// This is the PRIMARY error capture mechanism - hooks provide breadcrumbs and tags only.

package agentssdk

import (
	"context"

	"github.com/google/uuid"
	"github.com/strongdm/ai-agents-sdk/pkg/agents"

	"github.com/strongdm/aisen/pkg/aisen"
)

// Scope tags set for every run.
const (
	RunIDTag = "run_id"
	AgentTag = "agent"
)

// Runner is the subset of *agents.Runner that WrappedRunner drives.
type Runner interface {
	Run(ctx context.Context, agent *agents.Agent, input string, session agents.Session, cfg *agents.RunConfig) (agents.RunResult, error)
	RunOnce(ctx context.Context, agent *agents.Agent, input string, cfg *agents.RunConfig) (agents.RunResult, error)
	RunStream(ctx context.Context, agent *agents.Agent, input string, session agents.Session, cfg *agents.RunConfig) (*agents.StreamingRun, error)
}

var _ Runner = (*agents.Runner)(nil)

// WrappedRunner wraps a Runner to capture errors and panics.
//
// Every run gets its own chain forked from the caller's context, with a
// pushed scope whose state is the run ID. Hooks record breadcrumbs and tags on
// that scope, so a captured error carries the trail of the run that produced it.
type WrappedRunner struct {
	inner  Runner
	hub    *aisen.Hub
	logger aisen.DiagnosticLogger
}

// NewWrappedRunner creates a new WrappedRunner that wraps the given Runner.
// Errors and panics are captured through hub.
func NewWrappedRunner(inner Runner, hub *aisen.Hub, opts ...WrapOption) *WrappedRunner {
	w := &WrappedRunner{
		inner:  inner,
		hub:    hub,
		logger: hub.Logger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run executes the agent with the given input and session, capturing any errors or panics.
func (w *WrappedRunner) Run(ctx context.Context, agent *agents.Agent, input string, session agents.Session, cfg *agents.RunConfig) (agents.RunResult, error) {
	ctx, handle := w.startRun(ctx, agent, session)
	defer handle.Release()

	// Capture panics
	defer w.capturePanic(ctx)

	result, err := w.inner.Run(ctx, agent, input, session, w.wrapRunConfig(cfg))
	if err != nil {
		w.captureError(ctx, err)
	}
	return result, err
}

// RunOnce executes a single turn of the agent, capturing any errors or panics.
func (w *WrappedRunner) RunOnce(ctx context.Context, agent *agents.Agent, input string, cfg *agents.RunConfig) (agents.RunResult, error) {
	// No session in RunOnce; the context ID can only come from ctx
	ctx, handle := w.startRun(ctx, agent, nil)
	defer handle.Release()

	defer w.capturePanic(ctx)

	result, err := w.inner.RunOnce(ctx, agent, input, w.wrapRunConfig(cfg))
	if err != nil {
		w.captureError(ctx, err)
	}
	return result, err
}

// RunStream starts a streaming run, capturing any errors at the start.
// Errors during streaming are not captured by this wrapper. The run scope is
// not released because the stream outlives this call; the chain is private
// to the run.
func (w *WrappedRunner) RunStream(ctx context.Context, agent *agents.Agent, input string, session agents.Session, cfg *agents.RunConfig) (*agents.StreamingRun, error) {
	ctx, _ = w.startRun(ctx, agent, session)

	defer w.capturePanic(ctx)

	stream, err := w.inner.RunStream(ctx, agent, input, session, w.wrapRunConfig(cfg))
	if err != nil {
		w.captureError(ctx, err)
	}
	return stream, err
}

// startRun forks a chain for the run and pushes the run scope.
func (w *WrappedRunner) startRun(ctx context.Context, agent *agents.Agent, session any) (context.Context, *aisen.ScopeHandle) {
	ctx = w.hub.Fork(ctx)

	if id, ok := w.extractContextID(ctx, session); ok {
		ctx = aisen.WithContextID(ctx, id)
	}

	runID := uuid.New().String()
	handle := w.hub.PushScopeWithState(ctx, runID)
	w.hub.ConfigureScope(ctx, func(s *aisen.Scope) {
		s.SetTag(RunIDTag, runID)
		if agent != nil {
			s.SetTag(AgentTag, agent.Name())
		}
	})
	return ctx, handle
}

// extractContextID extracts the context ID from a session if it implements ContextIDProvider.
func (w *WrappedRunner) extractContextID(ctx context.Context, session any) (uint64, bool) {
	if provider, ok := session.(aisen.ContextIDProvider); ok {
		id, err := provider.ContextID(ctx)
		if err == nil {
			return id, true
		}
		w.logger.Log(aisen.LevelDebug, err, "Session did not provide a context ID.")
	}
	// Fallback to context propagation when session cannot provide a context ID.
	return aisen.ContextIDFromContext(ctx)
}

// wrapRunConfig clones cfg and wraps hooks with HookAdapter.
func (w *WrappedRunner) wrapRunConfig(cfg *agents.RunConfig) *agents.RunConfig {
	var cloned agents.RunConfig
	if cfg != nil {
		cloned = *cfg
	}
	cloned.Hooks = NewHookAdapter(w.hub, cloned.Hooks)
	return &cloned
}

// captureError sends an error event with the run scope. Capture failures are
// logged by the hub and never replace the run error.
func (w *WrappedRunner) captureError(ctx context.Context, err error) {
	if _, captureErr := w.hub.CaptureEvent(ctx, buildErrorEvent(err)); captureErr != nil {
		w.logger.Log(aisen.LevelWarning, captureErr, "Failed to capture run error.")
	}
}

// capturePanic recovers from a panic, captures it, and re-panics.
func (w *WrappedRunner) capturePanic(ctx context.Context) {
	if r := recover(); r != nil {
		if _, err := w.hub.CaptureEvent(ctx, buildPanicEvent(r)); err != nil {
			w.logger.Log(aisen.LevelWarning, err, "Failed to capture run panic.")
		}
		panic(r)
	}
}

// Inner returns the underlying Runner for advanced usage.
func (w *WrappedRunner) Inner() Runner {
	return w.inner
}

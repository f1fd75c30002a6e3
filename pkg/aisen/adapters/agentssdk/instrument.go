// instrument.go provides the Instrument function for convenient runner setup.
// This is the recommended entry point for integrating aisen with ai-agents-sdk.

package agentssdk

import (
	"github.com/strongdm/ai-agents-sdk/pkg/agents"

	"github.com/strongdm/aisen/pkg/aisen"
)

// WrapOption configures a WrappedRunner.
type WrapOption func(*WrappedRunner)

// WithLogger sets the diagnostic logger for the wrapper.
// Defaults to the hub's logger.
func WithLogger(logger aisen.DiagnosticLogger) WrapOption {
	return func(w *WrappedRunner) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Instrument wraps a Runner with error and panic capture.
// This is the recommended entry point for integrating aisen with ai-agents-sdk.
//
// Example:
//
//	hub, _ := aisen.NewHub(aisen.WithDSN(dsn), aisen.WithTransport(transport))
//	runner := agents.NewRunner(client)
//	wrapped := agentssdk.Instrument(runner, hub)
//	result, err := wrapped.Run(ctx, agent, input, session, nil)
func Instrument(baseRunner *agents.Runner, hub *aisen.Hub, opts ...WrapOption) *WrappedRunner {
	return NewWrappedRunner(baseRunner, hub, opts...)
}

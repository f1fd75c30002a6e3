// builders.go provides helper functions to build events from run errors and panics.

package agentssdk

import (
	"context"
	"errors"
	"strings"

	"github.com/strongdm/aisen/pkg/aisen"
)

// ErrorTypeTag is the tag carrying the classification of a captured run error.
const ErrorTypeTag = "error_type"

// buildErrorEvent creates an error event from a run error.
// The stack trace starts at the caller.
func buildErrorEvent(err error) *aisen.Event {
	event := aisen.NewEvent()
	event.Level = aisen.LevelError
	event.Exception = aisen.ExceptionsFromError(err, 1)
	event.Tags = map[string]string{ErrorTypeTag: classifyError(err)}
	return event
}

// buildPanicEvent creates a fatal event from a recovered panic value.
func buildPanicEvent(recovered any) *aisen.Event {
	event := aisen.NewPanicEvent(recovered)
	event.Tags = map[string]string{ErrorTypeTag: "panic"}
	return event
}

// classifyError determines the error type based on the error.
func classifyError(err error) string {
	if err == nil {
		return "error"
	}

	// Check for context errors
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	// Guardrail errors are recognized by message; the agents SDK has no error type for them.
	if containsGuardrailPattern(err.Error()) {
		return "guardrail"
	}

	return "error"
}

var guardrailPatterns = []string{
	"guardrail",
	"content policy",
	"safety filter",
	"blocked by policy",
}

// containsGuardrailPattern checks if an error message indicates a guardrail violation.
func containsGuardrailPattern(msg string) bool {
	msg = strings.ToLower(msg)
	for _, p := range guardrailPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

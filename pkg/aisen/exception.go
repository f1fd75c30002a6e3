// exception.go converts Go errors and panics into event exceptions.

package aisen

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// maxErrorDepth bounds how far an Unwrap chain is followed.
const maxErrorDepth = 10

// Exception describes one error in an event's error chain.
type Exception struct {
	Type       string      `json:"type"`
	Value      string      `json:"value"`
	Module     string      `json:"module,omitempty"`
	Mechanism  *Mechanism  `json:"mechanism,omitempty"`
	Stacktrace *Stacktrace `json:"stacktrace,omitempty"`
}

// Mechanism describes how an exception was captured.
type Mechanism struct {
	Type    string `json:"type"`
	Handled *bool  `json:"handled,omitempty"`
}

// Stacktrace is a list of frames, outermost call first.
type Stacktrace struct {
	Frames []Frame `json:"frames"`
}

// Frame is a single stack frame.
type Frame struct {
	Function string `json:"function,omitempty"`
	Module   string `json:"module,omitempty"`
	Filename string `json:"filename,omitempty"`
	AbsPath  string `json:"abs_path,omitempty"`
	Lineno   int    `json:"lineno,omitempty"`
	InApp    bool   `json:"in_app"`
}

// ExceptionsFromError walks err's Unwrap chain and returns one Exception per
// error, root cause first. The outermost error gets a stack trace of the
// caller, skipping skip additional frames.
func ExceptionsFromError(err error, skip int) []Exception {
	if err == nil {
		return nil
	}

	var chain []Exception
	for current := err; current != nil && len(chain) < maxErrorDepth; current = errors.Unwrap(current) {
		chain = append(chain, Exception{
			Type:  fmt.Sprintf("%T", current),
			Value: current.Error(),
		})
	}

	chain[0].Stacktrace = NewStacktrace(skip + 1)

	// root cause first, outermost last
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// exceptionFromPanic builds an unhandled exception from a recovered value.
func exceptionFromPanic(recovered any, skip int) Exception {
	handled := false
	exc := Exception{
		Type:      "panic",
		Value:     formatRecovered(recovered),
		Mechanism: &Mechanism{Type: "panic", Handled: &handled},
	}
	if err, ok := recovered.(error); ok {
		exc.Type = fmt.Sprintf("%T", err)
	}
	exc.Stacktrace = NewStacktrace(skip + 1)
	return exc
}

// NewStacktrace captures the caller's stack, skipping skip additional frames.
func NewStacktrace(skip int) *Stacktrace {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return nil
	}

	var frames []Frame
	callers := runtime.CallersFrames(pcs[:n])
	for {
		f, more := callers.Next()
		if f.Function != "" {
			frames = append(frames, newFrame(f))
		}
		if !more {
			break
		}
	}
	if len(frames) == 0 {
		return nil
	}

	// Sentry expects the outermost call first
	for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
		frames[i], frames[j] = frames[j], frames[i]
	}
	return &Stacktrace{Frames: frames}
}

func newFrame(f runtime.Frame) Frame {
	module, function := splitFunctionName(f.Function)
	return Frame{
		Function: function,
		Module:   module,
		Filename: shortFilename(f.File),
		AbsPath:  f.File,
		Lineno:   f.Line,
		InApp:    isInApp(module),
	}
}

// splitFunctionName splits "github.com/x/y.(*T).Method" into
// "github.com/x/y" and "(*T).Method".
func splitFunctionName(name string) (string, string) {
	lastSlash := strings.LastIndex(name, "/")
	dot := strings.Index(name[lastSlash+1:], ".")
	if dot < 0 {
		return "", name
	}
	dot += lastSlash + 1
	return name[:dot], name[dot+1:]
}

func shortFilename(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func isInApp(module string) bool {
	if module == "main" {
		return true
	}
	if module == "" || !strings.Contains(module, ".") {
		// standard library packages have no dot in their first path element
		return false
	}
	return !strings.HasPrefix(module, "github.com/strongdm/aisen")
}

// formatRecovered formats a recovered panic value as a string.
func formatRecovered(recovered any) string {
	if recovered == nil {
		return "<nil>"
	}
	if err, ok := recovered.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", recovered)
}

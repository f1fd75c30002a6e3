// fingerprint.go generates stable hashes for grouping similar events.

package aisen

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Fingerprint generates a hash for grouping similar events.
// The fingerprint is based on:
//   - logger and the type of every exception in the chain
//   - the innermost 3 in-app frames of the outermost exception (module and function, normalized)
//   - the message, only when the event has no exception
//
// It ignores variable data like timestamps, event IDs, exception values,
// line numbers and closure indices.
func Fingerprint(event *Event) string {
	var parts []string
	parts = append(parts, event.Logger)

	for _, exc := range event.Exception {
		parts = append(parts, exc.Type)
	}

	if len(event.Exception) > 0 {
		outer := event.Exception[len(event.Exception)-1]
		parts = append(parts, normalizeFrames(outer.Stacktrace)...)
	} else {
		parts = append(parts, event.Message)
	}

	input := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(input))

	// Return hex-encoded first 16 bytes (32 hex chars)
	return hex.EncodeToString(hash[:16])
}

// closureSuffixPattern matches compiler-generated closure suffixes like ".func1" or ".func2.3".
var closureSuffixPattern = regexp.MustCompile(`\.func\d+(\.\d+)*$`)

// normalizeFrames returns up to 3 function names from the innermost frames,
// preferring in-app frames and stripping closure suffixes.
func normalizeFrames(trace *Stacktrace) []string {
	if trace == nil || len(trace.Frames) == 0 {
		return nil
	}

	collect := func(inAppOnly bool) []string {
		var frames []string
		// frames are stored outermost first; walk from the innermost
		for i := len(trace.Frames) - 1; i >= 0; i-- {
			f := trace.Frames[i]
			if inAppOnly && !f.InApp {
				continue
			}
			name := closureSuffixPattern.ReplaceAllString(f.Function, "")
			if name == "" {
				continue
			}
			if f.Module != "" {
				name = f.Module + "." + name
			}
			frames = append(frames, name)
			if len(frames) >= 3 {
				break
			}
		}
		return frames
	}

	if frames := collect(true); len(frames) > 0 {
		return frames
	}
	return collect(false)
}

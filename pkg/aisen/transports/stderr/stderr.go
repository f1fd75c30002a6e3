// Package stderr provides a transport that prints events to stderr in human-readable format.
// Useful for development and debugging.
package stderr

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/strongdm/aisen/pkg/aisen"
)

// Option configures the stderr transport.
type Option func(*config)

type config struct {
	verbose bool
	out     io.Writer
}

// WithVerbose enables full event details including stack traces.
func WithVerbose() Option {
	return func(c *config) {
		c.verbose = true
	}
}

// WithWriter redirects output away from os.Stderr.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.out = w
		}
	}
}

// Transport writes events in human-readable format.
type Transport struct {
	verbose bool

	mu  sync.Mutex
	out io.Writer
}

var _ aisen.Transport = (*Transport)(nil)

// New creates a transport that writes to stderr.
func New(opts ...Option) *Transport {
	cfg := &config{out: os.Stderr}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Transport{
		verbose: cfg.verbose,
		out:     cfg.out,
	}
}

// SendEnvelope formats and outputs the envelope's event.
func (t *Transport) SendEnvelope(ctx context.Context, envelope *aisen.Envelope) (aisen.Response, error) {
	id, _ := envelope.EventID()
	payload, ok := envelope.EventPayload()
	if !ok {
		return aisen.Response{Status: aisen.StatusDropped, EventID: id}, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := io.WriteString(t.out, t.format(payload)); err != nil {
		return aisen.Response{EventID: id}, fmt.Errorf("write event %s: %w", id, err)
	}
	return aisen.Response{Status: aisen.StatusSuccess, EventID: id}, nil
}

func (t *Transport) format(payload []byte) string {
	event := gjson.ParseBytes(payload)
	var b strings.Builder

	// Exceptions are root cause first; the outermost one names the event
	exceptions := event.Get("exception.values").Array()
	var outer gjson.Result
	if len(exceptions) > 0 {
		outer = exceptions[len(exceptions)-1]
	}

	// Format: [AISEN] <timestamp> <LEVEL> <type> in <operation> <tool> (agent: <agent>)
	title := outer.Get("type").String()
	if title == "" {
		title = "message"
	}
	parts := []string{fmt.Sprintf("[AISEN] %s %s %s",
		event.Get("timestamp").String(),
		strings.ToUpper(event.Get("level").String()),
		title)}
	if op := event.Get("tags.operation").String(); op != "" {
		parts = append(parts, "in "+op)
	}
	if tool := event.Get("tags.tool").String(); tool != "" {
		parts = append(parts, tool)
	}
	if agent := event.Get("tags.agent").String(); agent != "" {
		parts = append(parts, fmt.Sprintf("(agent: %s)", agent))
	}
	b.WriteString(strings.Join(parts, " "))
	b.WriteByte('\n')

	message := event.Get("message").String()
	if message == "" {
		message = outer.Get("value").String()
	}
	if message != "" {
		fmt.Fprintf(&b, "        Message: %s\n", message)
	}

	if fp := event.Get("fingerprint").Array(); len(fp) > 0 {
		values := make([]string, len(fp))
		for i, v := range fp {
			values[i] = v.String()
		}
		fmt.Fprintf(&b, "        Fingerprint: %s\n", strings.Join(values, ", "))
	}

	if cxdb := event.Get("contexts.cxdb"); cxdb.Exists() {
		if turn := cxdb.Get("turn_depth"); turn.Exists() {
			fmt.Fprintf(&b, "        Context: %d (turn %d)\n", cxdb.Get("context_id").Uint(), turn.Int())
		} else {
			fmt.Fprintf(&b, "        Context: %d\n", cxdb.Get("context_id").Uint())
		}
	}

	// Stack trace (only in verbose mode), innermost frame first
	if frames := outer.Get("stacktrace.frames").Array(); t.verbose && len(frames) > 0 {
		b.WriteString("        Stack trace:\n")
		for i := len(frames) - 1; i >= 0; i-- {
			frame := frames[i]
			fmt.Fprintf(&b, "          %s\n", frame.Get("function").String())
			fmt.Fprintf(&b, "          \t%s:%d\n", frame.Get("abs_path").String(), frame.Get("lineno").Int())
		}
	}

	return b.String()
}

// Flush is a no-op for the stderr transport.
func (t *Transport) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op for the stderr transport.
func (t *Transport) Close() error {
	return nil
}

package agentssdk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/strongdm/ai-agents-sdk/pkg/agents"
	"github.com/tidwall/gjson"

	"github.com/strongdm/aisen/pkg/aisen"
)

// capturingTransport captures envelopes for verification.
type capturingTransport struct {
	mu        sync.Mutex
	envelopes []*aisen.Envelope
	sendErr   error
}

func (c *capturingTransport) SendEnvelope(ctx context.Context, envelope *aisen.Envelope) (aisen.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, _ := envelope.EventID()
	if c.sendErr != nil {
		return aisen.Response{EventID: id}, c.sendErr
	}
	c.envelopes = append(c.envelopes, envelope)
	return aisen.Response{Status: aisen.StatusSuccess, EventID: id}, nil
}

func (c *capturingTransport) Flush(ctx context.Context) error { return nil }
func (c *capturingTransport) Close() error                    { return nil }

// events returns the captured event payloads.
func (c *capturingTransport) events(t *testing.T) []gjson.Result {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]gjson.Result, 0, len(c.envelopes))
	for _, env := range c.envelopes {
		payload, ok := env.EventPayload()
		if !ok {
			t.Fatalf("envelope without event payload")
		}
		result = append(result, gjson.ParseBytes(payload))
	}
	return result
}

func newTestHub(t *testing.T, opts ...aisen.Option) (*aisen.Hub, *capturingTransport) {
	t.Helper()
	transport := &capturingTransport{}
	base := []aisen.Option{
		aisen.WithTransport(transport),
		aisen.WithSystemState(false),
		aisen.WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }),
	}
	hub, err := aisen.NewHub(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewHub: %v", err)
	}
	return hub, transport
}

// fakeRunner drives the hooks it is given and then fails or panics as configured.
type fakeRunner struct {
	mu       sync.Mutex
	err      error
	panicVal any
	drive    func(ctx context.Context, hooks agents.RunHooks)
	calls    []string
	contexts []context.Context
}

func (r *fakeRunner) run(ctx context.Context, mode string, cfg *agents.RunConfig) error {
	r.mu.Lock()
	r.calls = append(r.calls, mode)
	r.contexts = append(r.contexts, ctx)
	r.mu.Unlock()

	if r.drive != nil && cfg != nil && cfg.Hooks != nil {
		r.drive(ctx, cfg.Hooks)
	}
	if r.panicVal != nil {
		panic(r.panicVal)
	}
	return r.err
}

func (r *fakeRunner) Run(ctx context.Context, agent *agents.Agent, input string, session agents.Session, cfg *agents.RunConfig) (agents.RunResult, error) {
	var result agents.RunResult
	return result, r.run(ctx, "run", cfg)
}

func (r *fakeRunner) RunOnce(ctx context.Context, agent *agents.Agent, input string, cfg *agents.RunConfig) (agents.RunResult, error) {
	var result agents.RunResult
	return result, r.run(ctx, "run_once", cfg)
}

func (r *fakeRunner) RunStream(ctx context.Context, agent *agents.Agent, input string, session agents.Session, cfg *agents.RunConfig) (*agents.StreamingRun, error) {
	return nil, r.run(ctx, "run_stream", cfg)
}

// mockSession implements ContextIDProvider.
type mockSession struct {
	contextID uint64
	hasID     bool
}

func (s *mockSession) ContextID(ctx context.Context) (uint64, error) {
	if !s.hasID {
		return 0, errors.New("no context ID")
	}
	return s.contextID, nil
}

func testAgent(name string) *agents.Agent {
	return agents.NewAgent(agents.AgentConfig{
		Name:         name,
		Instructions: "be helpful",
		Model:        "test-model",
	})
}

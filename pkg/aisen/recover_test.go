package aisen

import (
	"context"
	"testing"
)

func TestRecover_CapturesPanic(t *testing.T) {
	hub, transport, _ := newTestHub(t)
	ctx := context.Background()

	func() {
		defer hub.Recover(ctx)
		panic("test panic")
	}()

	payloads := transport.payloads(t)
	if len(payloads) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(payloads))
	}

	if payloads[0]["level"] != "fatal" {
		t.Errorf("level = %v, want fatal", payloads[0]["level"])
	}
	exc := payloads[0]["exception"].(map[string]any)["values"].([]any)[0].(map[string]any)
	if exc["type"] != "panic" {
		t.Errorf("type = %v, want panic", exc["type"])
	}
	if exc["value"] != "test panic" {
		t.Errorf("value = %v, want %q", exc["value"], "test panic")
	}
	mechanism := exc["mechanism"].(map[string]any)
	if mechanism["handled"] != false {
		t.Errorf("mechanism.handled = %v, want false", mechanism["handled"])
	}
}

func TestRecover_IncludesStackTrace(t *testing.T) {
	event := NewPanicEvent("stack trace test")

	trace := event.Exception[0].Stacktrace
	if trace == nil || len(trace.Frames) == 0 {
		t.Fatal("Stacktrace should be populated")
	}
	innermost := trace.Frames[len(trace.Frames)-1]
	if innermost.Function != "TestRecover_IncludesStackTrace" {
		t.Errorf("innermost frame = %q, want the caller of NewPanicEvent", innermost.Function)
	}
}

func TestRecover_NoPanic_NoEventRecorded(t *testing.T) {
	hub, transport, _ := newTestHub(t)
	ctx := context.Background()

	func() {
		defer hub.Recover(ctx)
		// No panic
	}()

	if n := len(transport.getEnvelopes()); n != 0 {
		t.Errorf("Expected 0 events, got %d", n)
	}
}

func TestRecover_HandlesErrorPanic(t *testing.T) {
	hub, transport, _ := newTestHub(t)
	ctx := context.Background()

	testErr := &testError{msg: "error panic"}
	func() {
		defer hub.Recover(ctx)
		panic(testErr)
	}()

	payloads := transport.payloads(t)
	if len(payloads) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(payloads))
	}
	exc := payloads[0]["exception"].(map[string]any)["values"].([]any)[0].(map[string]any)
	if exc["value"] != "error panic" {
		t.Errorf("value = %v, want %q", exc["value"], "error panic")
	}
	if exc["type"] != "*aisen.testError" {
		t.Errorf("type = %v, want *aisen.testError", exc["type"])
	}
}

func TestRecover_UsesScopeAndContextID(t *testing.T) {
	hub, transport, _ := newTestHub(t)
	ctx := WithContextID(hub.Fork(context.Background()), 12345)
	hub.ConfigureScope(ctx, func(s *Scope) { s.SetTag("handler", "checkout") })

	func() {
		defer hub.Recover(ctx)
		panic("context id test")
	}()

	payload := transport.payloads(t)[0]
	if payload["tags"].(map[string]any)["handler"] != "checkout" {
		t.Errorf("scope tags not applied: %v", payload["tags"])
	}
	cxdb := payload["contexts"].(map[string]any)["cxdb"].(map[string]any)
	if cxdb["context_id"] != float64(12345) {
		t.Errorf("context_id = %v, want 12345", cxdb["context_id"])
	}
}

func TestRecover_DisabledHubStillRecovers(t *testing.T) {
	hub, err := NewHub()
	if err != nil {
		t.Fatal(err)
	}

	var got any
	func() {
		defer func() { got = recover() }()
		func() {
			defer hub.Recover(context.Background())
			panic("disabled")
		}()
	}()

	if got != nil {
		t.Errorf("panic escaped Recover: %v", got)
	}
}

func TestCapturePanic_FromDeferredClosure(t *testing.T) {
	hub, transport, _ := newTestHub(t)
	ctx := context.Background()

	var (
		got  any
		resp Response
		err  error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				got = r
				resp, err = hub.CapturePanic(ctx, r)
			}
		}()
		panic("boom")
	}()

	if got != "boom" {
		t.Fatalf("recovered = %v, want boom", got)
	}
	if err != nil {
		t.Fatalf("CapturePanic: %v", err)
	}
	if resp.EventID == "" {
		t.Error("response carries no event ID")
	}

	payloads := transport.payloads(t)
	if len(payloads) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(payloads))
	}
	exc := payloads[0]["exception"].(map[string]any)["values"].([]any)[0].(map[string]any)
	if exc["value"] != "boom" {
		t.Errorf("value = %v, want boom", exc["value"])
	}
}

// testError is a custom error type for testing.
type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}

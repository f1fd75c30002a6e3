package aisen

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventIDPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestNewEventID_Format(t *testing.T) {
	seen := make(map[EventID]bool)
	for i := 0; i < 100; i++ {
		id := NewEventID()
		if !eventIDPattern.MatchString(string(id)) {
			t.Fatalf("NewEventID() = %q, want 32 lowercase hex chars", id)
		}
		if seen[id] {
			t.Fatalf("NewEventID() returned duplicate %q", id)
		}
		seen[id] = true
	}
}

func TestNewMessageEvent(t *testing.T) {
	event := NewMessageEvent("disk almost full", LevelWarning)

	if event.Message != "disk almost full" {
		t.Errorf("Message = %q, want %q", event.Message, "disk almost full")
	}
	if event.Level != LevelWarning {
		t.Errorf("Level = %q, want %q", event.Level, LevelWarning)
	}
	if event.EventID == "" {
		t.Error("EventID should be generated")
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return fmt.Sprintf("code %d: %v", e.code, e.err) }
func (e *codedError) Unwrap() error { return e.err }

func TestNewExceptionEvent_WalksChain(t *testing.T) {
	root := errors.New("connection refused")
	err := fmt.Errorf("fetch profile: %w", &codedError{code: 503, err: root})

	event := NewExceptionEvent(err)

	require.Len(t, event.Exception, 3)
	assert.Equal(t, LevelError, event.Level)

	// root cause first, outermost last
	assert.Equal(t, "connection refused", event.Exception[0].Value)
	assert.Equal(t, "*errors.errorString", event.Exception[0].Type)
	assert.Equal(t, "*aisen.codedError", event.Exception[1].Type)
	assert.Equal(t, err.Error(), event.Exception[2].Value)

	assert.Nil(t, event.Exception[0].Stacktrace)
	require.NotNil(t, event.Exception[2].Stacktrace)
	assert.NotEmpty(t, event.Exception[2].Stacktrace.Frames)
}

func TestExceptionsFromError_DepthLimit(t *testing.T) {
	err := errors.New("base")
	for i := 0; i < 20; i++ {
		err = fmt.Errorf("layer %d: %w", i, err)
	}

	chain := ExceptionsFromError(err, 0)

	if len(chain) != maxErrorDepth {
		t.Errorf("len(chain) = %d, want %d", len(chain), maxErrorDepth)
	}
}

func TestExceptionsFromError_Nil(t *testing.T) {
	if chain := ExceptionsFromError(nil, 0); chain != nil {
		t.Errorf("ExceptionsFromError(nil) = %v, want nil", chain)
	}
}

func TestNewStacktrace_OutermostFirst(t *testing.T) {
	trace := NewStacktrace(0)
	require.NotNil(t, trace)

	innermost := trace.Frames[len(trace.Frames)-1]
	assert.Equal(t, "TestNewStacktrace_OutermostFirst", innermost.Function)
	assert.Equal(t, "github.com/strongdm/aisen/pkg/aisen", innermost.Module)
	assert.Equal(t, "event_test.go", innermost.Filename)
	assert.False(t, innermost.InApp, "SDK frames are not in-app")
}

func TestSplitFunctionName(t *testing.T) {
	tests := []struct {
		name       string
		wantModule string
		wantFunc   string
	}{
		{"main.main", "main", "main"},
		{"github.com/acme/app/store.(*DB).Query", "github.com/acme/app/store", "(*DB).Query"},
		{"github.com/acme/app.run.func1", "github.com/acme/app", "run.func1"},
		{"runtime.goexit", "runtime", "goexit"},
	}

	for _, tt := range tests {
		module, function := splitFunctionName(tt.name)
		if module != tt.wantModule || function != tt.wantFunc {
			t.Errorf("splitFunctionName(%q) = (%q, %q), want (%q, %q)",
				tt.name, module, function, tt.wantModule, tt.wantFunc)
		}
	}
}

func TestIsInApp(t *testing.T) {
	tests := []struct {
		module string
		want   bool
	}{
		{"main", true},
		{"github.com/acme/app/store", true},
		{"net/http", false},
		{"runtime", false},
		{"github.com/strongdm/aisen/pkg/aisen", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isInApp(tt.module); got != tt.want {
			t.Errorf("isInApp(%q) = %v, want %v", tt.module, got, tt.want)
		}
	}
}

func TestEvent_MarshalJSON_SentrySchema(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	event := &Event{
		EventID:   "0123456789abcdef0123456789abcdef",
		Timestamp: ts,
		Level:     LevelError,
		Platform:  "go",
		Exception: []Exception{{Type: "*errors.errorString", Value: "boom"}},
		Tags:      map[string]string{"region": "eu"},
		Breadcrumbs: []Breadcrumb{{
			Timestamp: ts,
			Message:   "clicked",
			Level:     BreadcrumbInfo,
		}},
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "0123456789abcdef0123456789abcdef", decoded["event_id"])
	assert.Equal(t, "2026-03-01T12:00:00Z", decoded["timestamp"])
	assert.Equal(t, "error", decoded["level"])

	exception := decoded["exception"].(map[string]any)
	values := exception["values"].([]any)
	require.Len(t, values, 1)
	assert.Equal(t, "boom", values[0].(map[string]any)["value"])

	crumbs := decoded["breadcrumbs"].(map[string]any)["values"].([]any)
	require.Len(t, crumbs, 1)
	assert.Equal(t, "clicked", crumbs[0].(map[string]any)["message"])

	assert.NotContains(t, decoded, "message", "empty fields are omitted")
	assert.NotContains(t, decoded, "user")
}

func TestEvent_Clone_Independent(t *testing.T) {
	original := &Event{
		Tags:     map[string]string{"a": "1"},
		Extra:    map[string]any{"b": 2},
		Contexts: map[string]map[string]any{"os": {"name": "linux"}},
		User:     &User{ID: "u1"},
	}

	c := original.clone()
	c.Tags["a"] = "changed"
	c.Extra["b"] = 3
	c.Contexts["os"]["name"] = "darwin"
	c.User.ID = "u2"

	assert.Equal(t, "1", original.Tags["a"])
	assert.Equal(t, 2, original.Extra["b"])
	assert.Equal(t, "linux", original.Contexts["os"]["name"])
	assert.Equal(t, "u1", original.User.ID)
}

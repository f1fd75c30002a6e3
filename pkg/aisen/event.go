// event.go defines the canonical event data structure for aisen.

package aisen

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Level indicates the severity of an event or diagnostic entry.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"

	// LevelFatal indicates an unrecoverable error such as a panic.
	LevelFatal Level = "fatal"
)

// EventID is the 32 character lowercase hex identifier of an event.
type EventID string

// NewEventID generates a random event ID.
func NewEventID() EventID {
	return EventID(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// String returns the ID as a string.
func (id EventID) String() string {
	return string(id)
}

// SDKInfo identifies the SDK that produced an event.
type SDKInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

const (
	// SDKName is the name reported in events and the auth header.
	SDKName = "aisen.go"

	// SDKVersion is the version reported in events and the auth header.
	SDKVersion = "0.3.0"
)

// Event is the canonical event representation.
// Scope data is merged in by the Client at capture time.
type Event struct {
	// Identity fields

	// EventID is generated by NewEvent, or by the client when left empty.
	EventID EventID

	// Timestamp is when the event occurred.
	Timestamp time.Time

	// Payload

	Level     Level
	Message   string
	Logger    string
	Exception []Exception

	// Environment

	Platform    string
	Release     string
	Environment string
	ServerName  string
	SDK         *SDKInfo

	// Context merged from the scope

	Tags        map[string]string
	Extra       map[string]any
	Contexts    map[string]map[string]any
	User        *User
	Breadcrumbs []Breadcrumb
	Fingerprint []string
}

// NewEvent creates an event with a fresh ID and the current time.
func NewEvent() *Event {
	return &Event{
		EventID:   NewEventID(),
		Timestamp: time.Now().UTC(),
	}
}

// NewMessageEvent creates an event carrying a message.
func NewMessageEvent(message string, level Level) *Event {
	event := NewEvent()
	event.Message = message
	event.Level = level
	return event
}

// NewExceptionEvent creates an error-level event from err.
func NewExceptionEvent(err error) *Event {
	event := NewEvent()
	event.Level = LevelError
	event.Exception = ExceptionsFromError(err, 1)
	return event
}

// clone returns a copy of the event whose maps and slices may be modified
// without affecting e.
func (e *Event) clone() *Event {
	c := *e
	c.Exception = append([]Exception(nil), e.Exception...)
	c.Tags = copyStringMap(e.Tags)
	c.Extra = copyAnyMap(e.Extra)
	if e.Contexts != nil {
		c.Contexts = make(map[string]map[string]any, len(e.Contexts))
		for k, v := range e.Contexts {
			c.Contexts[k] = copyAnyMap(v)
		}
	}
	c.User = e.User.clone()
	c.Breadcrumbs = append([]Breadcrumb(nil), e.Breadcrumbs...)
	c.Fingerprint = append([]string(nil), e.Fingerprint...)
	return &c
}

// eventPayload is the wire shape of an event.
type eventPayload struct {
	EventID     EventID                   `json:"event_id"`
	Timestamp   string                    `json:"timestamp"`
	Level       Level                     `json:"level,omitempty"`
	Platform    string                    `json:"platform,omitempty"`
	Logger      string                    `json:"logger,omitempty"`
	Message     string                    `json:"message,omitempty"`
	Exception   *exceptionValues          `json:"exception,omitempty"`
	Release     string                    `json:"release,omitempty"`
	Environment string                    `json:"environment,omitempty"`
	ServerName  string                    `json:"server_name,omitempty"`
	SDK         *SDKInfo                  `json:"sdk,omitempty"`
	Tags        map[string]string         `json:"tags,omitempty"`
	Extra       map[string]any            `json:"extra,omitempty"`
	Contexts    map[string]map[string]any `json:"contexts,omitempty"`
	User        *User                     `json:"user,omitempty"`
	Breadcrumbs *breadcrumbValues         `json:"breadcrumbs,omitempty"`
	Fingerprint []string                  `json:"fingerprint,omitempty"`
}

type exceptionValues struct {
	Values []Exception `json:"values"`
}

type breadcrumbValues struct {
	Values []Breadcrumb `json:"values"`
}

// MarshalJSON encodes the event in the Sentry event schema.
func (e *Event) MarshalJSON() ([]byte, error) {
	payload := eventPayload{
		EventID:     e.EventID,
		Timestamp:   e.Timestamp.UTC().Format(time.RFC3339Nano),
		Level:       e.Level,
		Platform:    e.Platform,
		Logger:      e.Logger,
		Message:     e.Message,
		Release:     e.Release,
		Environment: e.Environment,
		ServerName:  e.ServerName,
		SDK:         e.SDK,
		Tags:        e.Tags,
		Extra:       e.Extra,
		Contexts:    e.Contexts,
		User:        e.User,
		Fingerprint: e.Fingerprint,
	}
	if len(e.Exception) > 0 {
		payload.Exception = &exceptionValues{Values: e.Exception}
	}
	if len(e.Breadcrumbs) > 0 {
		payload.Breadcrumbs = &breadcrumbValues{Values: e.Breadcrumbs}
	}
	return json.Marshal(payload)
}

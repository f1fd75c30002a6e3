// envelope.go builds the wire envelope that carries an event to the ingestion endpoint.

package aisen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// ItemType identifies the kind of payload in an envelope item.
type ItemType string

// ItemTypeEvent is the item type of a serialized event.
const ItemTypeEvent ItemType = "event"

// EnvelopeHeader is the first line of an envelope.
type EnvelopeHeader struct {
	EventID EventID  `json:"event_id,omitempty"`
	SDK     *SDKInfo `json:"sdk,omitempty"`
}

// ItemHeader precedes each item payload.
type ItemHeader struct {
	Type    ItemType `json:"type"`
	Length  int      `json:"length"`
	EventID EventID  `json:"event_id,omitempty"`
}

// EnvelopeItem is a typed payload.
type EnvelopeItem struct {
	Header  ItemHeader
	Payload []byte
}

// Envelope is a header followed by typed items.
// Envelopes are not modified after they are handed to a Transport.
type Envelope struct {
	Header EnvelopeHeader
	Items  []EnvelopeItem
}

// NewEventEnvelope serializes event into a single-item envelope.
// The event ID is written to the envelope header and the item header.
func NewEventEnvelope(event *Event) (*Envelope, error) {
	if event == nil {
		return nil, ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("serialize event %s: %w", event.EventID, err)
	}

	return &Envelope{
		Header: EnvelopeHeader{
			EventID: event.EventID,
			SDK:     event.SDK,
		},
		Items: []EnvelopeItem{{
			Header: ItemHeader{
				Type:    ItemTypeEvent,
				Length:  len(payload),
				EventID: event.EventID,
			},
			Payload: payload,
		}},
	}, nil
}

// EventID returns the event ID from the envelope header, if present.
func (e *Envelope) EventID() (EventID, bool) {
	if e == nil || e.Header.EventID == "" {
		return "", false
	}
	return e.Header.EventID, true
}

// EventPayload returns the payload of the first event item, if any.
func (e *Envelope) EventPayload() ([]byte, bool) {
	if e == nil {
		return nil, false
	}
	for _, item := range e.Items {
		if item.Header.Type == ItemTypeEvent {
			return item.Payload, true
		}
	}
	return nil, false
}

// WriteTo writes the envelope wire format to w:
// header JSON, then for each item its header JSON and payload, newline separated.
func (e *Envelope) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	// Encode appends the newline separator
	if err := enc.Encode(e.Header); err != nil {
		return 0, fmt.Errorf("encode envelope header: %w", err)
	}
	for _, item := range e.Items {
		if err := enc.Encode(item.Header); err != nil {
			return 0, fmt.Errorf("encode item header: %w", err)
		}
		buf.Write(item.Payload)
		buf.WriteByte('\n')
	}

	return buf.WriteTo(w)
}

// Bytes returns the envelope wire format.
func (e *Envelope) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := e.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Package noop provides a no-operation transport that discards all envelopes.
// Useful for testing and for enabling scope tracking without delivery.
package noop

import (
	"context"

	"github.com/strongdm/aisen/pkg/aisen"
)

// Transport discards all envelopes.
type Transport struct{}

var _ aisen.Transport = Transport{}

// New creates a transport that discards all envelopes.
func New() Transport {
	return Transport{}
}

// SendEnvelope discards the envelope and reports it dropped.
func (Transport) SendEnvelope(ctx context.Context, envelope *aisen.Envelope) (aisen.Response, error) {
	id, _ := envelope.EventID()
	return aisen.Response{Status: aisen.StatusDropped, EventID: id}, nil
}

// Flush is a no-op and returns nil.
func (Transport) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op and returns nil.
func (Transport) Close() error {
	return nil
}

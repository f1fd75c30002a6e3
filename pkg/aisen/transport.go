// transport.go defines the Transport interface for envelope destinations.

package aisen

import "context"

// Transport is the destination for envelopes.
// Implementations must be safe for concurrent use.
type Transport interface {
	// SendEnvelope delivers an envelope. Remote rejections are reported in
	// the Response; only failures of the delivery mechanism itself are errors.
	SendEnvelope(ctx context.Context, envelope *Envelope) (Response, error)

	// Flush ensures any buffered envelopes are delivered.
	// For synchronous transports, this may be a no-op.
	Flush(ctx context.Context) error

	// Close releases resources held by the transport.
	Close() error
}

// noopTransportInternal is an internal noop transport to avoid import cycles.
type noopTransportInternal struct{}

func (t *noopTransportInternal) SendEnvelope(ctx context.Context, envelope *Envelope) (Response, error) {
	id, _ := envelope.EventID()
	return Response{Status: StatusDropped, EventID: id}, nil
}

func (t *noopTransportInternal) Flush(ctx context.Context) error {
	return nil
}

func (t *noopTransportInternal) Close() error {
	return nil
}

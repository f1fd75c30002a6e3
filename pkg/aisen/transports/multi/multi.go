// Package multi provides a transport that fans out to multiple transports.
// All transports receive all envelopes; errors are aggregated.
package multi

import (
	"context"
	"errors"

	"github.com/strongdm/aisen/pkg/aisen"
)

// Transport fans out to multiple transports.
type Transport struct {
	transports []aisen.Transport
}

var _ aisen.Transport = (*Transport)(nil)

// New creates a transport that sends to multiple transports.
func New(transports ...aisen.Transport) *Transport {
	return &Transport{
		transports: transports,
	}
}

// SendEnvelope sends the envelope to all transports, collecting any errors.
// All transports are called even if some return errors. The response is the
// first one that came without an error, or the first one at all when every
// transport failed.
func (t *Transport) SendEnvelope(ctx context.Context, envelope *aisen.Envelope) (aisen.Response, error) {
	if len(t.transports) == 0 {
		id, _ := envelope.EventID()
		return aisen.Response{Status: aisen.StatusDropped, EventID: id}, nil
	}

	var (
		errs      []error
		responses []aisen.Response
		first     = -1
	)
	for i, transport := range t.transports {
		resp, err := transport.SendEnvelope(ctx, envelope)
		responses = append(responses, resp)
		if err != nil {
			errs = append(errs, err)
		} else if first < 0 {
			first = i
		}
	}
	if first < 0 {
		first = 0
	}
	return responses[first], errors.Join(errs...)
}

// Flush calls Flush on all transports, collecting any errors.
func (t *Transport) Flush(ctx context.Context) error {
	var errs []error
	for _, transport := range t.transports {
		if err := transport.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close calls Close on all transports, collecting any errors.
func (t *Transport) Close() error {
	var errs []error
	for _, transport := range t.transports {
		if err := transport.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

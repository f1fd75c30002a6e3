// response.go defines the result of a capture call.

package aisen

// ResponseStatus classifies the outcome of a capture.
type ResponseStatus string

const (
	// StatusDisabled means the SDK is not enabled; nothing was sent.
	StatusDisabled ResponseStatus = "disabled"

	// StatusSuccess means the endpoint accepted the envelope.
	StatusSuccess ResponseStatus = "success"

	// StatusRejected means the endpoint answered with a non-success status.
	StatusRejected ResponseStatus = "rejected"

	// StatusQueued means the envelope was handed to a background queue.
	StatusQueued ResponseStatus = "queued"

	// StatusDropped means the event was discarded before delivery
	// (before-send hook, full queue, rate limit or a discarding transport).
	StatusDropped ResponseStatus = "dropped"
)

// Response is the result of a capture call.
type Response struct {
	Status ResponseStatus

	// EventID is the ID of the captured event. Empty for disabled responses.
	EventID EventID

	// StatusCode is the HTTP status code, when the transport is HTTP based.
	StatusCode int

	// Message is the human-readable message extracted from a rejection.
	Message string
}

// DisabledResponse is returned by every capture call when the SDK is not enabled.
var DisabledResponse = Response{Status: StatusDisabled}

// Success reports whether the event was accepted by the endpoint.
func (r Response) Success() bool {
	return r.Status == StatusSuccess
}

// CaptureResult is delivered by the asynchronous capture variants.
type CaptureResult struct {
	Response Response
	Err      error
}

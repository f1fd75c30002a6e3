// Package httptransport delivers envelopes to a Sentry-compatible ingestion
// endpoint over HTTP.
//
// Delivery is fire-and-forget: a non-success status is logged once through
// the diagnostic logger and reported as a rejected Response, never retried.
// Only failures of the HTTP round trip itself are returned as errors.
package httptransport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/tidwall/gjson"

	"github.com/strongdm/aisen/pkg/aisen"
)

const (
	// ContentType is the media type of envelope request bodies.
	ContentType = "application/x-sentry-envelope"

	// AuthHeaderName is the header carrying the DSN credentials.
	AuthHeaderName = "X-Sentry-Auth"

	// NoMessageFallback is reported when a rejection body has no detail.
	NoMessageFallback = "No message"

	// RejectedTemplate is the diagnostic logged for every rejected envelope.
	// Arguments: event ID, StatusCode, endpoint message.
	RejectedTemplate = "Sentry rejected the envelope {0}. Status code: {1}. Sentry response: {2}"

	// maxResponseBody bounds how much of a rejection body is read.
	maxResponseBody = 64 << 10
)

// ErrNilEnvelope is returned when SendEnvelope is called without an envelope.
var ErrNilEnvelope = errors.New("httptransport: nil envelope")

// Doer executes HTTP requests. *http.Client satisfies this interface.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// AuthHeaderFunc adds authentication to the headers of an outgoing request.
// It is called exactly once per request.
type AuthHeaderFunc func(header http.Header)

// DefaultAuthHeader returns an AuthHeaderFunc that sets X-Sentry-Auth from
// dsn. client is reported as sentry_client, formatted "<name>/<version>".
func DefaultAuthHeader(dsn *aisen.DSN, client string) AuthHeaderFunc {
	value := dsn.AuthHeader(client)
	return func(header http.Header) {
		header.Set(AuthHeaderName, value)
	}
}

// StatusCode is an HTTP status code that renders as its compact name,
// for example "BadGateway" for 502.
type StatusCode int

// String returns the status text without spaces, hyphens or apostrophes.
// Unknown codes render as their number.
func (c StatusCode) String() string {
	text := http.StatusText(int(c))
	if text == "" {
		return strconv.Itoa(int(c))
	}
	return strings.NewReplacer(" ", "", "-", "", "'", "").Replace(text)
}

// Option configures a Transport.
type Option func(*config)

type config struct {
	logger    aisen.DiagnosticLogger
	compress  bool
	level     int
	userAgent string
}

// WithLogger sets the diagnostic logger rejections are reported to.
func WithLogger(logger aisen.DiagnosticLogger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCompression gzips request bodies and sets Content-Encoding.
func WithCompression() Option {
	return func(c *config) {
		c.compress = true
	}
}

// WithCompressionLevel gzips request bodies at the given gzip level.
func WithCompressionLevel(level int) Option {
	return func(c *config) {
		c.compress = true
		c.level = level
	}
}

// WithUserAgent sets the User-Agent request header.
func WithUserAgent(userAgent string) Option {
	return func(c *config) {
		c.userAgent = userAgent
	}
}

// Transport posts envelopes to the endpoint derived from a DSN.
// It holds no mutable state and is safe for concurrent use.
type Transport struct {
	endpoint  string
	client    Doer
	addAuth   AuthHeaderFunc
	logger    aisen.DiagnosticLogger
	compress  bool
	level     int
	userAgent string
}

var _ aisen.Transport = (*Transport)(nil)

// New creates a Transport posting to dsn's envelope endpoint with client.
// addAuth may be nil when client adds authentication itself.
func New(dsn *aisen.DSN, client Doer, addAuth AuthHeaderFunc, opts ...Option) *Transport {
	cfg := &config{
		logger:    aisen.NopLogger{},
		level:     gzip.DefaultCompression,
		userAgent: aisen.SDKName + "/" + aisen.SDKVersion,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if addAuth == nil {
		addAuth = func(http.Header) {}
	}

	return &Transport{
		endpoint:  dsn.EnvelopeEndpoint(),
		client:    client,
		addAuth:   addAuth,
		logger:    cfg.logger,
		compress:  cfg.compress,
		level:     cfg.level,
		userAgent: cfg.userAgent,
	}
}

// NewDefault creates a Transport using a dedicated *http.Client and the
// default X-Sentry-Auth header.
func NewDefault(dsn *aisen.DSN, opts ...Option) *Transport {
	client := &http.Client{Timeout: 30 * time.Second}
	return New(dsn, client, DefaultAuthHeader(dsn, aisen.SDKName+"/"+aisen.SDKVersion), opts...)
}

// Endpoint returns the URL envelopes are posted to.
func (t *Transport) Endpoint() string {
	return t.endpoint
}

// CreateRequest builds the POST request for envelope. ctx is attached to the
// request as is.
func (t *Transport) CreateRequest(ctx context.Context, envelope *aisen.Envelope) (*http.Request, error) {
	if envelope == nil {
		return nil, ErrNilEnvelope
	}
	if ctx == nil {
		ctx = context.Background()
	}

	body, err := t.encodeBody(envelope)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", ContentType)
	if t.compress {
		req.Header.Set("Content-Encoding", "gzip")
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	t.addAuth(req.Header)
	return req, nil
}

func (t *Transport) encodeBody(envelope *aisen.Envelope) ([]byte, error) {
	var buf bytes.Buffer
	if !t.compress {
		if _, err := envelope.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("write envelope: %w", err)
		}
		return buf.Bytes(), nil
	}

	zw, err := gzip.NewWriterLevel(&buf, t.level)
	if err != nil {
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}
	if _, err := envelope.WriteTo(zw); err != nil {
		return nil, fmt.Errorf("write envelope: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress envelope: %w", err)
	}
	return buf.Bytes(), nil
}

// SendEnvelope posts envelope and classifies the response. A 2xx status is a
// success. Any other status is logged once at Error level and returned as a
// rejected Response carrying the endpoint's detail message. Errors from the
// HTTP client are wrapped and returned.
func (t *Transport) SendEnvelope(ctx context.Context, envelope *aisen.Envelope) (aisen.Response, error) {
	req, err := t.CreateRequest(ctx, envelope)
	if err != nil {
		return aisen.Response{}, err
	}
	eventID, _ := envelope.EventID()

	resp, err := t.client.Do(req)
	if err != nil {
		return aisen.Response{EventID: eventID}, fmt.Errorf("send envelope %s: %w", eventID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return aisen.Response{
			Status:     aisen.StatusSuccess,
			EventID:    eventID,
			StatusCode: resp.StatusCode,
		}, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	message := rejectionMessage(body)
	t.logger.Log(aisen.LevelError, nil, RejectedTemplate, eventID, StatusCode(resp.StatusCode), message)

	return aisen.Response{
		Status:     aisen.StatusRejected,
		EventID:    eventID,
		StatusCode: resp.StatusCode,
		Message:    message,
	}, nil
}

// rejectionMessage returns the "detail" field of a JSON error body, or
// NoMessageFallback.
func rejectionMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return NoMessageFallback
	}
	detail := gjson.GetBytes(body, "detail")
	if detail.Type != gjson.String || detail.Str == "" {
		return NoMessageFallback
	}
	return detail.Str
}

// Flush is a no-op; requests are sent synchronously.
func (t *Transport) Flush(ctx context.Context) error {
	return nil
}

// Close releases idle connections of the underlying client when it supports it.
func (t *Transport) Close() error {
	if c, ok := t.client.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
	return nil
}

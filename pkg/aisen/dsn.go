// dsn.go parses DSN connection strings and derives endpoints and auth headers from them.

package aisen

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidDSN is returned for malformed DSN strings.
var ErrInvalidDSN = errors.New("aisen: invalid DSN")

// SentryProtocolVersion is the protocol version sent in the auth header.
const SentryProtocolVersion = 7

// DSN identifies an ingestion endpoint and its credentials:
//
//	https://<public_key>[:<secret_key>]@<host>[:<port>]/[<path>/]<project_id>
type DSN struct {
	Scheme    string
	PublicKey string
	SecretKey string
	Host      string
	Path      string
	ProjectID string
}

// ParseDSN parses a DSN string.
func ParseDSN(raw string) (*DSN, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDSN, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidDSN, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidDSN)
	}
	if u.User == nil || u.User.Username() == "" {
		return nil, fmt.Errorf("%w: missing public key", ErrInvalidDSN)
	}

	path := strings.TrimSuffix(u.Path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 || path[idx+1:] == "" {
		return nil, fmt.Errorf("%w: missing project id", ErrInvalidDSN)
	}

	secret, _ := u.User.Password()
	return &DSN{
		Scheme:    u.Scheme,
		PublicKey: u.User.Username(),
		SecretKey: secret,
		Host:      u.Host,
		Path:      path[:idx],
		ProjectID: path[idx+1:],
	}, nil
}

// EnvelopeEndpoint returns the URL envelopes are posted to.
func (d *DSN) EnvelopeEndpoint() string {
	return fmt.Sprintf("%s://%s%s/api/%s/envelope/", d.Scheme, d.Host, d.Path, d.ProjectID)
}

// AuthHeader returns the X-Sentry-Auth header value for client
// (formatted "<name>/<version>").
func (d *DSN) AuthHeader(client string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sentry sentry_version=%d, sentry_client=%s, sentry_key=%s",
		SentryProtocolVersion, client, d.PublicKey)
	if d.SecretKey != "" {
		fmt.Fprintf(&b, ", sentry_secret=%s", d.SecretKey)
	}
	return b.String()
}

// String returns the DSN in its connection string form.
func (d *DSN) String() string {
	user := d.PublicKey
	if d.SecretKey != "" {
		user += ":" + d.SecretKey
	}
	return fmt.Sprintf("%s://%s@%s%s/%s", d.Scheme, user, d.Host, d.Path, d.ProjectID)
}

// options.go provides the functional options accepted by NewHub.

package aisen

import "time"

// Option configures a Hub.
type Option func(*hubConfig)

type hubConfig struct {
	dsn            *DSN
	transport      Transport
	logger         DiagnosticLogger
	maxBreadcrumbs int
	release        string
	environment    string
	serverName     string
	scrubber       *Scrubber
	beforeSend     func(*Event) *Event
	now            func() time.Time
	systemState    bool
	fingerprinting bool
}

func defaultHubConfig() *hubConfig {
	return &hubConfig{
		logger:         NopLogger{},
		maxBreadcrumbs: DefaultMaxBreadcrumbs,
		now:            time.Now,
		systemState:    true,
	}
}

// WithDSN sets the DSN. A Hub without a DSN or transport is disabled.
func WithDSN(dsn *DSN) Option {
	return func(c *hubConfig) {
		c.dsn = dsn
	}
}

// WithTransport sets the transport envelopes are sent through.
func WithTransport(transport Transport) Option {
	return func(c *hubConfig) {
		c.transport = transport
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger DiagnosticLogger) Option {
	return func(c *hubConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxBreadcrumbs sets the breadcrumb capacity of every scope (default: 100).
// Zero disables breadcrumbs; negative values are ignored.
func WithMaxBreadcrumbs(n int) Option {
	return func(c *hubConfig) {
		if n >= 0 {
			c.maxBreadcrumbs = n
		}
	}
}

// WithRelease sets the release reported with every event.
func WithRelease(release string) Option {
	return func(c *hubConfig) {
		c.release = release
	}
}

// WithEnvironment sets the environment reported with every event.
func WithEnvironment(environment string) Option {
	return func(c *hubConfig) {
		c.environment = environment
	}
}

// WithServerName sets the server name reported with every event.
// Defaults to the hostname.
func WithServerName(name string) Option {
	return func(c *hubConfig) {
		c.serverName = name
	}
}

// WithScrubber configures the hub with a custom scrubber configuration.
func WithScrubber(cfg ScrubberConfig) Option {
	return func(c *hubConfig) {
		c.scrubber = NewScrubber(cfg)
	}
}

// WithDefaultScrubbing enables scrubbing with production-safe defaults.
func WithDefaultScrubbing() Option {
	return func(c *hubConfig) {
		c.scrubber = NewScrubber(DefaultScrubberConfig())
	}
}

// WithBeforeSend sets a hook called with the fully prepared event right before
// it is serialized. Returning nil drops the event.
func WithBeforeSend(fn func(*Event) *Event) Option {
	return func(c *hubConfig) {
		c.beforeSend = fn
	}
}

// WithClock sets the clock used for event and breadcrumb timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *hubConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSystemState controls whether runtime, os, device and app contexts are
// attached to events (default: true).
func WithSystemState(enabled bool) Option {
	return func(c *hubConfig) {
		c.systemState = enabled
	}
}

// WithFingerprinting enables client-side grouping fingerprints for events
// that carry none.
func WithFingerprinting() Option {
	return func(c *hubConfig) {
		c.fingerprinting = true
	}
}

// Package aisen provides lightweight, pluggable error and event capture with
// Sentry-compatible envelope delivery.
//
// aisen enriches captured errors and messages with the ambient Scope of the
// calling chain (breadcrumbs, tags, extra, user) and hands them to a Transport
// as wire-ready envelopes. Delivery is fire-and-forget: rejections are logged
// through the DiagnosticLogger and surfaced as a Response, never as a failure
// of the caller.
//
// # Core Components
//
// The library is organized around these concepts:
//
//   - Hub: entry point applications call to capture events, exceptions and messages
//   - Scope: contextual state merged into every event; pushed and popped per chain
//   - ScopeStack: the per-chain stack of Scope frames carried in a context.Context
//   - Client: merges a Scope snapshot into an event, builds the Envelope, sends it
//   - Transport: destination for envelopes (http, async, multi, noop, stderr, cxdb)
//   - Scrubber: redacts sensitive data with fail-closed behavior
//
// # Quick Start
//
//	dsn, _ := aisen.ParseDSN(os.Getenv("AISEN_DSN"))
//	hub, err := aisen.NewHub(
//	    aisen.WithDSN(dsn),
//	    aisen.WithTransport(httptransport.NewDefault(dsn)),
//	    aisen.WithDefaultScrubbing(),
//	)
//	defer hub.Close()
//
//	ctx = hub.Fork(ctx)
//	scope := hub.PushScope(ctx)
//	defer scope.Release()
//	hub.ConfigureScope(ctx, func(s *aisen.Scope) { s.SetTag("request_id", id) })
//	resp, err := hub.CaptureException(ctx, err)
//
// # Design Principles
//
//   - Capture never aborts the caller: remote rejections are responses, not errors
//   - Scope snapshots are taken once, before any blocking step
//   - Fail-closed scrubbing: on any error, fields are fully redacted
//   - Zero third-party dependencies in the capture path beyond uuid and otel trace
package aisen

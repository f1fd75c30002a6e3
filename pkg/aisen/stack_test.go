package aisen

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T, opts ...Option) (*Hub, *recordingTransport, *RecordingLogger) {
	t.Helper()
	transport := &recordingTransport{}
	logger := &RecordingLogger{}
	dsn, err := ParseDSN("https://public@sentry.example.com/42")
	require.NoError(t, err)

	all := append([]Option{
		WithDSN(dsn),
		WithTransport(transport),
		WithLogger(logger),
		WithClock(func() time.Time { return testNow }),
		WithSystemState(false),
	}, opts...)
	hub, err := NewHub(all...)
	require.NoError(t, err)
	return hub, transport, logger
}

func TestScopeStack_NestedPushRelease(t *testing.T) {
	hub, _, _ := newTestHub(t)
	ctx := hub.Fork(context.Background())

	hub.ConfigureScope(ctx, func(s *Scope) { s.SetTag("level", "root") })

	outer := hub.PushScope(ctx)
	hub.ConfigureScope(ctx, func(s *Scope) { s.SetTag("level", "outer") })

	inner := hub.PushScopeWithState(ctx, "request-7")
	hub.ConfigureScope(ctx, func(s *Scope) { s.SetTag("level", "inner") })
	assert.Equal(t, "inner", hub.CurrentScope(ctx).Tags()["level"])
	assert.Equal(t, "request-7", hub.CurrentScope(ctx).State())
	assert.Equal(t, 3, hub.ScopeDepth(ctx))

	require.NoError(t, inner.Release())
	assert.Equal(t, "outer", hub.CurrentScope(ctx).Tags()["level"])
	assert.Nil(t, hub.CurrentScope(ctx).State())

	require.NoError(t, outer.Release())
	assert.Equal(t, "root", hub.CurrentScope(ctx).Tags()["level"])
	assert.Equal(t, 1, hub.ScopeDepth(ctx))
}

func TestScopeStack_PushCopiesParent(t *testing.T) {
	hub, _, _ := newTestHub(t)
	ctx := hub.Fork(context.Background())
	require.NoError(t, hub.AddBreadcrumb(ctx, "before push", BreadcrumbOptions{}))

	handle := hub.PushScope(ctx)
	require.NoError(t, hub.AddBreadcrumb(ctx, "inside", BreadcrumbOptions{}))
	assert.Equal(t, []string{"before push", "inside"}, messages(hub.CurrentScope(ctx).Breadcrumbs()))

	require.NoError(t, handle.Release())
	assert.Equal(t, []string{"before push"}, messages(hub.CurrentScope(ctx).Breadcrumbs()))
}

func TestScopeStack_DoubleReleaseIsNoop(t *testing.T) {
	hub, _, logger := newTestHub(t)
	ctx := hub.Fork(context.Background())

	outer := hub.PushScope(ctx)
	inner := hub.PushScope(ctx)

	require.NoError(t, inner.Release())
	require.NoError(t, inner.Release())
	assert.Equal(t, 2, hub.ScopeDepth(ctx), "second release must not pop the outer scope")

	require.NoError(t, outer.Release())
	assert.Empty(t, errorEntries(logger))
}

func TestScopeStack_OutOfOrderRelease(t *testing.T) {
	hub, _, logger := newTestHub(t)
	ctx := hub.Fork(context.Background())

	outer := hub.PushScope(ctx)
	hub.ConfigureScope(ctx, func(s *Scope) { s.SetTag("frame", "outer") })
	inner := hub.PushScope(ctx)
	hub.ConfigureScope(ctx, func(s *Scope) { s.SetTag("frame", "inner") })

	err := outer.Release()
	require.ErrorIs(t, err, ErrScopeOrder)
	assert.Equal(t, 3, hub.ScopeDepth(ctx), "stack is left untouched")
	assert.Equal(t, "inner", hub.CurrentScope(ctx).Tags()["frame"])

	entries := errorEntries(logger)
	require.Len(t, entries, 1)
	assert.Equal(t, "Scope released out of order. Released depth: 1. Current depth: 2.", entries[0].Format())

	// The correct order still works afterwards
	require.NoError(t, inner.Release())
	require.NoError(t, outer.Release())
	assert.Equal(t, 1, hub.ScopeDepth(ctx))
}

func TestScopeHandle_NilRelease(t *testing.T) {
	var handle *ScopeHandle
	assert.NoError(t, handle.Release())
}

func TestScopeStack_ForkIsolation(t *testing.T) {
	hub, _, _ := newTestHub(t)
	parent := hub.Fork(context.Background())
	hub.ConfigureScope(parent, func(s *Scope) { s.SetTag("shared", "yes") })

	childA := hub.Fork(parent)
	childB := hub.Fork(parent)

	handle := hub.PushScope(childA)
	hub.ConfigureScope(childA, func(s *Scope) { s.SetTag("owner", "a") })
	require.NoError(t, hub.AddBreadcrumb(childA, "a only", BreadcrumbOptions{}))

	// childB and the parent see the fork-time copy only
	assert.Equal(t, "yes", hub.CurrentScope(childB).Tags()["shared"])
	assert.NotContains(t, hub.CurrentScope(childB).Tags(), "owner")
	assert.Empty(t, hub.CurrentScope(childB).Breadcrumbs())
	assert.NotContains(t, hub.CurrentScope(parent).Tags(), "owner")
	assert.Equal(t, 1, hub.ScopeDepth(parent))

	require.NoError(t, handle.Release())
}

func TestScopeStack_ConcurrentChains(t *testing.T) {
	hub, _, _ := newTestHub(t)
	root := context.Background()

	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		hub.Go(root, func(ctx context.Context) {
			defer wg.Done()
			handle := hub.PushScope(ctx)
			defer handle.Release()
			for j := 0; j < 5; j++ {
				_ = hub.AddBreadcrumb(ctx, "step", BreadcrumbOptions{Data: map[string]string{"chain": string(rune('a' + i))}})
			}
			results[i] = messages(hub.CurrentScope(ctx).Breadcrumbs())
		})
	}
	wg.Wait()

	for i, crumbs := range results {
		assert.Len(t, crumbs, 5, "chain %d saw breadcrumbs from another chain", i)
	}
	assert.Empty(t, hub.CurrentScope(root).Breadcrumbs())
}

func TestScopeStack_CurrentIsSnapshot(t *testing.T) {
	hub, _, _ := newTestHub(t)
	ctx := hub.Fork(context.Background())

	snapshot := hub.CurrentScope(ctx)
	snapshot.SetTag("leak", "yes")

	assert.NotContains(t, hub.CurrentScope(ctx).Tags(), "leak")
}

func errorEntries(logger *RecordingLogger) []LogEntry {
	var result []LogEntry
	for _, e := range logger.Entries() {
		if e.Level == LevelError {
			result = append(result, e)
		}
	}
	return result
}

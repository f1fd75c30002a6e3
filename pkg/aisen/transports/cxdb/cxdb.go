// Package cxdb provides a transport that persists events to cxdb as SystemMessage items.
package cxdb

import (
	"context"
	"fmt"
	"time"

	cxdbclient "github.com/strongdm/ai-cxdb/clients/go"
	cxdtypes "github.com/strongdm/ai-cxdb/clients/go/types"
	"github.com/tidwall/gjson"

	"github.com/strongdm/aisen/pkg/aisen"
)

// CXDBClient is the minimal interface for cxdb client operations.
// The real *cxdb.Client satisfies this interface.
type CXDBClient interface {
	CreateContext(ctx context.Context, baseTurnID uint64) (*cxdbclient.ContextHead, error)
	AppendTurn(ctx context.Context, req *cxdbclient.AppendRequest) (*cxdbclient.AppendResult, error)
}

// Option configures the cxdb transport.
type Option func(*config)

type config struct {
	orphanLabels []string
	clientTag    string
}

// WithOrphanLabels sets labels for orphan event contexts.
func WithOrphanLabels(labels []string) Option {
	return func(c *config) {
		c.orphanLabels = labels
	}
}

// WithClientTag sets the client tag for orphan contexts.
func WithClientTag(tag string) Option {
	return func(c *config) {
		c.clientTag = tag
	}
}

// Transport writes events to cxdb as SystemMessage items.
type Transport struct {
	client       CXDBClient
	orphanLabels []string
	clientTag    string
}

var _ aisen.Transport = (*Transport)(nil)

// New creates a transport that writes to cxdb.
//
// Events carrying a cxdb context ID are appended to that context; all others
// go to a freshly created orphan context.
func New(client CXDBClient, opts ...Option) *Transport {
	cfg := &config{
		orphanLabels: []string{"error", "unlinked"},
		clientTag:    "aisen",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Transport{
		client:       client,
		orphanLabels: cfg.orphanLabels,
		clientTag:    cfg.clientTag,
	}
}

// SendEnvelope persists the envelope's event to cxdb.
func (t *Transport) SendEnvelope(ctx context.Context, envelope *aisen.Envelope) (aisen.Response, error) {
	id, _ := envelope.EventID()
	payload, ok := envelope.EventPayload()
	if !ok {
		return aisen.Response{Status: aisen.StatusDropped, EventID: id}, nil
	}
	event := gjson.ParseBytes(payload)

	var contextID uint64
	isOrphan := false

	if cid := event.Get("contexts.cxdb.context_id"); cid.Exists() {
		contextID = cid.Uint()
	} else {
		// Create orphan context
		head, err := t.client.CreateContext(ctx, 0)
		if err != nil {
			return aisen.Response{EventID: id}, fmt.Errorf("create orphan context: %w", err)
		}
		contextID = head.ContextID
		isOrphan = true
	}

	// Build the canonical ConversationItem payload.
	item := t.buildConversationItem(id, event, string(payload), isOrphan)

	// Encode to msgpack using the official cxdb encoder.
	encoded, err := cxdbclient.EncodeMsgpack(item)
	if err != nil {
		return aisen.Response{EventID: id}, fmt.Errorf("encode payload: %w", err)
	}

	// Append to context using canonical type identifiers.
	req := &cxdbclient.AppendRequest{
		ContextID:      contextID,
		ParentTurnID:   0,
		TypeID:         cxdtypes.TypeIDConversationItem,
		TypeVersion:    cxdtypes.TypeVersionConversationItem,
		Payload:        encoded,
		IdempotencyKey: string(id),
	}

	if _, err := t.client.AppendTurn(ctx, req); err != nil {
		return aisen.Response{EventID: id}, fmt.Errorf("append turn: %w", err)
	}

	return aisen.Response{Status: aisen.StatusSuccess, EventID: id}, nil
}

// buildConversationItem creates a canonical ConversationItem for an event.
// The item content is the event payload itself.
func (t *Transport) buildConversationItem(id aisen.EventID, event gjson.Result, content string, isOrphan bool) *cxdtypes.ConversationItem {
	timestamp := time.Now()
	if ts, err := time.Parse(time.RFC3339Nano, event.Get("timestamp").String()); err == nil {
		timestamp = ts
	}

	item := &cxdtypes.ConversationItem{
		ItemType:  cxdtypes.ItemTypeSystem,
		Status:    cxdtypes.ItemStatusComplete,
		Timestamp: timestamp.UnixMilli(),
		ID:        string(id),
		System: &cxdtypes.SystemMessage{
			Kind:    cxdtypes.SystemKindError,
			Title:   buildTitle(event),
			Content: content,
		},
	}

	// Add context metadata for orphan contexts. cxdb expects this on the first turn.
	if isOrphan {
		item.ContextMetadata = &cxdtypes.ContextMetadata{
			Labels:    t.orphanLabels,
			ClientTag: t.clientTag,
		}
	}

	return item
}

// buildTitle returns "type: truncated message" for the outermost exception,
// or the level and message for message events.
func buildTitle(event gjson.Result) string {
	kind := event.Get("level").String()
	msg := event.Get("message").String()
	if exceptions := event.Get("exception.values").Array(); len(exceptions) > 0 {
		outer := exceptions[len(exceptions)-1]
		kind = outer.Get("type").String()
		msg = outer.Get("value").String()
	}

	title := kind
	if msg != "" {
		const maxMsgLen = 80
		if len(msg) > maxMsgLen {
			msg = msg[:maxMsgLen] + "..."
		}
		title = kind + ": " + msg
	}

	// Truncate title to 100 chars
	if len(title) > 100 {
		title = title[:97] + "..."
	}
	return title
}

// Flush is a no-op for the cxdb transport (writes are synchronous).
func (t *Transport) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op for the cxdb transport.
func (t *Transport) Close() error {
	return nil
}

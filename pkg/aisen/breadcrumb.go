// breadcrumb.go defines the breadcrumb trail entries attached to a Scope.

package aisen

import (
	"errors"
	"time"
)

// ErrEmptyBreadcrumbMessage is returned when a breadcrumb has no message.
var ErrEmptyBreadcrumbMessage = errors.New("aisen: breadcrumb message is required")

// BreadcrumbLevel indicates the severity of a breadcrumb.
type BreadcrumbLevel string

const (
	BreadcrumbDebug    BreadcrumbLevel = "debug"
	BreadcrumbInfo     BreadcrumbLevel = "info"
	BreadcrumbWarning  BreadcrumbLevel = "warning"
	BreadcrumbError    BreadcrumbLevel = "error"
	BreadcrumbCritical BreadcrumbLevel = "critical"
)

// Breadcrumb is a small contextual trail entry. It is not modified after
// creation; NewBreadcrumb copies the data map it is given.
type Breadcrumb struct {
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
	Type      string            `json:"type,omitempty"`
	Category  string            `json:"category,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	Level     BreadcrumbLevel   `json:"level"`
}

// BreadcrumbOptions holds the optional breadcrumb fields.
// The zero value yields an info-level breadcrumb with no type, category or data.
type BreadcrumbOptions struct {
	Type     string
	Category string
	Data     map[string]string
	Level    BreadcrumbLevel
}

// NewBreadcrumb creates a breadcrumb stamped with now.
func NewBreadcrumb(now time.Time, message string, opts BreadcrumbOptions) (Breadcrumb, error) {
	if message == "" {
		return Breadcrumb{}, ErrEmptyBreadcrumbMessage
	}

	level := opts.Level
	if level == "" {
		level = BreadcrumbInfo
	}

	return Breadcrumb{
		Timestamp: now.UTC(),
		Message:   message,
		Type:      opts.Type,
		Category:  opts.Category,
		Data:      copyStringMap(opts.Data),
		Level:     level,
	}, nil
}

// breadcrumbBuffer is a bounded ring buffer of breadcrumbs.
// Once full, adding a breadcrumb evicts the oldest one.
type breadcrumbBuffer struct {
	records  []Breadcrumb
	maxSize  int
	writeIdx int
}

func newBreadcrumbBuffer(maxSize int) *breadcrumbBuffer {
	if maxSize < 0 {
		maxSize = 0
	}
	return &breadcrumbBuffer{maxSize: maxSize}
}

// Add appends a breadcrumb, evicting the oldest if the buffer is full.
func (b *breadcrumbBuffer) Add(crumb Breadcrumb) {
	if b.maxSize == 0 {
		return
	}
	if len(b.records) < b.maxSize {
		b.records = append(b.records, crumb)
		return
	}
	b.records[b.writeIdx] = crumb
	b.writeIdx = (b.writeIdx + 1) % b.maxSize
}

// All returns breadcrumbs in chronological order (oldest first) as a new slice.
func (b *breadcrumbBuffer) All() []Breadcrumb {
	if len(b.records) == 0 {
		return nil
	}

	result := make([]Breadcrumb, len(b.records))
	if len(b.records) < b.maxSize {
		copy(result, b.records)
		return result
	}

	// writeIdx points at the oldest record once the buffer has wrapped
	n := copy(result, b.records[b.writeIdx:])
	copy(result[n:], b.records[:b.writeIdx])
	return result
}

// Len returns the number of stored breadcrumbs.
func (b *breadcrumbBuffer) Len() int {
	return len(b.records)
}

// Clear drops all breadcrumbs.
func (b *breadcrumbBuffer) Clear() {
	b.records = nil
	b.writeIdx = 0
}

func (b *breadcrumbBuffer) clone() *breadcrumbBuffer {
	return &breadcrumbBuffer{
		records:  b.All(),
		maxSize:  b.maxSize,
		writeIdx: 0,
	}
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

func copyAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

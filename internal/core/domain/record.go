// Package domain holds the shared types that flow through the scrape
// pipeline: extracted records, their grouped form, and delivery targets.
package domain

import "time"

// Record is one observed item scraped from a source page: a scheduled
// match, a catalog title. Records are immutable once extracted.
type Record struct {
	// Category is the raw category label as it appeared on the page
	// (championship name, content type).
	Category string

	// RawDate is the free-text date field as scraped ("hoy", "mañana",
	// "04-05-2024", possibly both). Empty when the page carries none.
	RawDate string

	// Date is the resolved absolute date. Zero when unresolved.
	Date time.Time

	// TimeLabel is the free-form time column ("21:00", "Por confirmar").
	TimeLabel string

	// Title is the item description.
	Title string

	// Extra carries trailing columns such as channel names, in page order.
	Extra []string
}

// GroupKey partitions records by resolved date and canonical category.
type GroupKey struct {
	Date     time.Time
	Category string
}

// RecordGroup is the normalized, grouped form of one scrape. Key insertion
// order is preserved so formatting output stays deterministic. Rebuilt on
// every run, never persisted.
type RecordGroup struct {
	keys   []GroupKey
	items  map[GroupKey][]Record
	labels map[string]string
}

// NewRecordGroup returns an empty group.
func NewRecordGroup() *RecordGroup {
	return &RecordGroup{
		items:  make(map[GroupKey][]Record),
		labels: make(map[string]string),
	}
}

// Add appends a record under the given key, registering the display label
// for the canonical category on first sight.
func (g *RecordGroup) Add(key GroupKey, label string, rec Record) {
	if _, ok := g.items[key]; !ok {
		g.keys = append(g.keys, key)
	}

	g.items[key] = append(g.items[key], rec)

	if _, ok := g.labels[key.Category]; !ok && label != "" {
		g.labels[key.Category] = label
	}
}

// Keys returns group keys in first-insertion order.
func (g *RecordGroup) Keys() []GroupKey {
	return g.keys
}

// Records returns the records stored under key, in insertion order.
func (g *RecordGroup) Records(key GroupKey) []Record {
	return g.items[key]
}

// Label returns the display label for a canonical category. Falls back to
// the canonical key itself when no label was registered.
func (g *RecordGroup) Label(category string) string {
	if label, ok := g.labels[category]; ok {
		return label
	}

	return category
}

// Empty reports whether the group holds no records.
func (g *RecordGroup) Empty() bool {
	return len(g.keys) == 0
}

// Size returns the total record count across all keys.
func (g *RecordGroup) Size() int {
	total := 0
	for _, key := range g.keys {
		total += len(g.items[key])
	}

	return total
}

// Destination identifies where formatted blocks are delivered: a chat plus
// an optional forum topic. ThreadID zero means no topic routing.
type Destination struct {
	ChatID   int64
	ThreadID int64
}

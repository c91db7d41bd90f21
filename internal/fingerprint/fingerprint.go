// Package fingerprint computes the stable digest used to decide whether
// scraped content changed since the last delivered run.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/davidromeor/telegram-agenda-bot/internal/core/domain"
)

const dateLayout = "2006-01-02"

// entry is one (category, date) bucket in its canonical serialized form.
type entry struct {
	Category string   `json:"category"`
	Date     string   `json:"date"`
	Items    []string `json:"items"`
}

type document struct {
	Version int     `json:"v"`
	Marker  string  `json:"marker"`
	Entries []entry `json:"entries"`
}

// Compute serializes the group with deterministic key ordering and hashes
// it together with the page's "last updated" marker. The digest is a pure
// function of its inputs: identical groups produce identical digests no
// matter the insertion order of their keys.
func Compute(group *domain.RecordGroup, marker string) string {
	doc := document{
		Version: 1,
		Marker:  strings.TrimSpace(marker),
	}

	for _, key := range group.Keys() {
		e := entry{
			Category: key.Category,
			Items:    make([]string, 0, len(group.Records(key))),
		}

		if !key.Date.IsZero() {
			e.Date = key.Date.Format(dateLayout)
		}

		for _, rec := range group.Records(key) {
			e.Items = append(e.Items, itemLine(rec))
		}

		doc.Entries = append(doc.Entries, e)
	}

	sort.Slice(doc.Entries, func(i, j int) bool {
		if doc.Entries[i].Category != doc.Entries[j].Category {
			return doc.Entries[i].Category < doc.Entries[j].Category
		}

		return doc.Entries[i].Date < doc.Entries[j].Date
	})

	// Marshal cannot fail for this shape.
	serialized, _ := json.Marshal(doc)

	digest := sha256.Sum256(serialized)

	return hex.EncodeToString(digest[:])
}

func itemLine(rec domain.Record) string {
	parts := []string{rec.TimeLabel, rec.Title}
	parts = append(parts, rec.Extra...)

	return strings.Join(parts, " | ")
}

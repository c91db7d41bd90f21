// Package extract turns rendered page markup into ordered records using
// source-specific selectors. Selectors are inherently fragile against page
// redesigns; extraction tolerates missing sub-elements by yielding empty
// fields instead of failing the run.
package extract

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/davidromeor/telegram-agenda-bot/internal/core/domain"
)

// Result is the outcome of one extraction pass.
type Result struct {
	// Records in page order. May be empty; an empty page is a valid
	// "no content" observation, not an error.
	Records []domain.Record

	// Marker is the page's own "last updated" text, when present.
	Marker string
}

// Extractor parses one source's markup.
type Extractor interface {
	Name() string
	Extract(html string) (Result, error)
}

// MarkerTime parses a free-form "last updated" marker opportunistically.
// Returns the zero time when the marker carries no parseable timestamp.
func MarkerTime(marker string) time.Time {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return time.Time{}
	}

	t, err := dateparse.ParseAny(marker)
	if err != nil {
		return time.Time{}
	}

	return t
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Package normalize canonicalizes extracted records: it resolves relative
// dates against the run's reference date, drops boilerplate lines,
// deduplicates, and groups records by (date, category).
package normalize

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/davidromeor/telegram-agenda-bot/internal/core/domain"
)

const literalDateLayout = "02-01-2006"

var literalDateExpr = regexp.MustCompile(`\b(\d{2}-\d{2}-\d{4})\b`)

// foldTransformer lowercases and strips diacritics so that "Película" and
// "pelicula" compare equal.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// DefaultDenylist drops the boilerplate the source pages append below the
// data: legal footers and promotional banners.
var DefaultDenylist = []string{
	"todos los derechos reservados",
	"aviso legal",
	"política de privacidad",
	"descarga nuestra app",
	"síguenos en",
	"publicidad",
}

// Normalizer holds the cleanup configuration.
type Normalizer struct {
	denylist []string
}

// New creates a normalizer with the given boilerplate denylist. A nil
// denylist falls back to DefaultDenylist.
func New(denylist []string) *Normalizer {
	if denylist == nil {
		denylist = DefaultDenylist
	}

	folded := make([]string, 0, len(denylist))
	for _, entry := range denylist {
		folded = append(folded, Fold(entry))
	}

	return &Normalizer{denylist: folded}
}

// Normalize groups records by (resolved date, canonical category),
// preserving first-seen order within each group and across groups.
func (n *Normalizer) Normalize(records []domain.Record, refDate time.Time) *domain.RecordGroup {
	group := domain.NewRecordGroup()
	seen := make(map[string]struct{})

	for _, rec := range records {
		rec.Title = strings.TrimSpace(rec.Title)
		rec.TimeLabel = strings.TrimSpace(rec.TimeLabel)

		if n.isBoilerplate(rec) {
			continue
		}

		rec.Date = ResolveDate(rec.RawDate, refDate)

		canonical := CanonicalCategory(rec.Category)

		dedupKey := canonical + "\x00" + rec.Date.Format(literalDateLayout) + "\x00" + recordLine(rec)
		if _, ok := seen[dedupKey]; ok {
			continue
		}

		seen[dedupKey] = struct{}{}

		key := domain.GroupKey{Date: rec.Date, Category: canonical}
		group.Add(key, strings.TrimSpace(rec.Category), rec)
	}

	return group
}

// ResolveDate resolves a free-text date against the reference date.
// A literal DD-MM-YYYY always wins; the hoy/mañana tokens (accented or
// not) resolve to the reference date and the day after. Returns the zero
// time when nothing resolves.
func ResolveDate(raw string, refDate time.Time) time.Time {
	folded := Fold(raw)

	if match := literalDateExpr.FindString(raw); match != "" {
		if parsed, err := time.Parse(literalDateLayout, match); err == nil {
			return parsed
		}
	}

	day := dateOnly(refDate)

	switch {
	case strings.Contains(folded, "manana"):
		return day.AddDate(0, 0, 1)
	case strings.Contains(folded, "hoy"):
		return day
	}

	return time.Time{}
}

// CanonicalCategory folds a category label into its matching bucket key:
// lowercased, diacritics stripped, trailing plural "s" trimmed.
func CanonicalCategory(label string) string {
	key := Fold(label)

	if len(key) > 3 && strings.HasSuffix(key, "s") {
		key = strings.TrimSuffix(key, "s")
	}

	return key
}

// Fold lowercases s and strips diacritics.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}

	return folded
}

func (n *Normalizer) isBoilerplate(rec domain.Record) bool {
	line := Fold(recordLine(rec))

	for _, entry := range n.denylist {
		if entry != "" && strings.Contains(line, entry) {
			return true
		}
	}

	return false
}

// recordLine is the cleaned, comparable text form of a record.
func recordLine(rec domain.Record) string {
	parts := []string{rec.TimeLabel, rec.Title}
	parts = append(parts, rec.Extra...)

	return strings.Join(parts, " | ")
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

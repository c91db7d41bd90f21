// Package format renders a normalized record group into size-capped,
// human-readable message blocks.
package format

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/davidromeor/telegram-agenda-bot/internal/core/domain"
)

const (
	// DefaultBlockLimit stays under Telegram's 4096 hard cap with margin
	// for markup overhead.
	DefaultBlockLimit = 3900

	displayDateLayout = "02-01-2006"
	bulletPrefix      = "• "
	fieldSeparator    = " | "
	defaultIcon       = "📌"
)

// categoryIcons maps canonical category keywords to header icons, matched
// in order against the canonical category key. Unmapped categories fall
// back to defaultIcon.
var categoryIcons = []struct {
	keyword string
	icon    string
}{
	{"liga", "🏆"},
	{"copa", "🏆"},
	{"champion", "🏆"},
	{"mundial", "🏆"},
	{"futbol", "⚽"},
	{"baloncesto", "🏀"},
	{"tenis", "🎾"},
	{"deporte", "🏅"},
	{"pelicula", "🎬"},
	{"serie", "📺"},
	{"documental", "🎞️"},
	{"aplicacion", "📱"},
	{"app", "📱"},
}

func categoryIcon(category string) string {
	for _, entry := range categoryIcons {
		if strings.Contains(category, entry.keyword) {
			return entry.icon
		}
	}

	return defaultIcon
}

// Formatter renders one source's groups.
type Formatter struct {
	// Title heads the summary block ("Agenda deportiva").
	Title string

	// Limit is the maximum block length in runes.
	Limit int
}

// New creates a formatter with the default block limit.
func New(title string) *Formatter {
	return &Formatter{Title: title, Limit: DefaultBlockLimit}
}

// Format produces the ordered blocks for delivery: a leading summary
// block, then one or more blocks per (date, category) partition. When a
// partition outgrows the limit, it continues in a new block that re-emits
// the category header so every block stays self-describing.
func (f *Formatter) Format(group *domain.RecordGroup, asOf time.Time) []string {
	if group.Empty() {
		return []string{f.emptyNotice(asOf)}
	}

	blocks := []string{f.summary(group, asOf)}

	for _, key := range group.Keys() {
		blocks = append(blocks, f.categoryBlocks(group, key)...)
	}

	return blocks
}

func (f *Formatter) summary(group *domain.RecordGroup, asOf time.Time) string {
	categories := make(map[string]struct{})
	for _, key := range group.Keys() {
		categories[key.Category] = struct{}{}
	}

	return fmt.Sprintf("<b>📣 %s — %s</b>\n%d elementos en %d categorías",
		html.EscapeString(f.Title), asOf.Format(displayDateLayout), group.Size(), len(categories))
}

func (f *Formatter) emptyNotice(asOf time.Time) string {
	return fmt.Sprintf("<b>📣 %s — %s</b>\nℹ️ No hay contenido disponible por ahora.",
		html.EscapeString(f.Title), asOf.Format(displayDateLayout))
}

func (f *Formatter) categoryBlocks(group *domain.RecordGroup, key domain.GroupKey) []string {
	header := f.header(group.Label(key.Category), key)

	var (
		blocks  []string
		current strings.Builder
	)

	current.WriteString(header)

	headerLen := runeLen(header)
	length := headerLen

	for _, rec := range group.Records(key) {
		line := itemLine(rec)

		if lineLen := runeLen(line); headerLen+1+lineLen > f.Limit {
			// A single item that cannot fit under any header is cut.
			line = truncate(line, max(f.Limit-headerLen-2, 0)) + "…"
		}

		if length+1+runeLen(line) > f.Limit {
			blocks = append(blocks, current.String())
			current.Reset()
			current.WriteString(header)
			length = headerLen
		}

		current.WriteByte('\n')
		current.WriteString(line)
		length += 1 + runeLen(line)
	}

	blocks = append(blocks, current.String())

	return blocks
}

func (f *Formatter) header(label string, key domain.GroupKey) string {
	icon := categoryIcon(key.Category)

	display := html.EscapeString(label)
	if key.Date.IsZero() {
		return fmt.Sprintf("<b>%s %s</b>", icon, display)
	}

	return fmt.Sprintf("<b>%s %s — %s</b>", icon, display, key.Date.Format(displayDateLayout))
}

func itemLine(rec domain.Record) string {
	parts := make([]string, 0, 3)

	if rec.TimeLabel != "" {
		parts = append(parts, html.EscapeString(rec.TimeLabel))
	}

	parts = append(parts, html.EscapeString(rec.Title))

	if len(rec.Extra) > 0 {
		parts = append(parts, html.EscapeString(strings.Join(rec.Extra, ", ")))
	}

	return bulletPrefix + strings.Join(parts, fieldSeparator)
}

func runeLen(s string) int {
	return len([]rune(s))
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit])
}

package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/davidromeor/telegram-agenda-bot/internal/core/domain"
)

// Agenda page selectors. The schedule is a single table mixing section
// header rows (one per championship) with event rows.
const (
	agendaRowSelector    = "table.agenda tr, table#agenda tr"
	agendaHeaderClass    = "cabecera"
	agendaEventClass     = "evento"
	agendaDateSelector   = ".fecha"
	agendaTimeSelector   = ".hora"
	agendaTitleSelector  = ".descripcion"
	agendaChannelsSel    = ".canales span, .canal"
	agendaMarkerSelector = ".actualizacion, .last-updated"
)

// AgendaExtractor parses the sports-schedule page.
type AgendaExtractor struct{}

// NewAgendaExtractor returns the schedule extractor.
func NewAgendaExtractor() *AgendaExtractor {
	return &AgendaExtractor{}
}

// Name identifies the source.
func (e *AgendaExtractor) Name() string {
	return "agenda"
}

// Extract walks the schedule table. Header rows switch the current
// championship; event rows become records under it. Rows that are neither
// are skipped.
func (e *AgendaExtractor) Extract(html string) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Result{}, fmt.Errorf("parse agenda markup: %w", err)
	}

	var (
		result   Result
		category string
	)

	doc.Find(agendaRowSelector).Each(func(_ int, row *goquery.Selection) {
		if row.HasClass(agendaHeaderClass) {
			if label := cleanText(row.Text()); label != "" {
				category = label
			}

			return
		}

		if !row.HasClass(agendaEventClass) {
			return
		}

		rec := domain.Record{
			Category:  category,
			RawDate:   cleanText(row.Find(agendaDateSelector).First().Text()),
			TimeLabel: cleanText(row.Find(agendaTimeSelector).First().Text()),
			Title:     cleanText(row.Find(agendaTitleSelector).First().Text()),
		}

		row.Find(agendaChannelsSel).Each(func(_ int, ch *goquery.Selection) {
			if name := cleanText(ch.Text()); name != "" {
				rec.Extra = append(rec.Extra, name)
			}
		})

		result.Records = append(result.Records, rec)
	})

	result.Marker = cleanText(doc.Find(agendaMarkerSelector).First().Text())

	return result, nil
}

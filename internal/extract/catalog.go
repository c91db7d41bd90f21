package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/davidromeor/telegram-agenda-bot/internal/core/domain"
)

// Catalog page selectors. Titles are grouped into sections per content
// type, each section headed by its label.
const (
	catalogSectionSelector = "section.categoria, div.categoria"
	catalogLabelSelector   = "h2, .titulo-categoria"
	catalogItemSelector    = "li.item, div.item"
	catalogNameSelector    = ".nombre, .titulo"
	catalogDateSelector    = ".fecha"
	catalogTagSelector     = ".etiqueta"
	catalogMarkerSelector  = ".actualizacion, .last-updated"
)

// CatalogExtractor parses the content-catalog page.
type CatalogExtractor struct{}

// NewCatalogExtractor returns the catalog extractor.
func NewCatalogExtractor() *CatalogExtractor {
	return &CatalogExtractor{}
}

// Name identifies the source.
func (e *CatalogExtractor) Name() string {
	return "catalogo"
}

// Extract walks catalog sections and their items in page order.
func (e *CatalogExtractor) Extract(html string) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Result{}, fmt.Errorf("parse catalog markup: %w", err)
	}

	var result Result

	doc.Find(catalogSectionSelector).Each(func(_ int, section *goquery.Selection) {
		category := cleanText(section.Find(catalogLabelSelector).First().Text())

		section.Find(catalogItemSelector).Each(func(_ int, item *goquery.Selection) {
			rec := domain.Record{
				Category: category,
				RawDate:  cleanText(item.Find(catalogDateSelector).First().Text()),
				Title:    cleanText(item.Find(catalogNameSelector).First().Text()),
			}

			if rec.Title == "" {
				// An item without even a name is structural noise.
				return
			}

			item.Find(catalogTagSelector).Each(func(_ int, tag *goquery.Selection) {
				if label := cleanText(tag.Text()); label != "" {
					rec.Extra = append(rec.Extra, label)
				}
			})

			result.Records = append(result.Records, rec)
		})
	})

	result.Marker = cleanText(doc.Find(catalogMarkerSelector).First().Text())

	return result, nil
}

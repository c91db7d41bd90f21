package format

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidromeor/telegram-agenda-bot/internal/core/domain"
	"github.com/davidromeor/telegram-agenda-bot/internal/normalize"
)

var asOf = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC)
}

func ligaGroup() *domain.RecordGroup {
	records := []domain.Record{
		{Category: "Liga X", RawDate: "hoy", TimeLabel: "21:00", Title: "A vs B", Extra: []string{"Canal 1", "Canal 2"}},
		{Category: "Liga X", RawDate: "hoy", TimeLabel: "23:00", Title: "C vs D"},
		{Category: "Liga X", RawDate: "mañana", TimeLabel: "19:30", Title: "E vs F"},
	}

	return normalize.New(nil).Normalize(records, asOf)
}

func TestFormatExampleScenario(t *testing.T) {
	// Two rows for today and one for tomorrow under Liga X yield a
	// summary block plus one block per (date, category) partition, each
	// headed by the championship icon.
	blocks := New("Agenda deportiva").Format(ligaGroup(), asOf)

	require.Len(t, blocks, 3)

	assert.Contains(t, blocks[0], "Agenda deportiva")
	assert.Contains(t, blocks[0], "3 elementos en 1 categorías")

	assert.Contains(t, blocks[1], "🏆 Liga X — 01-05-2024")
	assert.Contains(t, blocks[1], "• 21:00 | A vs B | Canal 1, Canal 2")
	assert.Contains(t, blocks[1], "• 23:00 | C vs D")

	assert.Contains(t, blocks[2], "🏆 Liga X — 02-05-2024")
	assert.Contains(t, blocks[2], "• 19:30 | E vs F")
}

func TestFormatDefaultIcon(t *testing.T) {
	records := []domain.Record{{Category: "Cosas Raras", Title: "algo"}}
	group := normalize.New(nil).Normalize(records, asOf)

	blocks := New("Agenda").Format(group, asOf)

	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[1], "📌 Cosas Raras")
}

func TestFormatEmptyGroupNotice(t *testing.T) {
	blocks := New("Agenda deportiva").Format(domain.NewRecordGroup(), asOf)

	require.Len(t, blocks, 1)
	assert.Contains(t, blocks[0], "No hay contenido disponible")
}

func TestFormatBlockSizeBound(t *testing.T) {
	group := domain.NewRecordGroup()
	key := domain.GroupKey{Date: day(1), Category: "liga x"}

	for i := 0; i < 200; i++ {
		group.Add(key, "Liga X", domain.Record{
			TimeLabel: "21:00",
			Title:     strings.Repeat("partido muy largo ", 5),
		})
	}

	f := New("Agenda")
	f.Limit = 500

	blocks := f.Format(group, asOf)

	require.Greater(t, len(blocks), 2)

	for i, block := range blocks {
		assert.LessOrEqual(t, len([]rune(block)), 500, "block %d over limit", i)
	}
}

func TestFormatReemitsHeaderOnContinuation(t *testing.T) {
	group := domain.NewRecordGroup()
	key := domain.GroupKey{Date: day(1), Category: "liga x"}

	for i := 0; i < 50; i++ {
		group.Add(key, "Liga X", domain.Record{TimeLabel: "21:00", Title: strings.Repeat("x", 60)})
	}

	f := New("Agenda")
	f.Limit = 400

	blocks := f.Format(group, asOf)
	require.Greater(t, len(blocks), 2)

	// Every category block, continuation or not, carries the header.
	for _, block := range blocks[1:] {
		assert.Contains(t, block, "🏆 Liga X — 01-05-2024")
	}
}

func TestFormatLimitSmallerThanHeader(t *testing.T) {
	// A limit below the header length must degrade, not panic: every item
	// is cut to the ellipsis and each block still carries the header.
	group := domain.NewRecordGroup()
	key := domain.GroupKey{Date: day(1), Category: "liga x"}
	group.Add(key, "Liga X", domain.Record{TimeLabel: "21:00", Title: "A vs B"})

	f := New("Agenda")
	f.Limit = 10

	blocks := f.Format(group, asOf)

	require.NotEmpty(t, blocks)
	assert.Contains(t, blocks[len(blocks)-1], "🏆 Liga X — 01-05-2024")
	assert.Contains(t, blocks[len(blocks)-1], "…")
}

func TestFormatConcatenationPreservesItems(t *testing.T) {
	group := domain.NewRecordGroup()
	key := domain.GroupKey{Date: day(1), Category: "liga x"}

	total := 40
	for i := 0; i < total; i++ {
		group.Add(key, "Liga X", domain.Record{TimeLabel: "21:00", Title: strings.Repeat("y", 50)})
	}

	f := New("Agenda")
	f.Limit = 300

	blocks := f.Format(group, asOf)

	count := 0
	for _, block := range blocks[1:] {
		count += strings.Count(block, "• ")
	}

	assert.Equal(t, total, count)
}

func TestFormatEscapesMarkup(t *testing.T) {
	records := []domain.Record{{Category: "Liga X", Title: "A <b> & B"}}
	group := normalize.New(nil).Normalize(records, asOf)

	blocks := New("Agenda").Format(group, asOf)

	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[1], "A &lt;b&gt; &amp; B")
}

package fingerprint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/davidromeor/telegram-agenda-bot/internal/core/domain"
)

func buildGroup(keys ...string) *domain.RecordGroup {
	group := domain.NewRecordGroup()
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for _, cat := range keys {
		key := domain.GroupKey{Date: date, Category: cat}
		group.Add(key, cat, domain.Record{Category: cat, TimeLabel: "21:00", Title: "A vs B"})
	}

	return group
}

func TestComputeIdempotent(t *testing.T) {
	group := buildGroup("liga", "copa")

	assert.Equal(t, Compute(group, "m"), Compute(group, "m"))
}

func TestComputeIgnoresCategoryInsertionOrder(t *testing.T) {
	assert.Equal(t, Compute(buildGroup("liga", "copa"), ""), Compute(buildGroup("copa", "liga"), ""))
}

func TestComputeDetectsAddedItem(t *testing.T) {
	base := buildGroup("liga")

	extended := buildGroup("liga")
	key := domain.GroupKey{Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Category: "liga"}
	extended.Add(key, "liga", domain.Record{Category: "liga", TimeLabel: "23:00", Title: "C vs D"})

	assert.NotEqual(t, Compute(base, ""), Compute(extended, ""))
}

func TestComputeDetectsMarkerChange(t *testing.T) {
	group := buildGroup("liga")

	assert.NotEqual(t, Compute(group, "updated 09:00"), Compute(group, "updated 10:00"))
}

func TestComputeItemOrderWithinCategoryMatters(t *testing.T) {
	key := domain.GroupKey{Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Category: "liga"}

	a := domain.NewRecordGroup()
	a.Add(key, "liga", domain.Record{TimeLabel: "19:00", Title: "A"})
	a.Add(key, "liga", domain.Record{TimeLabel: "21:00", Title: "B"})

	b := domain.NewRecordGroup()
	b.Add(key, "liga", domain.Record{TimeLabel: "21:00", Title: "B"})
	b.Add(key, "liga", domain.Record{TimeLabel: "19:00", Title: "A"})

	assert.NotEqual(t, Compute(a, ""), Compute(b, ""))
}

func TestComputeEmptyGroup(t *testing.T) {
	empty := domain.NewRecordGroup()

	assert.Equal(t, Compute(empty, ""), Compute(domain.NewRecordGroup(), ""))
	assert.NotEqual(t, Compute(empty, ""), Compute(buildGroup("liga"), ""))
	assert.Len(t, Compute(empty, ""), 64)
}

package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidromeor/telegram-agenda-bot/internal/core/domain"
	"github.com/davidromeor/telegram-agenda-bot/internal/dispatch"
	"github.com/davidromeor/telegram-agenda-bot/internal/extract"
	"github.com/davidromeor/telegram-agenda-bot/internal/format"
	"github.com/davidromeor/telegram-agenda-bot/internal/normalize"
	"github.com/davidromeor/telegram-agenda-bot/internal/scrape"
	"github.com/davidromeor/telegram-agenda-bot/internal/state"
)

type fakeRenderer struct {
	html    string
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeRenderer) Render(_ context.Context, _ string, _ scrape.Policy) (string, error) {
	if f.started != nil {
		close(f.started)
	}

	if f.release != nil {
		<-f.release
	}

	return f.html, f.err
}

type fakeExtractor struct {
	result extract.Result
	err    error
}

func (f *fakeExtractor) Name() string { return "agenda" }

func (f *fakeExtractor) Extract(_ string) (extract.Result, error) {
	return f.result, f.err
}

type fakeDeliverer struct {
	mu       sync.Mutex
	calls    int
	blocks   [][]string
	dests    []domain.Destination
	outcomes []dispatch.Outcome
}

func (f *fakeDeliverer) Deliver(_ context.Context, blocks []string, dest domain.Destination, _ string) dispatch.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.blocks = append(f.blocks, blocks)
	f.dests = append(f.dests, dest)

	if len(f.outcomes) > 0 {
		outcome := f.outcomes[0]
		f.outcomes = f.outcomes[1:]

		return outcome
	}

	return dispatch.Outcome{Status: dispatch.StatusDelivered, Sent: len(blocks), Total: len(blocks)}
}

func testRecords() []domain.Record {
	return []domain.Record{
		{Category: "Liga X", RawDate: "hoy", TimeLabel: "21:00", Title: "A vs B"},
		{Category: "Liga X", RawDate: "mañana", TimeLabel: "19:30", Title: "C vs D"},
	}
}

type fixture struct {
	runner    *Runner
	store     *state.Store
	deliverer *fakeDeliverer
	renderer  *fakeRenderer
	extractor *fakeExtractor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := zerolog.Nop()
	store := state.NewStore(t.TempDir(), "agenda", &logger)
	deliverer := &fakeDeliverer{}
	renderer := &fakeRenderer{html: "<html></html>"}
	extractor := &fakeExtractor{result: extract.Result{Records: testRecords(), Marker: "Actualizado 09:00"}}

	source := Source{
		Name:      "agenda",
		URL:       "https://example.com/agenda",
		Extractor: extractor,
		Formatter: format.New("Agenda deportiva"),
		Dest:      domain.Destination{ChatID: -100123, ThreadID: 7},
	}

	runner := NewRunner(source, renderer, normalize.New(nil), store, deliverer, time.UTC, &logger)

	return &fixture{
		runner:    runner,
		store:     store,
		deliverer: deliverer,
		renderer:  renderer,
		extractor: extractor,
	}
}

func TestRunDeliversChangedContent(t *testing.T) {
	f := newFixture(t)

	result, err := f.runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ResultDelivered, result)
	assert.Equal(t, 1, f.deliverer.calls)

	saved := f.store.Load()
	assert.False(t, saved.Empty())
	assert.Equal(t, "Actualizado 09:00", saved.Marker)
}

func TestRunUnchangedProducesNoDelivery(t *testing.T) {
	f := newFixture(t)

	_, err := f.runner.Run(context.Background())
	require.NoError(t, err)

	fingerprintAfterFirst := f.store.Load().Fingerprint

	result, err := f.runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ResultUnchanged, result)
	assert.Equal(t, 1, f.deliverer.calls, "second run must not deliver")
	assert.Equal(t, fingerprintAfterFirst, f.store.Load().Fingerprint)
}

func TestRunDetectsContentChange(t *testing.T) {
	f := newFixture(t)

	_, err := f.runner.Run(context.Background())
	require.NoError(t, err)

	f.extractor.result.Records = append(f.extractor.result.Records, domain.Record{
		Category: "Liga X", RawDate: "hoy", TimeLabel: "23:00", Title: "E vs F",
	})

	result, err := f.runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ResultDelivered, result)
	assert.Equal(t, 2, f.deliverer.calls)
}

func TestRunPartialDeliveryDoesNotAdvanceState(t *testing.T) {
	f := newFixture(t)

	f.deliverer.outcomes = []dispatch.Outcome{
		{Status: dispatch.StatusPartial, Sent: 1, Total: 3, Err: errors.New("chat not found")},
	}

	result, err := f.runner.Run(context.Background())

	assert.Equal(t, ResultFailed, result)
	require.ErrorIs(t, err, ErrDeliveryPartial)
	assert.True(t, f.store.Load().Empty(), "state must not advance after a partial delivery")

	// The next run retries the same content.
	result, err = f.runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ResultDelivered, result)
}

func TestRunTotalDeliveryFailure(t *testing.T) {
	f := newFixture(t)

	f.deliverer.outcomes = []dispatch.Outcome{
		{Status: dispatch.StatusFailed, Sent: 0, Total: 3, Err: errors.New("unreachable")},
	}

	result, err := f.runner.Run(context.Background())

	assert.Equal(t, ResultFailed, result)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.True(t, f.store.Load().Empty())
}

func TestRunFetchFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	f.renderer.err = errors.New("timeout")
	f.renderer.html = ""

	result, err := f.runner.Run(context.Background())

	assert.Equal(t, ResultFailed, result)
	assert.Error(t, err)
	assert.Zero(t, f.deliverer.calls, "no delivery after a fetch failure")
	assert.True(t, f.store.Load().Empty())
}

func TestRunEmptyExtractionIsDeliverableOnce(t *testing.T) {
	f := newFixture(t)
	f.extractor.result = extract.Result{}

	result, err := f.runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ResultDelivered, result)
	require.Len(t, f.deliverer.blocks, 1)
	require.Len(t, f.deliverer.blocks[0], 1)
	assert.Contains(t, f.deliverer.blocks[0][0], "No hay contenido disponible")

	// Still empty next run: no change, no re-notification.
	result, err = f.runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ResultUnchanged, result)
	assert.Equal(t, 1, f.deliverer.calls)
}

func TestRunOverlappingTriggerSkips(t *testing.T) {
	f := newFixture(t)
	f.renderer.started = make(chan struct{})
	f.renderer.release = make(chan struct{})

	firstDone := make(chan struct{})

	go func() {
		defer close(firstDone)

		_, _ = f.runner.Run(context.Background())
	}()

	<-f.renderer.started

	result, err := f.runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ResultSkipped, result)

	close(f.renderer.release)
	<-firstDone
}

func TestPreviewDoesNotTouchState(t *testing.T) {
	f := newFixture(t)

	dest := domain.Destination{ChatID: 555}
	require.NoError(t, f.runner.Preview(context.Background(), dest))

	assert.Equal(t, 1, f.deliverer.calls)
	assert.Equal(t, dest, f.deliverer.dests[0])
	assert.True(t, f.store.Load().Empty(), "preview must not persist state")

	// A preview does not suppress the next shared run either.
	result, err := f.runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ResultDelivered, result)
}

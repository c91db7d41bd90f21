// Package pipeline runs the scrape-normalize-diff-deliver sequence for one
// content source and owns its change-detection state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/davidromeor/telegram-agenda-bot/internal/core/domain"
	"github.com/davidromeor/telegram-agenda-bot/internal/dispatch"
	"github.com/davidromeor/telegram-agenda-bot/internal/extract"
	"github.com/davidromeor/telegram-agenda-bot/internal/fingerprint"
	"github.com/davidromeor/telegram-agenda-bot/internal/format"
	"github.com/davidromeor/telegram-agenda-bot/internal/normalize"
	"github.com/davidromeor/telegram-agenda-bot/internal/platform/observability"
	"github.com/davidromeor/telegram-agenda-bot/internal/scrape"
	"github.com/davidromeor/telegram-agenda-bot/internal/state"
)

// Static delivery errors.
var (
	// ErrDeliveryPartial marks a run where some blocks went out before
	// one was abandoned. State is not advanced so the next run retries.
	ErrDeliveryPartial = errors.New("delivery abandoned mid-run")

	// ErrDeliveryFailed marks a run where nothing was delivered.
	ErrDeliveryFailed = errors.New("delivery failed")
)

// Result classifies a completed (or skipped) run.
type Result int

const (
	// ResultSkipped means another run for this source was in progress.
	ResultSkipped Result = iota

	// ResultUnchanged means the fingerprint matched the stored one and
	// nothing was delivered.
	ResultUnchanged

	// ResultDelivered means changed content went out and state advanced.
	ResultDelivered

	// ResultFailed means the run aborted; state did not advance.
	ResultFailed
)

// Metric result labels.
const (
	metricDelivered       = "delivered"
	metricUnchanged       = "unchanged"
	metricSkipped         = "skipped"
	metricFetchError      = "fetch_error"
	metricExtractError    = "extract_error"
	metricDeliveryPartial = "delivery_partial"
	metricDeliveryFailed  = "delivery_failed"
	metricStateError      = "state_error"
)

// Log field names.
const (
	logFieldSource = "source"
	logFieldRunID  = "run_id"
	logFieldStage  = "stage"
)

// Deliverer is the dispatch surface the runner needs.
type Deliverer interface {
	Deliver(ctx context.Context, blocks []string, dest domain.Destination, parseMode string) dispatch.Outcome
}

// Source describes one watched page and where its updates go.
type Source struct {
	Name      string
	URL       string
	Policy    scrape.Policy
	Extractor extract.Extractor
	Formatter *format.Formatter
	Dest      domain.Destination
}

// Runner executes pipeline runs for a single source. At most one run per
// source is in flight at any time; an overlapping trigger no-ops instead
// of racing on the state store.
type Runner struct {
	source     Source
	renderer   scrape.Renderer
	normalizer *normalize.Normalizer
	store      *state.Store
	deliverer  Deliverer
	location   *time.Location
	logger     *zerolog.Logger

	mu sync.Mutex
}

// NewRunner wires a runner for one source.
func NewRunner(
	source Source,
	renderer scrape.Renderer,
	normalizer *normalize.Normalizer,
	store *state.Store,
	deliverer Deliverer,
	location *time.Location,
	logger *zerolog.Logger,
) *Runner {
	return &Runner{
		source:     source,
		renderer:   renderer,
		normalizer: normalizer,
		store:      store,
		deliverer:  deliverer,
		location:   location,
		logger:     logger,
	}
}

// SourceName returns the runner's source name.
func (r *Runner) SourceName() string {
	return r.source.Name
}

// Run executes one scrape-diff-deliver cycle against the source's shared
// destination. State advances only after every block was delivered.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if !r.mu.TryLock() {
		r.logger.Info().Str(logFieldSource, r.source.Name).Msg("run already in progress, skipping trigger")
		observability.PipelineRuns.WithLabelValues(r.source.Name, metricSkipped).Inc()

		return ResultSkipped, nil
	}
	defer r.mu.Unlock()

	logger := r.logger.With().
		Str(logFieldSource, r.source.Name).
		Str(logFieldRunID, uuid.NewString()).
		Logger()

	refDate := time.Now().In(r.location)

	blocks, fp, marker, err := r.observe(ctx, &logger, refDate)
	if err != nil {
		return ResultFailed, err
	}

	stored := r.store.Load()
	if stored.Fingerprint == fp {
		logger.Info().Msg("content unchanged, nothing to deliver")
		observability.PipelineRuns.WithLabelValues(r.source.Name, metricUnchanged).Inc()

		return ResultUnchanged, nil
	}

	observability.ChangesDetected.WithLabelValues(r.source.Name).Inc()
	logger.Info().Int("blocks", len(blocks)).Msg("content changed, delivering")

	outcome := r.deliverer.Deliver(ctx, blocks, r.source.Dest, dispatch.ModeHTML)

	observability.BlocksSent.WithLabelValues(r.source.Name).Add(float64(outcome.Sent))
	observability.BlocksAbandoned.WithLabelValues(r.source.Name).Add(float64(outcome.Total - outcome.Sent))

	if !outcome.Delivered() {
		return ResultFailed, r.deliveryError(&logger, outcome)
	}

	if err := r.store.Save(state.State{Marker: marker, Fingerprint: fp}); err != nil {
		logger.Error().Err(err).Str(logFieldStage, "state").Msg("delivered but could not persist state, next run will re-notify")
		observability.PipelineRuns.WithLabelValues(r.source.Name, metricStateError).Inc()

		return ResultFailed, fmt.Errorf("persist state for %s: %w", r.source.Name, err)
	}

	observability.PipelineRuns.WithLabelValues(r.source.Name, metricDelivered).Inc()

	return ResultDelivered, nil
}

// Preview renders the current content and delivers it to the given
// destination without consulting or advancing state. Used for on-demand
// requests answered privately.
func (r *Runner) Preview(ctx context.Context, dest domain.Destination) error {
	logger := r.logger.With().
		Str(logFieldSource, r.source.Name).
		Str(logFieldRunID, uuid.NewString()).
		Logger()

	refDate := time.Now().In(r.location)

	blocks, _, _, err := r.observe(ctx, &logger, refDate)
	if err != nil {
		return err
	}

	outcome := r.deliverer.Deliver(ctx, blocks, dest, dispatch.ModeHTML)
	if !outcome.Delivered() {
		return r.deliveryError(&logger, outcome)
	}

	return nil
}

// observe runs fetch, extract, normalize, fingerprint, and format. It has
// no side effects beyond metrics and logging.
func (r *Runner) observe(ctx context.Context, logger *zerolog.Logger, refDate time.Time) ([]string, string, string, error) {
	fetchStart := time.Now()

	html, err := r.renderer.Render(ctx, r.source.URL, r.source.Policy)
	if err != nil {
		logger.Error().Err(err).Str(logFieldStage, "fetch").Msg("source unreachable, aborting run")
		observability.PipelineRuns.WithLabelValues(r.source.Name, metricFetchError).Inc()

		return nil, "", "", fmt.Errorf("fetch %s: %w", r.source.Name, err)
	}

	observability.FetchDuration.WithLabelValues(r.source.Name).Observe(time.Since(fetchStart).Seconds())

	extracted, err := r.source.Extractor.Extract(html)
	if err != nil {
		logger.Error().Err(err).Str(logFieldStage, "extract").Msg("cannot parse source markup")
		observability.PipelineRuns.WithLabelValues(r.source.Name, metricExtractError).Inc()

		return nil, "", "", fmt.Errorf("extract %s: %w", r.source.Name, err)
	}

	if len(extracted.Records) == 0 {
		// Valid "no content" observation; it flows through the diff so
		// a transition to empty still notifies once.
		logger.Warn().Str(logFieldStage, "extract").Msg("zero records extracted")
	}

	observability.RecordsExtracted.WithLabelValues(r.source.Name).Set(float64(len(extracted.Records)))

	group := r.normalizer.Normalize(extracted.Records, refDate)
	fp := fingerprint.Compute(group, extracted.Marker)
	blocks := r.source.Formatter.Format(group, refDate)

	if markerTime := extract.MarkerTime(extracted.Marker); !markerTime.IsZero() {
		logger.Debug().Time("source_updated_at", markerTime).Msg("source reports last update")
	}

	return blocks, fp, extracted.Marker, nil
}

func (r *Runner) deliveryError(logger *zerolog.Logger, outcome dispatch.Outcome) error {
	if outcome.Sent > 0 {
		logger.Error().Err(outcome.Err).
			Int("sent", outcome.Sent).
			Int("total", outcome.Total).
			Str(logFieldStage, "deliver").
			Msg("partial delivery, state not advanced")
		observability.PipelineRuns.WithLabelValues(r.source.Name, metricDeliveryPartial).Inc()

		return fmt.Errorf("%w: %d of %d blocks sent: %v", ErrDeliveryPartial, outcome.Sent, outcome.Total, outcome.Err)
	}

	logger.Error().Err(outcome.Err).Str(logFieldStage, "deliver").Msg("delivery failed, state not advanced")
	observability.PipelineRuns.WithLabelValues(r.source.Name, metricDeliveryFailed).Inc()

	return fmt.Errorf("%w: %v", ErrDeliveryFailed, outcome.Err)
}

// Package app wires configuration into the running service: renderers,
// pipelines, the Telegram bot and the daily watcher.
package app

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/davidromeor/telegram-agenda-bot/internal/bot"
	"github.com/davidromeor/telegram-agenda-bot/internal/core/domain"
	"github.com/davidromeor/telegram-agenda-bot/internal/dispatch"
	"github.com/davidromeor/telegram-agenda-bot/internal/extract"
	"github.com/davidromeor/telegram-agenda-bot/internal/format"
	"github.com/davidromeor/telegram-agenda-bot/internal/normalize"
	"github.com/davidromeor/telegram-agenda-bot/internal/pipeline"
	"github.com/davidromeor/telegram-agenda-bot/internal/platform/config"
	"github.com/davidromeor/telegram-agenda-bot/internal/platform/observability"
	"github.com/davidromeor/telegram-agenda-bot/internal/platform/schedule"
	"github.com/davidromeor/telegram-agenda-bot/internal/platform/worker"
	"github.com/davidromeor/telegram-agenda-bot/internal/scrape"
	"github.com/davidromeor/telegram-agenda-bot/internal/state"
)

// Source names double as the bot commands that trigger them.
const (
	sourceAgenda  = "agenda"
	sourceCatalog = "catalogo"
)

const logFieldSource = "source"

// App holds the wired service.
type App struct {
	cfg      *config.Config
	tg       *tgbotapi.BotAPI
	renderer *scrape.ChromeRenderer
	runners  map[string]*pipeline.Runner
	location *time.Location
	logger   *zerolog.Logger
}

// New builds the full dependency graph from configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	trigger := schedule.Daily{Timezone: cfg.Timezone, Time: cfg.DailyTime}
	if err := trigger.Validate(); err != nil {
		return nil, fmt.Errorf("daily trigger: %w", err)
	}

	window := schedule.NightWindow{StartHour: cfg.NightStartHour, EndHour: cfg.NightEndHour}
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("night window: %w", err)
	}

	location, err := trigger.Location()
	if err != nil {
		return nil, err
	}

	tg, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram client: %w", err)
	}

	renderer := scrape.NewChromeRenderer(cfg.ChromeHeadless, logger)
	normalizer := normalize.New(normalize.DefaultDenylist)
	deliverer := dispatch.New(tg, cfg.SendDelay, logger)

	policy := scrape.Policy{
		Timeout: cfg.FetchTimeout,
		Settle:  cfg.FetchSettle,
		Scrolls: cfg.FetchScrolls,
	}

	sources := []pipeline.Source{
		{
			Name:      sourceAgenda,
			URL:       cfg.AgendaURL,
			Policy:    policy,
			Extractor: extract.NewAgendaExtractor(),
			Formatter: newFormatter("Agenda deportiva", cfg.MessageLimit),
			Dest:      domain.Destination{ChatID: cfg.TargetChatID, ThreadID: cfg.AgendaThreadID},
		},
		{
			Name:      sourceCatalog,
			URL:       cfg.CatalogURL,
			Policy:    policy,
			Extractor: extract.NewCatalogExtractor(),
			Formatter: newFormatter("Novedades del catálogo", cfg.MessageLimit),
			Dest:      domain.Destination{ChatID: cfg.TargetChatID, ThreadID: cfg.CatalogThreadID},
		},
	}

	runners := make(map[string]*pipeline.Runner, len(sources))
	for _, src := range sources {
		store := state.NewStore(cfg.StateDir, src.Name, logger)
		runners[src.Name] = pipeline.NewRunner(src, renderer, normalizer, store, deliverer, location, logger)
	}

	return &App{
		cfg:      cfg,
		tg:       tg,
		renderer: renderer,
		runners:  runners,
		location: location,
		logger:   logger,
	}, nil
}

// RunBot starts the interactive bot, the daily watcher and the health
// server, and blocks until the context is canceled.
func (a *App) RunBot(ctx context.Context) error {
	defer a.renderer.Close()

	window := schedule.NightWindow{StartHour: a.cfg.NightStartHour, EndHour: a.cfg.NightEndHour}
	night := bot.NewNightMode(window, time.Now().In(a.location))
	b := bot.New(a.cfg, a.tg, a.runners, night, a.location, a.logger)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return b.Run(groupCtx)
	})

	group.Go(func() error {
		return a.watchLoop(groupCtx)
	})

	group.Go(func() error {
		return observability.NewServer(a.cfg.HealthPort, nil, a.logger).Start(groupCtx)
	})

	return group.Wait()
}

// RunWatch starts only the scheduler and the health server; no update
// loop, no housekeeping.
func (a *App) RunWatch(ctx context.Context) error {
	defer a.renderer.Close()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.watchLoop(groupCtx)
	})

	group.Go(func() error {
		return observability.NewServer(a.cfg.HealthPort, nil, a.logger).Start(groupCtx)
	})

	return group.Wait()
}

// RunOnce executes a single check of every source and exits. Used for
// cron-style deployments and manual verification.
func (a *App) RunOnce(ctx context.Context) error {
	defer a.renderer.Close()

	var firstErr error

	for name, r := range a.runners {
		if _, err := r.Run(ctx); err != nil {
			a.logger.Error().Err(err).Str(logFieldSource, name).Msg("run failed")

			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

func (a *App) watchLoop(ctx context.Context) error {
	trigger := schedule.Daily{Timezone: a.cfg.Timezone, Time: a.cfg.DailyTime}

	return worker.DailyLoop(ctx, worker.DailyConfig{
		Name:    "source-watcher",
		Trigger: trigger,
		Run: func(runCtx context.Context) {
			for name, r := range a.runners {
				func() {
					defer worker.RecoverPanic(a.logger, "daily run "+name)

					if _, err := r.Run(runCtx); err != nil {
						a.logger.Error().Err(err).Str(logFieldSource, name).Msg("daily run failed")
					}
				}()
			}
		},
		RunOnStart: true,
		Logger:     a.logger,
	})
}

func newFormatter(title string, limit int) *format.Formatter {
	f := format.New(title)
	if limit > 0 {
		f.Limit = limit
	}

	return f
}

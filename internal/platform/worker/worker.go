// Package worker provides the background loop scaffolding used by the
// daily watcher: context-aware waits and a fixed-time daily loop.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/davidromeor/telegram-agenda-bot/internal/platform/schedule"
)

const (
	logFieldWorker = "worker"
	logFieldNextAt = "next_at"
)

// DailyConfig configures a loop that fires once a day at a fixed local time.
type DailyConfig struct {
	// Name identifies the worker for logging.
	Name string

	// Trigger is the daily fire time.
	Trigger schedule.Daily

	// Run is called at each trigger.
	Run func(ctx context.Context)

	// RunOnStart runs the task immediately when the loop starts.
	RunOnStart bool

	// Logger for the worker.
	Logger *zerolog.Logger
}

// DailyLoop sleeps until the next trigger time, runs the task, and repeats.
// Returns a wrapped context error when the context is canceled.
func DailyLoop(ctx context.Context, cfg DailyConfig) error {
	logger := getLogger(cfg.Logger)
	logger.Info().Str(logFieldWorker, cfg.Name).Msg("starting daily loop")

	defer logger.Info().Str(logFieldWorker, cfg.Name).Msg("daily loop stopped")

	if cfg.RunOnStart && cfg.Run != nil {
		cfg.Run(ctx)
	}

	for {
		next, err := cfg.Trigger.NextAfter(time.Now())
		if err != nil {
			return fmt.Errorf("daily loop %s: %w", cfg.Name, err)
		}

		logger.Debug().Str(logFieldWorker, cfg.Name).Time(logFieldNextAt, next).Msg("sleeping until next trigger")

		if err := WaitUntil(ctx, next); err != nil {
			return fmt.Errorf("daily loop %s: %w", cfg.Name, err)
		}

		if cfg.Run != nil {
			cfg.Run(ctx)
		}
	}
}

// Wait blocks until duration elapses or context is canceled.
// Returns a wrapped context error if context is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-time.After(d):
		return nil
	}
}

// WaitUntil blocks until the specified time or context is canceled.
func WaitUntil(ctx context.Context, t time.Time) error {
	return Wait(ctx, time.Until(t))
}

// RecoverPanic recovers from panics and logs them.
// Use as: defer worker.RecoverPanic(logger, "operation name")
func RecoverPanic(logger *zerolog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error().
			Interface("panic", r).
			Str("operation", operation).
			Msg("recovered from panic")
	}
}

func getLogger(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		nop := zerolog.Nop()

		return &nop
	}

	return logger
}

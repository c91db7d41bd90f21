package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/davidromeor/telegram-agenda-bot/internal/app"
	"github.com/davidromeor/telegram-agenda-bot/internal/platform/config"
)

func main() {
	mode := flag.String("mode", "bot", "Service mode (bot, watch)")
	once := flag.Bool("once", false, "Check every source once and exit")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to wire application")
	}

	if err := runMode(ctx, application, *mode, *once); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")

			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func runMode(ctx context.Context, application *app.App, mode string, once bool) error {
	if once {
		return application.RunOnce(ctx)
	}

	switch mode {
	case "bot":
		return application.RunBot(ctx)
	case "watch":
		return application.RunWatch(ctx)
	default:
		log.Fatalf("Usage: %s --mode=[bot|watch] [--once]", os.Args[0])

		return nil
	}
}

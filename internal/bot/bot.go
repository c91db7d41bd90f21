// Package bot runs the Telegram update loop: on-demand commands, group
// housekeeping (welcome, farewell, night mode) and private auto-replies.
package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/davidromeor/telegram-agenda-bot/internal/core/domain"
	"github.com/davidromeor/telegram-agenda-bot/internal/pipeline"
	"github.com/davidromeor/telegram-agenda-bot/internal/platform/config"
)

const updateTimeout = 60

// Log field names.
const (
	logFieldChatID  = "chat_id"
	logFieldUserID  = "user_id"
	logFieldCommand = "command"
)

// api is the slice of the Telegram client the bot needs.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

// runner is the pipeline surface commands trigger.
type runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
	Preview(ctx context.Context, dest domain.Destination) error
}

// Bot routes incoming updates to handlers.
type Bot struct {
	cfg      *config.Config
	api      api
	runners  map[string]runner
	night    *NightMode
	location *time.Location
	logger   *zerolog.Logger
}

// New wires the bot. Runner keys are the command names that trigger them.
func New(
	cfg *config.Config,
	client api,
	runners map[string]*pipeline.Runner,
	night *NightMode,
	location *time.Location,
	logger *zerolog.Logger,
) *Bot {
	wrapped := make(map[string]runner, len(runners))
	for name, r := range runners {
		wrapped[name] = r
	}

	return &Bot{
		cfg:      cfg,
		api:      client,
		runners:  wrapped,
		night:    night,
		location: location,
		logger:   logger,
	}
}

// Run consumes updates until the context is canceled. A minute ticker
// drives the night-mode transitions independently of incoming traffic.
func (b *Bot) Run(ctx context.Context) error {
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = updateTimeout

	updates := b.api.GetUpdatesChan(updateCfg)

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	b.logger.Info().Msg("bot update loop started")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("bot update loop stopping")

			return fmt.Errorf("bot loop: %w", ctx.Err())
		case now := <-ticker.C:
			b.tickNight(now.In(b.location))
		case update, ok := <-updates:
			if !ok {
				return nil
			}

			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	now := time.Now().In(b.location)

	switch {
	case len(msg.NewChatMembers) > 0 && b.isWatchedGroup(msg.Chat):
		b.welcome(msg)
	case msg.LeftChatMember != nil && b.isWatchedGroup(msg.Chat):
		b.farewell(msg)
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case msg.Chat != nil && msg.Chat.IsPrivate():
		b.handlePrivate(msg, now)
	case b.isWatchedGroup(msg.Chat):
		b.enforceNight(msg, now)
	}
}

// tickNight observes the clock and announces transitions to the group.
func (b *Bot) tickNight(now time.Time) {
	switch b.night.Observe(now) {
	case TransitionToNight:
		b.sendText(b.cfg.TargetChatID, fmt.Sprintf(nightStartText, b.cfg.NightEndHour))
	case TransitionToDay:
		b.sendText(b.cfg.TargetChatID, dayStartText)
	case TransitionNone:
	}
}

func (b *Bot) isWatchedGroup(chat *tgbotapi.Chat) bool {
	if chat == nil || chat.IsPrivate() {
		return false
	}

	return chat.ID == b.cfg.TargetChatID || chat.Title == b.cfg.GroupTitle
}

func (b *Bot) isAdmin(userID int64) bool {
	for _, id := range b.cfg.AdminIDs {
		if id == userID {
			return true
		}
	}

	return false
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64(logFieldChatID, chatID).Msg("cannot send message")
	}
}

// Package dispatch delivers formatted blocks to a Telegram destination,
// honoring the platform's message cap, pacing expectations, rate-limit
// signals, and degrading gracefully when routing or formatting parameters
// are rejected.
package dispatch

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/davidromeor/telegram-agenda-bot/internal/core/domain"
	"github.com/davidromeor/telegram-agenda-bot/internal/platform/observability"
	"github.com/davidromeor/telegram-agenda-bot/internal/platform/textutils"
	"github.com/davidromeor/telegram-agenda-bot/internal/platform/worker"
)

// hardMessageCap is Telegram's absolute per-message limit. Blocks are
// normally already under the formatter's smaller ceiling; this is the
// last-resort split bound.
const hardMessageCap = 4096

// ModeHTML is the rich-text formatting hint used by the formatter.
const ModeHTML = tgbotapi.ModeHTML

// Degradation step labels for metrics.
const (
	fallbackDropThread = "drop_thread"
	fallbackDropMarkup = "drop_markup"
)

// API is the slice of the bot API the dispatcher needs. *tgbotapi.BotAPI
// satisfies it.
type API interface {
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// Status summarizes a delivery run.
type Status int

const (
	// StatusDelivered means every block went out.
	StatusDelivered Status = iota

	// StatusPartial means some blocks went out before one was abandoned.
	StatusPartial

	// StatusFailed means nothing was delivered.
	StatusFailed
)

// Outcome reports what happened to a set of blocks.
type Outcome struct {
	Status Status
	Sent   int
	Total  int
	Err    error
}

// Delivered reports whether every block went out.
func (o Outcome) Delivered() bool {
	return o.Status == StatusDelivered
}

// Dispatcher serializes sends with a minimum inter-message delay.
type Dispatcher struct {
	api     API
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

// New creates a dispatcher. minDelay is enforced between sends, including
// after retries.
func New(api API, minDelay time.Duration, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		api:     api,
		limiter: rate.NewLimiter(rate.Every(minDelay), 1),
		logger:  logger,
	}
}

// Deliver sends the blocks in order. Delivery stops at the first abandoned
// block; the outcome distinguishes total success, partial delivery, and
// total failure so the caller can decide whether to commit state.
func (d *Dispatcher) Deliver(ctx context.Context, blocks []string, dest domain.Destination, parseMode string) Outcome {
	// Safety split for anything over the transport's hard cap.
	var queue []string
	for _, block := range blocks {
		queue = append(queue, textutils.SplitMessage(block, hardMessageCap)...)
	}

	outcome := Outcome{Total: len(queue)}

	for _, block := range queue {
		if err := d.deliverBlock(ctx, block, dest, parseMode); err != nil {
			outcome.Err = err
			outcome.Status = StatusPartial

			if outcome.Sent == 0 {
				outcome.Status = StatusFailed
			}

			return outcome
		}

		outcome.Sent++
	}

	outcome.Status = StatusDelivered

	return outcome
}

// deliverBlock runs the per-block retry state machine: attempt, classify,
// then retry-same on rate limits, retry-adjusted once per degradation
// step, or abandon.
func (d *Dispatcher) deliverBlock(ctx context.Context, text string, dest domain.Destination, parseMode string) error {
	threadID := dest.ThreadID
	droppedThread := false
	droppedMarkup := false

	for {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}

		err := d.send(dest.ChatID, threadID, text, parseMode)
		if err == nil {
			return nil
		}

		kind, wait := Classify(err)

		switch kind {
		case KindRateLimited:
			observability.RateLimitWaits.Inc()
			d.logger.Warn().Dur("retry_after", wait).Msg("rate limited, sleeping before retry")

			if waitErr := worker.Wait(ctx, wait); waitErr != nil {
				return waitErr
			}

		case KindBadRouting:
			if threadID == 0 || droppedThread {
				return err
			}

			observability.DeliveryFallbacks.WithLabelValues(fallbackDropThread).Inc()
			d.logger.Warn().Int64("thread_id", threadID).Msg("thread rejected, retrying without topic routing")

			threadID = 0
			droppedThread = true

		case KindBadFormatting:
			if parseMode == "" || droppedMarkup {
				return err
			}

			observability.DeliveryFallbacks.WithLabelValues(fallbackDropMarkup).Inc()
			d.logger.Warn().Msg("markup rejected, retrying as plain text")

			parseMode = ""
			droppedMarkup = true

		default:
			return err
		}
	}
}

func (d *Dispatcher) send(chatID, threadID int64, text, parseMode string) error {
	params := tgbotapi.Params{}
	params.AddNonEmpty("chat_id", strconv.FormatInt(chatID, 10))
	params.AddNonEmpty("text", text)
	params.AddNonEmpty("parse_mode", parseMode)
	params.AddBool("disable_web_page_preview", true)

	if threadID != 0 {
		params.AddNonEmpty("message_thread_id", strconv.FormatInt(threadID, 10))
	}

	_, err := d.api.MakeRequest("sendMessage", params)

	return err
}

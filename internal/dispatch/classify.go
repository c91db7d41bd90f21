package dispatch

import (
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Kind buckets delivery errors by how the dispatcher must react.
type Kind int

const (
	// KindRateLimited carries a server-specified wait; retry the same
	// block after sleeping.
	KindRateLimited Kind = iota

	// KindBadRouting means the thread identifier was rejected; retry
	// once without it.
	KindBadRouting

	// KindBadFormatting means the rich-text markup was rejected; retry
	// once as plain text.
	KindBadFormatting

	// KindFatal covers everything else; the block is abandoned.
	KindFatal
)

const (
	rateLimitCode = 429

	// defaultRetryAfter is used when the platform signals a rate limit
	// without a concrete wait.
	defaultRetryAfter = time.Second
)

var routingErrorFragments = []string{
	"message thread not found",
	"topic_deleted",
	"topic_closed",
}

var formattingErrorFragments = []string{
	"can't parse entities",
	"unsupported start tag",
}

// Classify maps a send error to its handling kind and, for rate limits,
// the wait the server asked for.
func Classify(err error) (Kind, time.Duration) {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return KindFatal, 0
	}

	if apiErr.RetryAfter > 0 || apiErr.Code == rateLimitCode {
		wait := time.Duration(apiErr.RetryAfter) * time.Second
		if wait <= 0 {
			wait = defaultRetryAfter
		}

		return KindRateLimited, wait
	}

	message := strings.ToLower(apiErr.Message)

	for _, fragment := range routingErrorFragments {
		if strings.Contains(message, fragment) {
			return KindBadRouting, 0
		}
	}

	for _, fragment := range formattingErrorFragments {
		if strings.Contains(message, fragment) {
			return KindBadFormatting, 0
		}
	}

	return KindFatal, 0
}

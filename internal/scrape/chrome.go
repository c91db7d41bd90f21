package scrape

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

const defaultWaitSelector = "body"

// ChromeRenderer drives a shared headless Chrome allocator. One allocator
// serves all renders; each render gets its own browser context.
type ChromeRenderer struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	logger   *zerolog.Logger
}

// NewChromeRenderer starts the browser allocator.
func NewChromeRenderer(headless bool, logger *zerolog.Logger) *ChromeRenderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromeRenderer{
		allocCtx: allocCtx,
		cancel:   cancel,
		logger:   logger,
	}
}

// Render navigates to url, waits per policy and returns the page HTML.
func (r *ChromeRenderer) Render(ctx context.Context, url string, policy Policy) (string, error) {
	browserCtx, cancelBrowser := chromedp.NewContext(r.allocCtx)
	defer cancelBrowser()

	runCtx := browserCtx
	if policy.Timeout > 0 {
		var cancelTimeout context.CancelFunc

		runCtx, cancelTimeout = context.WithTimeout(browserCtx, policy.Timeout)
		defer cancelTimeout()
	}

	// Propagate caller cancellation into the browser context.
	stop := context.AfterFunc(ctx, cancelBrowser)
	defer stop()

	waitSelector := policy.WaitSelector
	if waitSelector == "" {
		waitSelector = defaultWaitSelector
	}

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitVisible(waitSelector),
	}

	if policy.Settle > 0 {
		actions = append(actions, chromedp.Sleep(policy.Settle))
	}

	for i := 0; i < policy.Scrolls; i++ {
		actions = append(actions, chromedp.Evaluate("window.scrollTo(0, document.body.scrollHeight)", nil))
		if policy.Settle > 0 {
			actions = append(actions, chromedp.Sleep(policy.Settle))
		}
	}

	var html string

	actions = append(actions, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}

	r.logger.Debug().Str("url", url).Int("html_size", len(html)).Msg("page rendered")

	return html, nil
}

// Close releases the browser allocator.
func (r *ChromeRenderer) Close() {
	if r.cancel != nil {
		r.cancel()
	}
}

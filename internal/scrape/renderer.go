// Package scrape renders source pages through a headless browser so that
// client-side markup is present before extraction.
package scrape

import (
	"context"
	"time"
)

// Policy controls how long and how hard the renderer waits for a page to
// settle before capturing its markup.
type Policy struct {
	// Timeout bounds the whole render. Exceeding it is a run failure.
	Timeout time.Duration

	// Settle is slept after navigation (and after each scroll) to let
	// lazy content load.
	Settle time.Duration

	// Scrolls is the number of scroll-to-bottom iterations.
	Scrolls int

	// WaitSelector, when set, must become visible before capture.
	WaitSelector string
}

// Renderer produces fully rendered HTML for a URL.
type Renderer interface {
	Render(ctx context.Context, url string, policy Policy) (string, error)
}

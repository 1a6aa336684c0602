// Package capture renders the /day page in headless Chromium and writes a
// PNG snapshot. The snapshot is what gets served at /preview.png and is the
// artifact a display target would consume.
package capture

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	DefaultWidth   = 480
	DefaultHeight  = 1460
	defaultTimeout = 30 * time.Second
)

// Options defines one screenshot capture.
type Options struct {
	// URL of the page to capture, e.g. "http://127.0.0.1:8080/day".
	URL string

	// OutputPath is where the PNG is written.
	OutputPath string

	// Width and Height are the viewport in pixels; zero means the
	// defaults above. Height should normally match the layout row height.
	Width  int
	Height int

	// Timeout bounds the whole capture. Zero means defaultTimeout.
	Timeout time.Duration
}

// DayPNG navigates to opts.URL, waits until the page signals that the day
// view is rendered via a data-ready="true" attribute, and writes a PNG
// screenshot to opts.OutputPath.
func DayPNG(parentCtx context.Context, opts Options) error {
	if opts.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Final paints settle before the shot.
		chromedp.Sleep(250 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	return nil
}

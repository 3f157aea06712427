package capture

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/natefinch/atomic"

	"planview/internal/config"
	appLog "planview/internal/log"
)

const (
	DefaultWidth   = 1280
	DefaultHeight  = 800
	DefaultTimeout = 30 * time.Second

	// ReadySelector is set by the /view/{name} page once it is fully rendered.
	ReadySelector = `[data-ready="true"]`
)

// Options defines parameters for a Chromium-based screenshot capture.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/view/timeline".
	URL string

	// OutputPath is where the PNG is written.
	OutputPath string

	// Width and Height are the viewport in pixels; zero uses the defaults.
	Width  int
	Height int

	Timeout time.Duration

	// Mono reduces the screenshot to black and red ink on white.
	Mono bool
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// PNG launches a headless Chromium via chromedp, loads opts.URL, waits for
// ReadySelector and writes a full-page screenshot to opts.OutputPath.
func PNG(parentCtx context.Context, opts Options) error {
	if opts.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	opts = opts.withDefaults()

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	start := time.Now()
	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if opts.Mono {
		reduced, err := reducePNG(png)
		if err != nil {
			return err
		}
		png = reduced
	}

	if err := atomic.WriteFile(opts.OutputPath, bytes.NewReader(png)); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	appLog.Info("capture written", "url", opts.URL, "path", opts.OutputPath, "bytes", len(png), "took", time.Since(start).String())
	return nil
}

// Func adapts PNG to a (url, path) callback with the configured settings.
func Func(cfg config.CaptureConfig) func(ctx context.Context, url, path string) error {
	return func(ctx context.Context, url, path string) error {
		return PNG(ctx, Options{
			URL:        url,
			OutputPath: path,
			Width:      cfg.Width,
			Height:     cfg.Height,
			Timeout:    cfg.Timeout,
			Mono:       cfg.Mono,
		})
	}
}

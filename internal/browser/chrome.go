package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// findTimeout bounds Text lookups: long enough for an attached DOM
// node to settle, short enough that an absent promo block doesn't
// stall the batch.
const findTimeout = 1 * time.Second

// Chrome is the chromedp-backed Session. One headless (or headed)
// Chrome process per value; Close tears it down.
type Chrome struct {
	browserCtx  context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// Options mirror the Chrome flags the scraper has always run with.
type Options struct {
	Headless bool
}

// NewChrome starts a Chrome process and opens a single tab.
func NewChrome(opts Options) (*Chrome, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	// force the browser to actually start so failures surface here,
	// not on the first Navigate
	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &Chrome{
		browserCtx:  browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
	}, nil
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	if err := c.run(ctx, 0, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (c *Chrome) WaitText(ctx context.Context, sel string, timeout time.Duration) (string, error) {
	var text string
	err := c.run(ctx, timeout,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.Text(sel, &text, chromedp.ByQuery),
	)
	if err != nil {
		return "", mapDeadline(err, ErrTimeout)
	}
	return strings.TrimSpace(text), nil
}

func (c *Chrome) WaitAttr(ctx context.Context, sel, attr string, timeout time.Duration) (string, error) {
	var val string
	var ok bool
	err := c.run(ctx, timeout,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.AttributeValue(sel, attr, &val, &ok, chromedp.ByQuery),
	)
	if err != nil {
		return "", mapDeadline(err, ErrTimeout)
	}
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (c *Chrome) Text(ctx context.Context, sel string) (string, error) {
	var text string
	err := c.run(ctx, findTimeout, chromedp.Text(sel, &text, chromedp.ByQuery))
	if err != nil {
		return "", mapDeadline(err, ErrNotFound)
	}
	return strings.TrimSpace(text), nil
}

func (c *Chrome) Close() error {
	c.cancelCtx()
	c.cancelAlloc()
	return nil
}

// run executes actions on the browser tab, bounded by timeout (when
// nonzero) and by the caller's ctx.
func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx := c.browserCtx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if cancel != nil {
			cancel()
		}
		<-done
		return ctx.Err()
	}
}

func mapDeadline(err error, mapped error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return mapped
	}
	return err
}

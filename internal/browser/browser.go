// Package browser abstracts the single browser session the resolver
// drives against retailer pages. The interface keeps DOM access behind
// typed results so "selector not present" is a value, not a panic, and
// lets tests substitute a fake session.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout means a required element never appeared within the
	// bounded wait.
	ErrTimeout = errors.New("browser: wait timed out")
	// ErrNotFound means the selector matched nothing right now.
	ErrNotFound = errors.New("browser: element not found")
)

// Session is one live browser tab. Acquired once per batch run and
// released by the caller when the run ends; implementations are not
// safe for concurrent use.
type Session interface {
	// Navigate loads url and blocks until the main document is ready.
	Navigate(ctx context.Context, url string) error
	// WaitText waits up to timeout for sel to become visible and
	// returns its trimmed text. ErrTimeout when it never shows.
	WaitText(ctx context.Context, sel string, timeout time.Duration) (string, error)
	// WaitAttr waits up to timeout for sel and returns the given
	// attribute. ErrTimeout when it never shows.
	WaitAttr(ctx context.Context, sel, attr string, timeout time.Duration) (string, error)
	// Text returns the trimmed text of sel without an extended wait.
	// ErrNotFound when the selector matches nothing.
	Text(ctx context.Context, sel string) (string, error)
	// Close releases the underlying browser resources.
	Close() error
}

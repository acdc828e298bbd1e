package port

import "context"

// BrowserPort owns the single headless browser shared by the whole service.
// Launching a browser process is by far the most expensive operation here, so
// the process and its browsing context live for the service lifetime; only
// pages are ephemeral.
type BrowserPort interface {
	// EnsureReady starts the browser if it is not running yet. Safe to call
	// from any goroutine, any number of times.
	EnsureReady(ctx context.Context) error

	// NewPage returns a context scoped to a fresh page (tab) plus its release
	// function. The release function must run on every exit path.
	NewPage(ctx context.Context) (context.Context, context.CancelFunc, error)

	// Shutdown closes the browsing context and the browser process.
	Shutdown()
}

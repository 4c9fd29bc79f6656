package renderer

import "context"

// Renderer fetches a URL and returns the fully rendered document markup.
// Each crawl session owns exactly one Renderer for its lifetime and must call
// Close on every exit path.
type Renderer interface {
	// Navigate loads the URL, waits for JavaScript to settle, and returns the
	// serialized document. The context bounds the whole operation; callers
	// pass the session context so a dead channel aborts navigation promptly.
	Navigate(ctx context.Context, url string) (string, error)

	// Close releases the underlying browser resources.
	Close() error
}

// Factory creates one Renderer per crawl session. The provided context scopes
// the renderer's lifetime: cancelling it tears the browser down even if Close
// is never reached.
type Factory interface {
	NewRenderer(ctx context.Context) (Renderer, error)
}

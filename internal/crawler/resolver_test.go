package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestNewResolverAnchorIsOrigin(t *testing.T) {
	r, err := NewResolver("https://a.example/docs/intro?x=1", arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, "https://a.example", r.Anchor())
}

func TestNewResolverRejectsRelativeSeed(t *testing.T) {
	_, err := NewResolver("/just/a/path", arbor.NewLogger())
	assert.Error(t, err)
}

func TestDiscoverScopeContainment(t *testing.T) {
	r, err := NewResolver("https://a.example", arbor.NewLogger())
	require.NoError(t, err)

	html := `<html><body>
		<a href="https://a.example/page2">in scope</a>
		<a href="https://other.example/x">out of scope</a>
	</body></html>`

	links := r.Discover(parseDoc(t, html), NewLedger())
	assert.Equal(t, []string{"https://a.example/page2"}, links)
}

func TestDiscoverResolvesAgainstOrigin(t *testing.T) {
	// Relative hrefs resolve against the scope anchor, not the page URL
	r, err := NewResolver("https://a.example/deep/nested/page", arbor.NewLogger())
	require.NoError(t, err)

	html := `<html><body>
		<a href="/about">rooted</a>
		<a href="contact">bare</a>
	</body></html>`

	links := r.Discover(parseDoc(t, html), NewLedger())
	assert.Equal(t, []string{"https://a.example/about", "https://a.example/contact"}, links)
}

func TestDiscoverSkipsNonHTTPSchemes(t *testing.T) {
	// mailto:/javascript: resolve to absolute URLs outside the anchor prefix
	r, err := NewResolver("https://a.example", arbor.NewLogger())
	require.NoError(t, err)

	html := `<html><body>
		<a href="mailto:hi@a.example">mail</a>
		<a href="javascript:void(0)">js</a>
		<a href="https://a.example/real">real</a>
	</body></html>`

	links := r.Discover(parseDoc(t, html), NewLedger())
	assert.Equal(t, []string{"https://a.example/real"}, links)
}

func TestDiscoverDiscardsMalformedHref(t *testing.T) {
	r, err := NewResolver("https://a.example", arbor.NewLogger())
	require.NoError(t, err)

	html := `<html><body>
		<a href="::bad::url">broken</a>
		<a href="https://a.example/ok">fine</a>
	</body></html>`

	links := r.Discover(parseDoc(t, html), NewLedger())
	assert.Equal(t, []string{"https://a.example/ok"}, links)
}

func TestDiscoverFiltersVisitedByResolvedURL(t *testing.T) {
	// The ledger guard compares resolved URLs, so a relative href to an
	// already-visited page is filtered at discovery time
	r, err := NewResolver("https://a.example", arbor.NewLogger())
	require.NoError(t, err)

	visited := NewLedger()
	visited.Add("https://a.example/seen")

	html := `<html><body>
		<a href="/seen">old</a>
		<a href="/fresh">new</a>
	</body></html>`

	links := r.Discover(parseDoc(t, html), visited)
	assert.Equal(t, []string{"https://a.example/fresh"}, links)
}

func TestDiscoverKeepsDuplicateCandidates(t *testing.T) {
	// Duplicate in-scope links are all returned; dedup happens at dequeue
	r, err := NewResolver("https://a.example", arbor.NewLogger())
	require.NoError(t, err)

	html := `<html><body>
		<a href="/page">one</a>
		<a href="/page">two</a>
	</body></html>`

	links := r.Discover(parseDoc(t, html), NewLedger())
	assert.Equal(t, []string{"https://a.example/page", "https://a.example/page"}, links)
}

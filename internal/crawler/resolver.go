package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

// Resolver normalizes discovered hyperlinks to absolute form and decides
// whether they fall within the crawl's scope. The scope anchor is the origin
// of the seed URL and is fixed for the session's lifetime.
type Resolver struct {
	anchor    *url.URL
	anchorStr string
	logger    arbor.ILogger
}

// NewResolver builds a resolver for the given seed URL. The anchor is the
// seed's origin (scheme + host + port), not the seed itself.
func NewResolver(seed string, logger arbor.ILogger) (*Resolver, error) {
	u, err := url.Parse(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed URL %s: %w", seed, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("seed URL %s has no origin", seed)
	}

	anchorStr := u.Scheme + "://" + u.Host
	anchor, err := url.Parse(anchorStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scope anchor %s: %w", anchorStr, err)
	}

	return &Resolver{
		anchor:    anchor,
		anchorStr: anchorStr,
		logger:    logger,
	}, nil
}

// Anchor returns the scope anchor string
func (r *Resolver) Anchor() string {
	return r.anchorStr
}

// Discover collects every in-scope candidate URL from the document's anchor
// elements. Hrefs are resolved against the origin anchor, not the current
// page's URL. A candidate is in scope when its absolute form starts with the
// anchor string. The visited check uses the resolved URL so the guard and the
// ledger share one representation; the dequeue-time check in the session still
// applies.
func (r *Resolver) Discover(doc *goquery.Document, visited *Ledger) []string {
	candidates := make([]string, 0)

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}

		resolved, err := r.anchor.Parse(href)
		if err != nil {
			r.logger.Debug().Err(err).Str("href", href).Msg("Discarding malformed link")
			return
		}

		abs := resolved.String()
		if !strings.HasPrefix(abs, r.anchorStr) {
			return
		}
		if visited.Has(abs) {
			return
		}

		candidates = append(candidates, abs)
	})

	return candidates
}

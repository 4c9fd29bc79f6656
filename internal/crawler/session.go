package crawler

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/Vivek1819/siftor-backend/internal/common"
	"github.com/Vivek1819/siftor-backend/internal/models"
	"github.com/Vivek1819/siftor-backend/internal/renderer"
)

// Publisher is the session's outward event stream. Implementations must be
// safe for interleaved use by concurrent sessions sharing one channel.
type Publisher interface {
	// Visiting is emitted once per dequeued URL, before the navigation
	// attempt. A returned error marks the channel unusable and aborts the
	// session.
	Visiting(url string) error

	// Results delivers the full accumulated result set at normal completion.
	Results(pages []models.PageRecord) error

	// Error reports an unrecoverable session failure.
	Error(message string) error
}

// Session drives one bounded breadth-first traversal of a single origin. It
// owns its frontier, visited ledger, and exactly one page renderer, which is
// released on every exit path.
type Session struct {
	ID        string
	seed      string
	config    common.CrawlerConfig
	frontier  *Frontier
	visited   *Ledger
	resolver  *Resolver
	extractor *Extractor
	factory   renderer.Factory
	publisher Publisher
	logger    arbor.ILogger
}

// NewSession prepares a traversal from the given seed URL. The scope anchor is
// derived from the seed's origin and fixed for the session's lifetime.
func NewSession(seed string, config common.CrawlerConfig, factory renderer.Factory, publisher Publisher, logger arbor.ILogger) (*Session, error) {
	resolver, err := NewResolver(seed, logger)
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:        uuid.New().String(),
		seed:      seed,
		config:    config,
		frontier:  NewFrontier(seed),
		visited:   NewLedger(),
		resolver:  resolver,
		extractor: NewExtractor(logger),
		factory:   factory,
		publisher: publisher,
		logger:    logger,
	}, nil
}

// Run executes the traversal loop until the frontier empties, the page cap is
// reached, the channel becomes unusable, or ctx is cancelled. ctx is the
// owning channel's context: when the channel dies the renderer is torn down
// and the loop aborts at the next suspension point.
func (s *Session) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("session_id", s.ID).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Crawl session failed")
			s.publisher.Error(fmt.Sprintf("crawl failed: %v", r))
		}
	}()

	s.logger.Info().
		Str("session_id", s.ID).
		Str("seed", s.seed).
		Str("scope", s.resolver.Anchor()).
		Int("max_pages", s.config.MaxPages).
		Msg("Crawl session starting")

	rend, err := s.factory.NewRenderer(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", s.ID).Msg("Failed to start page renderer")
		s.publisher.Error(fmt.Sprintf("failed to start page renderer: %v", err))
		return
	}
	defer rend.Close()

	results := make([]models.PageRecord, 0)

	for s.frontier.Len() > 0 && s.visited.Len() < s.config.MaxPages {
		if ctx.Err() != nil {
			s.logger.Warn().
				Str("session_id", s.ID).
				Int("visited", s.visited.Len()).
				Msg("Channel closed, aborting crawl session")
			return
		}

		u, _ := s.frontier.Pop()
		if s.visited.Has(u) {
			continue
		}

		if err := s.publisher.Visiting(u); err != nil {
			s.logger.Warn().
				Err(err).
				Str("session_id", s.ID).
				Msg("Channel unusable, aborting crawl session")
			return
		}

		html, err := rend.Navigate(ctx, u)
		if err != nil {
			// One attempt per URL, no retry. Failed URLs stay out of the
			// ledger so the cap counts rendered pages only.
			s.logger.Warn().
				Err(err).
				Str("session_id", s.ID).
				Str("url", u).
				Msg("Navigation failed, skipping URL")
			continue
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("session_id", s.ID).
				Str("url", u).
				Msg("Failed to parse rendered document, skipping URL")
			continue
		}

		results = append(results, models.PageRecord{URL: u, Data: s.extractor.Extract(doc)})

		for _, link := range s.resolver.Discover(doc, s.visited) {
			s.frontier.Push(link)
		}

		s.visited.Add(u)
	}

	s.logger.Info().
		Str("session_id", s.ID).
		Int("pages", len(results)).
		Int("visited", s.visited.Len()).
		Msg("Crawl session complete")

	if err := s.publisher.Results(results); err != nil {
		s.logger.Warn().Err(err).Str("session_id", s.ID).Msg("Failed to deliver crawl results")
	}
}

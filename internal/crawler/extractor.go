package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/Vivek1819/siftor-backend/internal/models"
)

// contentSelector matches every element that contributes to extraction, in
// document order: headings open sections, the rest carry content.
const contentSelector = "h1, h2, h3, h4, h5, h6, p, span, li, pre, code"

var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true,
}

// Extractor converts one rendered document into an ordered sequence of titled
// content sections.
type Extractor struct {
	logger arbor.ILogger
}

// NewExtractor creates a new extractor
func NewExtractor(logger arbor.ILogger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract walks the document's content elements in document order and groups
// them into sections. A heading flushes the in-progress section (if it has any
// content) and opens a new one titled with the heading text. Content that
// appears before the first heading lands in a section with an empty title.
// Sections without content are never flushed, so consecutive headings collapse
// and a trailing heading with nothing after it produces no section.
func (e *Extractor) Extract(doc *goquery.Document) []models.Section {
	sections := make([]models.Section, 0)

	current := models.Section{Title: "", Content: make([]models.Fragment, 0)}

	doc.Find(contentSelector).Each(func(i int, s *goquery.Selection) {
		tag := goquery.NodeName(s)
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}

		if headingTags[tag] {
			if len(current.Content) > 0 {
				sections = append(sections, current)
			}
			current = models.Section{Title: text, Content: make([]models.Fragment, 0)}
			return
		}

		current.Content = append(current.Content, models.Fragment{Tag: tag, Text: text})
	})

	if len(current.Content) > 0 {
		sections = append(sections, current)
	}

	e.logger.Debug().
		Int("sections", len(sections)).
		Msg("Content extracted from document")

	return sections
}

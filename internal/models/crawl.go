package models

// CrawlRequest is the inbound message that starts a crawl session.
// Sent by the client as a single JSON object on the websocket.
type CrawlRequest struct {
	URL string `json:"url"`
}

// Fragment is one content-bearing element inside a section.
type Fragment struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
}

// Section groups the content that follows a heading. The leading section of a
// page that has text before any heading carries an empty title.
type Section struct {
	Title   string     `json:"title"`
	Content []Fragment `json:"content"`
}

// PageRecord is the extracted output for one successfully rendered page.
type PageRecord struct {
	URL  string    `json:"url"`
	Data []Section `json:"data"`
}

// Outbound websocket events. Each serializes to a single flat JSON object so
// the client can dispatch on the key that is present.

// ConnectedEvent is sent once, immediately after the channel is established.
type ConnectedEvent struct {
	Status string `json:"status"`
}

// VisitingEvent is sent before each navigation attempt, in visit order.
type VisitingEvent struct {
	Visiting string `json:"visiting"`
}

// ErrorEvent reports a malformed request or an unrecoverable session error.
type ErrorEvent struct {
	Error string `json:"error"`
}

// ResultsEvent carries the full accumulated result set of a finished session.
// It is always the last event of a session's stream when emitted.
type ResultsEvent struct {
	ScrapedData []PageRecord `json:"scrapedData"`
}

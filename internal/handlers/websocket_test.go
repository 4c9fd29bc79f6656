package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Vivek1819/siftor-backend/internal/common"
	"github.com/Vivek1819/siftor-backend/internal/models"
	"github.com/Vivek1819/siftor-backend/internal/renderer"
)

// stubRenderer serves canned HTML keyed by URL, no browser involved.
type stubRenderer struct {
	pages map[string]string
}

func (r *stubRenderer) Navigate(ctx context.Context, url string) (string, error) {
	html, ok := r.pages[url]
	if !ok {
		return "", errors.New("no page")
	}
	return html, nil
}

func (r *stubRenderer) Close() error { return nil }

type stubFactory struct {
	pages map[string]string
}

func (f *stubFactory) NewRenderer(ctx context.Context) (renderer.Renderer, error) {
	return &stubRenderer{pages: f.pages}, nil
}

func newTestHandler(pages map[string]string) *WebSocketHandler {
	config := common.NewDefaultConfig()
	return NewWebSocketHandler(config, &stubFactory{pages: pages}, arbor.NewLogger())
}

func dialTestServer(t *testing.T, handler *WebSocketHandler) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func readString(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}

func TestWebSocketConnectedEventFirst(t *testing.T) {
	handler := newTestHandler(nil)
	conn := dialTestServer(t, handler)

	event := readEvent(t, conn)
	require.Contains(t, event, "status")
	assert.Equal(t, "connected", readString(t, event["status"]))

	assert.Eventually(t, func() bool {
		return handler.ActiveChannels() == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool {
		return handler.ActiveChannels() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketMalformedRequest(t *testing.T) {
	handler := newTestHandler(nil)
	conn := dialTestServer(t, handler)
	readEvent(t, conn) // connected

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	event := readEvent(t, conn)
	require.Contains(t, event, "error")
	assert.Equal(t, "invalid request payload", readString(t, event["error"]))
}

func TestWebSocketEmptyURL(t *testing.T) {
	handler := newTestHandler(nil)
	conn := dialTestServer(t, handler)
	readEvent(t, conn) // connected

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"url":""}`)))

	event := readEvent(t, conn)
	require.Contains(t, event, "error")
	assert.Equal(t, "url is required", readString(t, event["error"]))
}

func TestWebSocketInvalidSeedURL(t *testing.T) {
	handler := newTestHandler(nil)
	conn := dialTestServer(t, handler)
	readEvent(t, conn) // connected

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"url":"not-a-url"}`)))

	event := readEvent(t, conn)
	require.Contains(t, event, "error")
	assert.Contains(t, readString(t, event["error"]), "invalid seed url")
}

func TestWebSocketCrawlStream(t *testing.T) {
	handler := newTestHandler(map[string]string{
		"https://a.example": `<html><body><h1>Home</h1><p>welcome</p>` +
			`<a href="/docs">docs</a></body></html>`,
		"https://a.example/docs": `<html><body><h1>Docs</h1><p>details</p></body></html>`,
	})
	conn := dialTestServer(t, handler)
	readEvent(t, conn) // connected

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"url":"https://a.example"}`)))

	// Progress events arrive in traversal order, then the result set
	event := readEvent(t, conn)
	require.Contains(t, event, "visiting")
	assert.Equal(t, "https://a.example", readString(t, event["visiting"]))

	event = readEvent(t, conn)
	require.Contains(t, event, "visiting")
	assert.Equal(t, "https://a.example/docs", readString(t, event["visiting"]))

	event = readEvent(t, conn)
	require.Contains(t, event, "scrapedData")

	var pages []models.PageRecord
	require.NoError(t, json.Unmarshal(event["scrapedData"], &pages))
	require.Len(t, pages, 2)
	assert.Equal(t, "https://a.example", pages[0].URL)
	assert.Equal(t, "https://a.example/docs", pages[1].URL)
	require.Len(t, pages[0].Data, 1)
	assert.Equal(t, "Home", pages[0].Data[0].Title)
	require.Len(t, pages[0].Data[0].Content, 1)
	assert.Equal(t, "p", pages[0].Data[0].Content[0].Tag)
	assert.Equal(t, "welcome", pages[0].Data[0].Content[0].Text)
}

func TestWebSocketConcurrentSessions(t *testing.T) {
	handler := newTestHandler(map[string]string{
		"https://a.example":      `<html><body><h1>Home</h1><p>welcome</p><a href="/docs">docs</a></body></html>`,
		"https://a.example/docs": `<html><body><h1>Docs</h1><p>details</p></body></html>`,
	})
	conn := dialTestServer(t, handler)
	readEvent(t, conn) // connected

	// Two requests back to back; their sessions run concurrently and share
	// the connection through the publisher's write mutex
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"url":"https://a.example"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"url":"https://a.example"}`)))

	var visiting []string
	var resultSets [][]models.PageRecord
	for len(resultSets) < 2 {
		event := readEvent(t, conn)
		switch {
		case event["visiting"] != nil:
			visiting = append(visiting, readString(t, event["visiting"]))
		case event["scrapedData"] != nil:
			var pages []models.PageRecord
			require.NoError(t, json.Unmarshal(event["scrapedData"], &pages))
			resultSets = append(resultSets, pages)
		case event["error"] != nil:
			t.Fatalf("unexpected error event: %s", readString(t, event["error"]))
		}
	}

	// Interleaving order is unspecified, but every event arrives whole and
	// each session delivers its complete result set
	assert.Len(t, visiting, 4)
	for _, pages := range resultSets {
		require.Len(t, pages, 2)
		assert.Equal(t, "https://a.example", pages[0].URL)
		assert.Equal(t, "https://a.example/docs", pages[1].URL)
	}
}

func TestWebSocketSequentialRequests(t *testing.T) {
	handler := newTestHandler(map[string]string{
		"https://a.example": `<html><body><h1>Solo</h1><p>only page</p></body></html>`,
	})
	conn := dialTestServer(t, handler)
	readEvent(t, conn) // connected

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"url":"https://a.example"}`)))

		event := readEvent(t, conn)
		require.Contains(t, event, "visiting")

		event = readEvent(t, conn)
		require.Contains(t, event, "scrapedData")
	}
}

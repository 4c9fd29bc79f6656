package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/Vivek1819/siftor-backend/internal/common"
	"github.com/Vivek1819/siftor-backend/internal/crawler"
	"github.com/Vivek1819/siftor-backend/internal/models"
	"github.com/Vivek1819/siftor-backend/internal/renderer"
)

// WebSocketHandler is the stream publisher: it maps inbound crawl requests to
// sessions and serializes session events onto the owning connection. Sessions
// spawned from one connection run concurrently; the per-connection write mutex
// is the only state they share.
type WebSocketHandler struct {
	logger   arbor.ILogger
	config   *common.Config
	factory  renderer.Factory
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	clients  map[*websocket.Conn]bool
}

// NewWebSocketHandler creates the websocket handler
func NewWebSocketHandler(config *common.Config, factory renderer.Factory, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		logger:  logger,
		config:  config,
		factory: factory,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.WebSocket.ReadBufferSize,
			WriteBufferSize: config.WebSocket.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for local development
			},
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// ActiveChannels returns the number of connected clients
func (h *WebSocketHandler) ActiveChannels() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the connection and serves it until it closes.
// Every crawl session spawned from this connection shares its context, so a
// dead channel cancels in-flight sessions and releases their renderers.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", clientCount)

	ctx, cancel := context.WithCancel(context.Background())

	defer func() {
		cancel()

		h.mu.Lock()
		delete(h.clients, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", remaining)
	}()

	pub := newConnPublisher(conn, h.logger)

	if err := pub.send(models.ConnectedEvent{Status: "connected"}); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send connected event")
		return
	}

	h.startKeepalive(ctx, conn)

	// Read loop: each well-formed request spawns an independent session
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}

		var req models.CrawlRequest
		if err := json.Unmarshal(data, &req); err != nil {
			h.logger.Warn().Err(err).Msg("Malformed crawl request")
			pub.Error("invalid request payload")
			continue
		}
		if req.URL == "" {
			pub.Error("url is required")
			continue
		}

		session, err := crawler.NewSession(req.URL, h.config.Crawler, h.factory, pub, h.logger)
		if err != nil {
			h.logger.Warn().Err(err).Str("url", req.URL).Msg("Rejecting crawl request")
			pub.Error(fmt.Sprintf("invalid seed url: %v", err))
			continue
		}

		common.SafeGo(h.logger, "crawl-session", func() {
			session.Run(ctx)
		})
	}
}

// startKeepalive pings the client on the configured interval. Pongs extend the
// read deadline; a missed deadline or failed ping tears the connection down,
// which cancels every session the connection owns.
func (h *WebSocketHandler) startKeepalive(ctx context.Context, conn *websocket.Conn) {
	interval := h.config.WebSocket.KeepaliveInterval.Duration()

	conn.SetReadDeadline(time.Now().Add(2 * interval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * interval))
	})

	common.SafeGo(h.logger, "websocket-keepalive", func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deadline := time.Now().Add(interval / 2)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					h.logger.Debug().Err(err).Msg("Keepalive ping failed, closing connection")
					conn.Close()
					return
				}
			}
		}
	})
}

// connPublisher serializes event writes onto one connection. Safe for use by
// concurrent sessions.
type connPublisher struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	logger arbor.ILogger
}

func newConnPublisher(conn *websocket.Conn, logger arbor.ILogger) *connPublisher {
	return &connPublisher{conn: conn, logger: logger}
}

func (p *connPublisher) send(event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

// Visiting implements crawler.Publisher
func (p *connPublisher) Visiting(url string) error {
	return p.send(models.VisitingEvent{Visiting: url})
}

// Results implements crawler.Publisher
func (p *connPublisher) Results(pages []models.PageRecord) error {
	return p.send(models.ResultsEvent{ScrapedData: pages})
}

// Error implements crawler.Publisher
func (p *connPublisher) Error(message string) error {
	if err := p.send(models.ErrorEvent{Error: message}); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to send error event to client")
		return err
	}
	return nil
}

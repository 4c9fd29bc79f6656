package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (crawl requests and result streaming)
	mux.HandleFunc("/ws", s.wsHandler.HandleWebSocket)

	// API routes - System
	mux.HandleFunc("/api/health", s.api.HealthHandler)
	mux.HandleFunc("/api/version", s.api.VersionHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.api.NotFoundHandler)

	return mux
}

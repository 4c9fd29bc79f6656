package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/Vivek1819/siftor-backend/internal/common"
)

// ChannelCounter reports the number of active websocket channels.
type ChannelCounter interface {
	ActiveChannels() int
}

type APIHandler struct {
	channels ChannelCounter
	logger   arbor.ILogger
}

func NewAPIHandler(channels ChannelCounter, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		channels: channels,
		logger:   logger,
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// HealthHandler returns liveness status and the active channel count
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"active_channels": h.channels.ActiveChannels(),
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}

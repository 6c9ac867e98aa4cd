package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bashkah/partyroom/internal/api/middleware"
	"github.com/bashkah/partyroom/internal/api/sse"
	"github.com/bashkah/partyroom/internal/model"
)

// StreamHandler handles the SSE snapshot stream
type StreamHandler struct {
	streamer *sse.Streamer
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(streamer *sse.Streamer) *StreamHandler {
	return &StreamHandler{streamer: streamer}
}

// Events handles GET /api/v1/rooms/{id}/events. The connection stays
// open, delivering a snapshot event per committed room change until the
// client disconnects or the room closes.
func (h *StreamHandler) Events(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	hub, err := h.streamer.Open(roomID)
	if err != nil {
		WriteError(w, err)
		return
	}

	sse.ServeSSE(w, r, hub, playerID)
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bashkah/partyroom/internal/api/middleware"
	"github.com/bashkah/partyroom/internal/api/request"
	"github.com/bashkah/partyroom/internal/api/response"
	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/services/room"
	"github.com/bashkah/partyroom/internal/store"
)

// RoomHandler handles room lifecycle endpoints
type RoomHandler struct {
	rooms *room.Controller
	store store.Store
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms *room.Controller, st store.Store) *RoomHandler {
	return &RoomHandler{rooms: rooms, store: st}
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	var req request.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}
	gameType := model.GameType(req.GameType)
	if gameType == "" {
		gameType = model.GameFact
	}

	created, err := h.rooms.CreateRoom(r.Context(), gameType, playerID, req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RoomFromModel(created))
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	gameType := model.GameType(r.URL.Query().Get("game_type"))
	if gameType == "" {
		gameType = model.GameFact
	}

	rooms, err := h.rooms.ListOpenRooms(r.Context(), gameType)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomListFromModel(rooms))
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["id"])

	snap, err := h.store.Snapshot(r.Context(), roomID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if snap.Deleted {
		WriteError(w, model.ErrRoomNotFound)
		return
	}

	response.JSON(w, http.StatusOK, response.SnapshotFromModel(snap))
}

// Join handles POST /api/v1/rooms/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	var req request.JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}
	gameType := model.GameType(req.GameType)
	if gameType == "" {
		gameType = model.GameFact
	}

	joined, err := h.rooms.JoinRoom(r.Context(), gameType, req.Code, playerID, req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(joined))
}

// Leave handles POST /api/v1/rooms/{id}/leave
func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	if err := h.rooms.LeaveRoom(r.Context(), roomID, playerID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// SetReady handles PATCH /api/v1/rooms/{id}/ready
func (h *RoomHandler) SetReady(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	var req request.SetReadyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if err := h.rooms.SetReady(r.Context(), roomID, playerID, req.Ready); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

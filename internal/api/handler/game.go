package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/bashkah/partyroom/internal/api/middleware"
	"github.com/bashkah/partyroom/internal/api/request"
	"github.com/bashkah/partyroom/internal/api/response"
	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/services/phase"
	"github.com/bashkah/partyroom/internal/services/scoring"
	"github.com/bashkah/partyroom/internal/store"
)

// GameHandler handles in-game endpoints: submissions, votes and the
// host's phase transitions
type GameHandler struct {
	machine *phase.Machine
	scoring *scoring.Engine
	store   store.Store
}

// NewGameHandler creates a new game handler
func NewGameHandler(machine *phase.Machine, sc *scoring.Engine, st store.Store) *GameHandler {
	return &GameHandler{machine: machine, scoring: sc, store: st}
}

// Start handles POST /api/v1/rooms/{id}/game
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	if err := h.machine.StartGame(r.Context(), roomID, playerID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// SubmitFacts handles POST /api/v1/rooms/{id}/facts
func (h *GameHandler) SubmitFacts(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	var req request.SubmitFactsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	snap, err := h.roomSnapshot(r, roomID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if snap.Room.Phase != model.PhaseWriting {
		WriteError(w, model.ErrWrongPhase)
		return
	}
	me := snap.Player(playerID)
	if me == nil {
		WriteError(w, model.ErrNotInRoom)
		return
	}
	if me.HasSubmitted {
		WriteError(w, model.ErrAlreadySubmitted)
		return
	}
	if len(req.Facts) != model.FactsPerPlayer {
		WriteError(w, model.ErrFactsIncomplete)
		return
	}
	for _, t := range req.Facts {
		if strings.TrimSpace(t) == "" {
			WriteError(w, model.ErrFactsIncomplete)
			return
		}
	}

	for _, t := range req.Facts {
		fact := &model.Fact{
			ID:         model.FactID(uuid.NewString()),
			RoomID:     roomID,
			AuthorID:   playerID,
			AuthorName: me.Name,
			Text:       strings.TrimSpace(t),
			OrderIndex: model.OrderUnassigned,
		}
		if err := h.store.AddFact(r.Context(), fact); err != nil {
			WriteError(w, err)
			return
		}
	}
	if err := h.store.PatchPlayer(r.Context(), roomID, playerID, store.PlayerPatch{
		HasSubmitted: store.Ptr(true),
	}); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Vote handles POST /api/v1/rooms/{id}/votes
func (h *GameHandler) Vote(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	var req request.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.ChosenID == "" {
		WriteError(w, NewInvalidRequestError("chosen_id is required"))
		return
	}

	snap, err := h.roomSnapshot(r, roomID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if snap.Room.Phase != model.PhaseVoting {
		WriteError(w, model.ErrWrongPhase)
		return
	}
	me := snap.Player(playerID)
	if me == nil {
		WriteError(w, model.ErrNotInRoom)
		return
	}
	if me.HasVoted {
		WriteError(w, model.ErrAlreadyVoted)
		return
	}
	fact := snap.CurrentFact()
	if fact == nil {
		WriteError(w, model.ErrFactNotFound)
		return
	}

	chosen := model.PlayerID(req.ChosenID)
	if err := h.store.PutVote(r.Context(), &model.Vote{
		VoterID:  playerID,
		RoomID:   roomID,
		FactID:   fact.ID,
		ChosenID: chosen,
		Correct:  chosen == fact.AuthorID,
	}); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.store.PatchFact(r.Context(), roomID, fact.ID, store.FactPatch{
		VotesDelta: 1,
	}); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.store.PatchPlayer(r.Context(), roomID, playerID, store.PlayerPatch{
		HasVoted: store.Ptr(true),
	}); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Shuffle handles POST /api/v1/rooms/{id}/shuffle
func (h *GameHandler) Shuffle(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	if err := h.machine.BeginVoting(r.Context(), roomID, playerID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Reveal handles POST /api/v1/rooms/{id}/reveal
func (h *GameHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	if err := h.machine.Reveal(r.Context(), roomID, playerID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Advance handles POST /api/v1/rooms/{id}/advance. It moves to the next
// fact, or to results when the revealed fact was the last one.
func (h *GameHandler) Advance(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	snap, err := h.roomSnapshot(r, roomID)
	if err != nil {
		WriteError(w, err)
		return
	}

	if snap.Room.CurrentFactIndex+1 >= len(snap.Facts) {
		err = h.machine.Finish(r.Context(), roomID, playerID)
	} else {
		err = h.machine.NextFact(r.Context(), roomID, playerID)
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Leaderboard handles GET /api/v1/rooms/{id}/leaderboard
func (h *GameHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["id"])

	snap, err := h.roomSnapshot(r, roomID)
	if err != nil {
		WriteError(w, err)
		return
	}

	board := h.scoring.Leaderboard(snap.Players)
	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(board))
}

// roomSnapshot loads the room's snapshot, treating a deleted room as
// not found
func (h *GameHandler) roomSnapshot(r *http.Request, roomID model.RoomID) (*model.Snapshot, error) {
	snap, err := h.store.Snapshot(r.Context(), roomID)
	if err != nil {
		return nil, err
	}
	if snap.Deleted || snap.Room == nil {
		return nil, model.ErrRoomNotFound
	}
	return snap, nil
}

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bashkah/partyroom/internal/api"
	"github.com/bashkah/partyroom/internal/api/response"
	"github.com/bashkah/partyroom/internal/api/sse"
	"github.com/bashkah/partyroom/internal/factory"
	"github.com/bashkah/partyroom/internal/model"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// API tests are integration tests - use the production factory with
	// real random/clock over the memory store
	app, err := factory.New(context.Background(), factory.Config{Logger: logger})
	require.NoError(t, err)

	streamer := sse.NewStreamer(app.Store, logger)
	t.Cleanup(streamer.Close)

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Store:          app.Store,
		RoomController: app.RoomController,
		PhaseMachine:   app.PhaseMachine,
		ScoringEngine:  app.ScoringEngine,
		Streamer:       streamer,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any, playerID string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if playerID != "" {
		req.Header.Set("X-Player-ID", playerID)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// createRoom creates a room as the given host and returns the response
func (ts *testServer) createRoom(t *testing.T, hostID, name string) response.Room {
	t.Helper()

	body := map[string]string{"game_type": "fact", "name": name}
	rr := ts.request(http.MethodPost, "/api/v1/rooms", body, hostID)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var room response.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &room))
	return room
}

// joinRoom joins by code as the given player
func (ts *testServer) joinRoom(t *testing.T, code, playerID, name string) response.Room {
	t.Helper()

	body := map[string]string{"game_type": "fact", "code": code, "name": name}
	rr := ts.request(http.MethodPost, "/api/v1/rooms/join", body, playerID)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var room response.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &room))
	return room
}

// snapshot fetches the room's snapshot
func (ts *testServer) snapshot(t *testing.T, roomID, playerID string) response.Snapshot {
	t.Helper()

	rr := ts.request(http.MethodGet, "/api/v1/rooms/"+roomID, nil, playerID)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var snap response.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	return snap
}

// submitFacts submits five facts for a player
func (ts *testServer) submitFacts(t *testing.T, roomID, playerID string) {
	t.Helper()

	facts := make([]string, model.FactsPerPlayer)
	for i := range facts {
		facts[i] = fmt.Sprintf("%s fact %d", playerID, i+1)
	}
	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/facts",
		map[string]any{"facts": facts}, playerID)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestIdentityRequired(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/rooms", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rr))
}

func TestCreateAndJoinRoom(t *testing.T) {
	ts := newTestServer(t)

	room := ts.createRoom(t, "host-1", "Ann")
	assert.Equal(t, "host-1", room.HostID)
	assert.Equal(t, "waiting", room.Status)
	assert.Equal(t, "lobby", room.Phase)
	assert.Len(t, room.Code, 5)

	joined := ts.joinRoom(t, room.Code, "player-2", "Bob")
	assert.Equal(t, room.ID, joined.ID)

	snap := ts.snapshot(t, room.ID, "player-2")
	assert.Len(t, snap.Players, 2)
}

func TestJoinUnknownCode(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{"game_type": "fact", "code": "00000", "name": "Bob"}
	rr := ts.request(http.MethodPost, "/api/v1/rooms/join", body, "player-2")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "ROOM_NOT_FOUND", errorCode(t, rr))
}

func TestJoinMalformedCode(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{"game_type": "fact", "code": "12a45", "name": "Bob"}
	rr := ts.request(http.MethodPost, "/api/v1/rooms/join", body, "player-2")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_CODE", errorCode(t, rr))
}

func TestListOpenRooms(t *testing.T) {
	ts := newTestServer(t)

	room := ts.createRoom(t, "host-1", "Ann")

	rr := ts.request(http.MethodGet, "/api/v1/rooms?game_type=fact", nil, "player-2")
	require.Equal(t, http.StatusOK, rr.Code)

	var list response.RoomList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, room.ID, list.Rooms[0].ID)
}

func TestOnlyHostStartsGame(t *testing.T) {
	ts := newTestServer(t)

	room := ts.createRoom(t, "host-1", "Ann")
	ts.joinRoom(t, room.Code, "player-2", "Bob")

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/game", nil, "player-2")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "NOT_HOST", errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/game", nil, "host-1")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	snap := ts.snapshot(t, room.ID, "host-1")
	assert.Equal(t, "writing", snap.Room.Phase)
	assert.Equal(t, "playing", snap.Room.Status)
}

func TestStartGameRequiresTwoPlayers(t *testing.T) {
	ts := newTestServer(t)

	room := ts.createRoom(t, "host-1", "Ann")

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/game", nil, "host-1")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "INSUFFICIENT_PLAYERS", errorCode(t, rr))
}

func TestSubmitFactsValidation(t *testing.T) {
	ts := newTestServer(t)

	room := ts.createRoom(t, "host-1", "Ann")
	ts.joinRoom(t, room.Code, "player-2", "Bob")

	// Writing has not opened yet
	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/facts",
		map[string]any{"facts": []string{"a", "b", "c", "d", "e"}}, "player-2")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "WRONG_PHASE", errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/game", nil, "host-1")
	require.Equal(t, http.StatusNoContent, rr.Code)

	// Too few facts
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/facts",
		map[string]any{"facts": []string{"a", "b"}}, "player-2")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "FACTS_INCOMPLETE", errorCode(t, rr))

	// Outsiders cannot submit
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/facts",
		map[string]any{"facts": []string{"a", "b", "c", "d", "e"}}, "stranger")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_IN_ROOM", errorCode(t, rr))

	ts.submitFacts(t, room.ID, "player-2")

	// Submission happens once
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/facts",
		map[string]any{"facts": []string{"a", "b", "c", "d", "e"}}, "player-2")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "ALREADY_SUBMITTED", errorCode(t, rr))
}

func TestAuthorsHiddenUntilReveal(t *testing.T) {
	ts := newTestServer(t)

	room := ts.createRoom(t, "host-1", "Ann")
	ts.joinRoom(t, room.Code, "player-2", "Bob")

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/game", nil, "host-1")
	require.Equal(t, http.StatusNoContent, rr.Code)
	ts.submitFacts(t, room.ID, "host-1")
	ts.submitFacts(t, room.ID, "player-2")

	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/shuffle", nil, "host-1")
	require.Equal(t, http.StatusNoContent, rr.Code)

	snap := ts.snapshot(t, room.ID, "player-2")
	require.Equal(t, "voting", snap.Room.Phase)
	require.Len(t, snap.Facts, 2*model.FactsPerPlayer)
	for _, f := range snap.Facts {
		assert.Empty(t, f.AuthorID, "author leaked before reveal")
		assert.Empty(t, f.AuthorName)
	}

	// Both vote on the first fact, host reveals it
	for _, pid := range []string{"host-1", "player-2"} {
		rr = ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/votes",
			map[string]string{"chosen_id": "host-1"}, pid)
		require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())
	}
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/reveal", nil, "host-1")
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	snap = ts.snapshot(t, room.ID, "player-2")
	require.Equal(t, "revealing", snap.Room.Phase)
	revealed := 0
	for _, f := range snap.Facts {
		if f.Revealed {
			revealed++
			assert.NotEmpty(t, f.AuthorID)
		}
	}
	assert.Equal(t, 1, revealed)
}

func TestVoteOncePerRound(t *testing.T) {
	ts := newTestServer(t)

	room := ts.createRoom(t, "host-1", "Ann")
	ts.joinRoom(t, room.Code, "player-2", "Bob")

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/game", nil, "host-1")
	require.Equal(t, http.StatusNoContent, rr.Code)
	ts.submitFacts(t, room.ID, "host-1")
	ts.submitFacts(t, room.ID, "player-2")
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/shuffle", nil, "host-1")
	require.Equal(t, http.StatusNoContent, rr.Code)

	body := map[string]string{"chosen_id": "host-1"}
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/votes", body, "player-2")
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/votes", body, "player-2")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "ALREADY_VOTED", errorCode(t, rr))

	snap := ts.snapshot(t, room.ID, "player-2")
	assert.Equal(t, []string{"player-2"}, snap.Voted)
}

func TestFullGameToResults(t *testing.T) {
	ts := newTestServer(t)

	room := ts.createRoom(t, "host-1", "Ann")
	ts.joinRoom(t, room.Code, "player-2", "Bob")

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/game", nil, "host-1")
	require.Equal(t, http.StatusNoContent, rr.Code)
	ts.submitFacts(t, room.ID, "host-1")
	ts.submitFacts(t, room.ID, "player-2")
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/shuffle", nil, "host-1")
	require.Equal(t, http.StatusNoContent, rr.Code)

	rounds := 2 * model.FactsPerPlayer
	for round := 0; round < rounds; round++ {
		for _, pid := range []string{"host-1", "player-2"} {
			rr = ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/votes",
				map[string]string{"chosen_id": "player-2"}, pid)
			require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())
		}
		rr = ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/reveal", nil, "host-1")
		require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())
		rr = ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/advance", nil, "host-1")
		require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())
	}

	snap := ts.snapshot(t, room.ID, "host-1")
	assert.Equal(t, "results", snap.Room.Phase)
	assert.Equal(t, "finished", snap.Room.Status)

	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+room.ID+"/leaderboard", nil, "host-1")
	require.Equal(t, http.StatusOK, rr.Code)

	var board []response.LeaderboardEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &board))
	require.Len(t, board, 2)
	assert.Equal(t, 1, board[0].Rank)

	// Everyone guessed player-2 every round, so player-2's five facts
	// earned two points each
	total := 0
	for _, row := range board {
		total += row.Score
	}
	assert.Equal(t, 2*model.FactsPerPlayer, total)
}

func TestHostLeavingClosesRoom(t *testing.T) {
	ts := newTestServer(t)

	room := ts.createRoom(t, "host-1", "Ann")
	ts.joinRoom(t, room.Code, "player-2", "Bob")

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+room.ID+"/leave", nil, "host-1")
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+room.ID, nil, "player-2")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "ROOM_NOT_FOUND", errorCode(t, rr))
}

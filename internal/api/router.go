package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bashkah/partyroom/internal/api/handler"
	"github.com/bashkah/partyroom/internal/api/middleware"
	"github.com/bashkah/partyroom/internal/api/sse"
	"github.com/bashkah/partyroom/internal/services/phase"
	"github.com/bashkah/partyroom/internal/services/room"
	"github.com/bashkah/partyroom/internal/services/scoring"
	"github.com/bashkah/partyroom/internal/store"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Store          store.Store
	RoomController *room.Controller
	PhaseMachine   *phase.Machine
	ScoringEngine  *scoring.Engine
	Streamer       *sse.Streamer
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	roomHandler := handler.NewRoomHandler(cfg.RoomController, cfg.Store)
	gameHandler := handler.NewGameHandler(cfg.PhaseMachine, cfg.ScoringEngine, cfg.Store)
	streamHandler := handler.NewStreamHandler(cfg.Streamer)

	// Create middleware
	identityMiddleware := middleware.Identity()
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Room routes (all require a player identity)
	rooms := api.PathPrefix("/rooms").Subrouter()
	rooms.Use(identityMiddleware)
	rooms.HandleFunc("", roomHandler.Create).Methods(http.MethodPost)
	rooms.HandleFunc("", roomHandler.List).Methods(http.MethodGet)
	rooms.HandleFunc("/join", roomHandler.Join).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}", roomHandler.Get).Methods(http.MethodGet)
	rooms.HandleFunc("/{id}/leave", roomHandler.Leave).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/ready", roomHandler.SetReady).Methods(http.MethodPatch)

	// In-game routes
	rooms.HandleFunc("/{id}/game", gameHandler.Start).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/facts", gameHandler.SubmitFacts).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/votes", gameHandler.Vote).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/shuffle", gameHandler.Shuffle).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/reveal", gameHandler.Reveal).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/advance", gameHandler.Advance).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/leaderboard", gameHandler.Leaderboard).Methods(http.MethodGet)

	// SSE snapshot stream
	rooms.HandleFunc("/{id}/events", streamHandler.Events).Methods(http.MethodGet)

	// Health check endpoint (no identity)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

package sse

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/bashkah/partyroom/internal/api/response"
	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/store"
)

// Event names delivered on the stream
const (
	EventSnapshot   = "snapshot"
	EventRoomClosed = "room-closed"
)

// Streamer bridges store subscriptions to SSE hubs. Each watched room
// gets one hub and one pump goroutine that turns every committed change
// into a broadcast snapshot event.
type Streamer struct {
	store  store.Store
	logger *slog.Logger

	mu    sync.Mutex
	rooms map[model.RoomID]*roomStream
}

type roomStream struct {
	hub *Hub
	sub store.Subscription
}

// NewStreamer creates a Streamer over the given store
func NewStreamer(st store.Store, logger *slog.Logger) *Streamer {
	return &Streamer{
		store:  st,
		logger: logger.With(slog.String("component", "sse")),
		rooms:  make(map[model.RoomID]*roomStream),
	}
}

// Open returns the hub for a room, starting a watch on first use. The
// watch outlives the opening request: it ends when the room is deleted
// or the streamer shuts down.
func (s *Streamer) Open(roomID model.RoomID) (*Hub, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rs, ok := s.rooms[roomID]; ok {
		return rs.hub, nil
	}

	sub, err := s.store.Watch(context.Background(), roomID)
	if err != nil {
		return nil, err
	}

	hub := NewHub(roomID, s.logger)
	s.rooms[roomID] = &roomStream{hub: hub, sub: sub}
	go hub.Run()
	go s.pump(roomID, hub, sub)
	return hub, nil
}

// pump forwards store snapshots into the hub until the room goes away
func (s *Streamer) pump(roomID model.RoomID, hub *Hub, sub store.Subscription) {
	for snap := range sub.Snapshots() {
		if snap.Deleted {
			hub.BroadcastEvent(EventRoomClosed, "closed")
			break
		}
		if err := snap.Validate(); err != nil {
			s.logger.Warn("skipping invalid snapshot",
				slog.String("room_id", string(roomID)),
				slog.String("error", err.Error()))
			continue
		}
		data, err := json.Marshal(response.SnapshotFromModel(snap))
		if err != nil {
			s.logger.Error("snapshot encode failed",
				slog.String("room_id", string(roomID)),
				slog.String("error", err.Error()))
			continue
		}
		hub.BroadcastEvent(EventSnapshot, string(data))
	}
	s.remove(roomID)
}

// remove tears down a room's stream
func (s *Streamer) remove(roomID model.RoomID) {
	s.mu.Lock()
	rs, ok := s.rooms[roomID]
	if ok {
		delete(s.rooms, roomID)
	}
	s.mu.Unlock()

	if ok {
		rs.sub.Close()
		rs.hub.Close()
	}
}

// CleanupIdle tears down streams with no connected clients
func (s *Streamer) CleanupIdle() {
	s.mu.Lock()
	var idle []model.RoomID
	for roomID, rs := range s.rooms {
		if rs.hub.ClientCount() == 0 {
			idle = append(idle, roomID)
		}
	}
	s.mu.Unlock()

	for _, roomID := range idle {
		s.remove(roomID)
	}
	if len(idle) > 0 {
		s.logger.Info("sse idle streams cleaned up", slog.Int("removed", len(idle)))
	}
}

// Close tears down every stream
func (s *Streamer) Close() {
	s.mu.Lock()
	roomIDs := make([]model.RoomID, 0, len(s.rooms))
	for roomID := range s.rooms {
		roomIDs = append(roomIDs, roomID)
	}
	s.mu.Unlock()

	for _, roomID := range roomIDs {
		s.remove(roomID)
	}
}

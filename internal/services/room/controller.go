package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bashkah/partyroom/internal/dependencies/random"
	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/store"
)

// Controller manages the room lifecycle: creation with a fresh code,
// joining by code or browsing, and leaving with host teardown.
type Controller struct {
	store  store.Store
	random random.Random
	logger *slog.Logger
}

// NewController creates a new room Controller
func NewController(st store.Store, random random.Random, logger *slog.Logger) *Controller {
	return &Controller{
		store:  st,
		random: random,
		logger: logger,
	}
}

// CreateRoom creates a room hosted by the given player. Code generation
// leans on the store's create-if-absent semantics: on a code collision the
// create fails and we draw a fresh code, so two hosts can never share one.
func (c *Controller) CreateRoom(ctx context.Context, gameType model.GameType, hostID model.PlayerID, hostName string) (*model.Room, error) {
	for {
		code := c.random.String(model.RoomCodeLength, model.RoomCodeAlphabet)
		room := &model.Room{
			ID:         model.NewRoomID(gameType, code),
			Code:       code,
			GameType:   gameType,
			HostID:     hostID,
			Status:     model.StatusWaiting,
			Phase:      model.PhaseLobby,
			MaxPlayers: model.MaxPlayers,
		}

		err := c.store.CreateRoom(ctx, room)
		if errors.Is(err, model.ErrRoomExists) {
			continue
		}
		if err != nil {
			return nil, err
		}

		host := &model.Player{
			ID:     hostID,
			RoomID: room.ID,
			Name:   hostName,
			IsHost: true,
		}
		if err := c.store.UpsertPlayer(ctx, host); err != nil {
			return nil, err
		}

		c.logger.Info("room created",
			slog.String("room_id", string(room.ID)),
			slog.String("host_id", string(hostID)))
		return room, nil
	}
}

// JoinRoom adds a player to the room with the given code. Joining is
// idempotent on the player's stable identity: rejoining refreshes the name
// and yields the same single record, never a duplicate seat.
func (c *Controller) JoinRoom(ctx context.Context, gameType model.GameType, code string, playerID model.PlayerID, name string) (*model.Room, error) {
	if !model.ValidCode(code) {
		return nil, model.ErrInvalidCode
	}

	roomID := model.NewRoomID(gameType, code)
	room, err := c.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	players, err := c.store.GetPlayers(ctx, roomID)
	if err != nil {
		return nil, err
	}
	rejoin := false
	for _, p := range players {
		if p.ID == playerID {
			rejoin = true
			break
		}
	}
	if !rejoin {
		if room.Status != model.StatusWaiting {
			return nil, model.ErrRoomClosed
		}
		if len(players) >= room.MaxPlayers {
			return nil, model.ErrRoomFull
		}
	}

	player := &model.Player{
		ID:     playerID,
		RoomID: roomID,
		Name:   name,
		IsHost: playerID == room.HostID,
	}
	if err := c.store.UpsertPlayer(ctx, player); err != nil {
		return nil, err
	}

	c.logger.Info("player joined",
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(playerID)),
		slog.Bool("rejoin", rejoin))
	return room, nil
}

// LeaveRoom removes a player. A leaving host tears the room down for
// everyone; subscribers observe the deletion and converge on room-closed.
func (c *Controller) LeaveRoom(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) error {
	room, err := c.store.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}

	if room.HostID == playerID {
		c.logger.Info("host left, closing room",
			slog.String("room_id", string(roomID)))
		return c.store.DeleteRoom(ctx, roomID)
	}

	players, err := c.store.GetPlayers(ctx, roomID)
	if err != nil {
		return err
	}
	for _, p := range players {
		if p.ID == playerID {
			return c.store.DeletePlayer(ctx, roomID, playerID)
		}
	}
	return model.ErrNotInRoom
}

// GetRoom retrieves a room by ID
func (c *Controller) GetRoom(ctx context.Context, roomID model.RoomID) (*model.Room, error) {
	return c.store.GetRoom(ctx, roomID)
}

// ListOpenRooms returns joinable rooms of the given game type
func (c *Controller) ListOpenRooms(ctx context.Context, gameType model.GameType) ([]*model.Room, error) {
	return c.store.ListOpenRooms(ctx, gameType)
}

// SetReady flags a player as ready in the lobby
func (c *Controller) SetReady(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, ready bool) error {
	return c.store.PatchPlayer(ctx, roomID, playerID, store.PlayerPatch{
		IsReady: store.Ptr(ready),
	})
}

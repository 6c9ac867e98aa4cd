package store

import (
	"context"

	"github.com/bashkah/partyroom/internal/model"
)

// Store is the room store adapter: the typed boundary between the
// coordinator core and whatever document backend persists room state.
// Implementations own encoding, server-assigned timestamps and counter
// increments; the core never sees untyped field maps.
type Store interface {
	// Room operations. CreateRoom assigns CreatedAt server-side and fails
	// with model.ErrRoomExists if the ID is taken. DeleteRoom removes the
	// room and all of its sub-collections, and signals subscribers.
	CreateRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	PatchRoom(ctx context.Context, id model.RoomID, patch RoomPatch) error
	DeleteRoom(ctx context.Context, id model.RoomID) error

	// ListOpenRooms returns rooms of the given game type still waiting for
	// players, for the join-by-browsing flow.
	ListOpenRooms(ctx context.Context, gameType model.GameType) ([]*model.Room, error)

	// Player operations. UpsertPlayer is idempotent on (room, player ID):
	// joining twice with the same stable identity yields one record.
	UpsertPlayer(ctx context.Context, player *model.Player) error
	GetPlayers(ctx context.Context, roomID model.RoomID) ([]*model.Player, error)
	PatchPlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID, patch PlayerPatch) error
	DeletePlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID) error

	// Fact operations
	AddFact(ctx context.Context, fact *model.Fact) error
	GetFacts(ctx context.Context, roomID model.RoomID) ([]*model.Fact, error)
	PatchFact(ctx context.Context, roomID model.RoomID, id model.FactID, patch FactPatch) error

	// PutVote records a vote keyed by voter identity. It is create-only: a
	// second real vote fails with model.ErrVoteExists, and a timeout vote
	// is silently dropped when any vote already exists, so a timeout can
	// never displace a real vote.
	PutVote(ctx context.Context, vote *model.Vote) error
	GetVotes(ctx context.Context, roomID model.RoomID) ([]*model.Vote, error)

	// IncrementStats applies server-side counter increments to a player's
	// device-wide stats record.
	IncrementStats(ctx context.Context, id model.PlayerID, games, wins, coins int) error
	GetStats(ctx context.Context, id model.PlayerID) (*model.PlayerStats, error)

	// ApplyBatch applies all ops for one room as a single all-or-nothing
	// commit. Phase transitions that touch multiple documents go through
	// here so no observer can see a partially applied transition.
	ApplyBatch(ctx context.Context, roomID model.RoomID, ops []Op) error

	// Snapshot reads one consistent view of the room and its sub-collections
	Snapshot(ctx context.Context, roomID model.RoomID) (*model.Snapshot, error)

	// Watch subscribes to changes for a room. The subscription delivers a
	// current snapshot on attach and after every committed change; deliveries
	// coalesce under load but always converge on the latest state. A deleted
	// room is signalled with a snapshot marked Deleted.
	Watch(ctx context.Context, roomID model.RoomID) (Subscription, error)
}

// Subscription is a cancellable stream of room snapshots
type Subscription interface {
	// Snapshots returns the channel snapshots are delivered on. The channel
	// is closed after Close or when the backing stream fails permanently.
	Snapshots() <-chan *model.Snapshot
	// Close releases the subscription. Safe to call more than once.
	Close()
}

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/store"
)

// Store is an in-memory implementation of the room store. It is the
// backing store for tests and the simulator; all writes are committed
// under one lock, which gives batches their all-or-nothing behavior.
type Store struct {
	mu sync.RWMutex

	rooms   map[model.RoomID]*model.Room
	players map[model.RoomID]map[model.PlayerID]*model.Player
	facts   map[model.RoomID]map[model.FactID]*model.Fact
	votes   map[model.RoomID]map[model.PlayerID]*model.Vote
	stats   map[model.PlayerID]*model.PlayerStats

	subs map[model.RoomID]map[*subscription]struct{}
}

// New creates a new in-memory store instance
func New() *Store {
	return &Store{
		rooms:   make(map[model.RoomID]*model.Room),
		players: make(map[model.RoomID]map[model.PlayerID]*model.Player),
		facts:   make(map[model.RoomID]map[model.FactID]*model.Fact),
		votes:   make(map[model.RoomID]map[model.PlayerID]*model.Vote),
		stats:   make(map[model.PlayerID]*model.PlayerStats),
		subs:    make(map[model.RoomID]map[*subscription]struct{}),
	}
}

// Ensure Store implements the interface
var _ store.Store = (*Store)(nil)

// Room operations

func (s *Store) CreateRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	if _, ok := s.rooms[room.ID]; ok {
		s.mu.Unlock()
		return model.ErrRoomExists
	}
	r := *room
	r.CreatedAt = time.Now()
	s.rooms[room.ID] = &r
	s.players[room.ID] = make(map[model.PlayerID]*model.Player)
	s.facts[room.ID] = make(map[model.FactID]*model.Fact)
	s.votes[room.ID] = make(map[model.PlayerID]*model.Vote)
	s.mu.Unlock()

	room.CreatedAt = r.CreatedAt
	s.notify(room.ID)
	return nil
}

func (s *Store) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	r := *room
	return &r, nil
}

func (s *Store) PatchRoom(ctx context.Context, id model.RoomID, patch store.RoomPatch) error {
	s.mu.Lock()
	room, ok := s.rooms[id]
	if !ok {
		s.mu.Unlock()
		return model.ErrRoomNotFound
	}
	patch.Apply(room)
	s.mu.Unlock()

	s.notify(id)
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	if _, ok := s.rooms[id]; !ok {
		s.mu.Unlock()
		return model.ErrRoomNotFound
	}
	delete(s.rooms, id)
	delete(s.players, id)
	delete(s.facts, id)
	delete(s.votes, id)
	subs := s.subs[id]
	delete(s.subs, id)
	s.mu.Unlock()

	// Signal the deletion, then end every subscription: nothing further
	// can ever be observed for this room.
	for sub := range subs {
		sub.deliver(&model.Snapshot{Deleted: true})
		sub.end()
	}
	return nil
}

func (s *Store) ListOpenRooms(ctx context.Context, gameType model.GameType) ([]*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rooms []*model.Room
	for id, room := range s.rooms {
		if room.GameType != gameType || room.Status != model.StatusWaiting {
			continue
		}
		if len(s.players[id]) >= room.MaxPlayers {
			continue
		}
		r := *room
		rooms = append(rooms, &r)
	}
	return rooms, nil
}

// Player operations

func (s *Store) UpsertPlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	roomPlayers, ok := s.players[player.RoomID]
	if !ok {
		s.mu.Unlock()
		return model.ErrRoomNotFound
	}
	if existing, ok := roomPlayers[player.ID]; ok {
		// Same stable identity rejoining: one record, refreshed name,
		// everything else (score, flags, join time) preserved.
		existing.Name = player.Name
	} else {
		p := *player
		p.JoinedAt = time.Now()
		roomPlayers[player.ID] = &p
	}
	s.mu.Unlock()

	s.notify(player.RoomID)
	return nil
}

func (s *Store) GetPlayers(ctx context.Context, roomID model.RoomID) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roomPlayers, ok := s.players[roomID]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return copyPlayers(roomPlayers), nil
}

func (s *Store) PatchPlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID, patch store.PlayerPatch) error {
	s.mu.Lock()
	player, ok := s.players[roomID][id]
	if !ok {
		s.mu.Unlock()
		return model.ErrPlayerNotFound
	}
	patch.Apply(player)
	s.mu.Unlock()

	s.notify(roomID)
	return nil
}

func (s *Store) DeletePlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID) error {
	s.mu.Lock()
	roomPlayers, ok := s.players[roomID]
	if !ok {
		s.mu.Unlock()
		return model.ErrRoomNotFound
	}
	delete(roomPlayers, id)
	s.mu.Unlock()

	s.notify(roomID)
	return nil
}

// Fact operations

func (s *Store) AddFact(ctx context.Context, fact *model.Fact) error {
	s.mu.Lock()
	roomFacts, ok := s.facts[fact.RoomID]
	if !ok {
		s.mu.Unlock()
		return model.ErrRoomNotFound
	}
	f := *fact
	f.CreatedAt = time.Now()
	roomFacts[fact.ID] = &f
	s.mu.Unlock()

	s.notify(fact.RoomID)
	return nil
}

func (s *Store) GetFacts(ctx context.Context, roomID model.RoomID) ([]*model.Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roomFacts, ok := s.facts[roomID]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return copyFacts(roomFacts), nil
}

func (s *Store) PatchFact(ctx context.Context, roomID model.RoomID, id model.FactID, patch store.FactPatch) error {
	s.mu.Lock()
	fact, ok := s.facts[roomID][id]
	if !ok {
		s.mu.Unlock()
		return model.ErrFactNotFound
	}
	patch.Apply(fact)
	s.mu.Unlock()

	s.notify(roomID)
	return nil
}

// Vote operations

func (s *Store) PutVote(ctx context.Context, vote *model.Vote) error {
	s.mu.Lock()
	roomVotes, ok := s.votes[vote.RoomID]
	if !ok {
		s.mu.Unlock()
		return model.ErrRoomNotFound
	}
	if _, exists := roomVotes[vote.VoterID]; exists {
		s.mu.Unlock()
		// A timeout default never displaces an existing vote; a second
		// real vote is an error the caller surfaces.
		if vote.Timeout {
			return nil
		}
		return model.ErrVoteExists
	}
	v := *vote
	v.CastAt = time.Now()
	roomVotes[vote.VoterID] = &v
	s.mu.Unlock()

	s.notify(vote.RoomID)
	return nil
}

func (s *Store) GetVotes(ctx context.Context, roomID model.RoomID) ([]*model.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roomVotes, ok := s.votes[roomID]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return copyVotes(roomVotes), nil
}

// Stats operations

func (s *Store) IncrementStats(ctx context.Context, id model.PlayerID, games, wins, coins int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[id]
	if !ok {
		st = &model.PlayerStats{PlayerID: id}
		s.stats[id] = st
	}
	st.GamesPlayed += games
	st.Wins += wins
	st.Coins += coins
	return nil
}

func (s *Store) GetStats(ctx context.Context, id model.PlayerID) (*model.PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stats[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	c := *st
	return &c, nil
}

// Batch operations

func (s *Store) ApplyBatch(ctx context.Context, roomID model.RoomID, ops []store.Op) error {
	s.mu.Lock()
	room, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return model.ErrRoomNotFound
	}

	// Validate every op before touching anything so the batch commits
	// fully or not at all.
	for _, op := range ops {
		switch op := op.(type) {
		case store.PlayerOp:
			if _, ok := s.players[roomID][op.PlayerID]; !ok {
				s.mu.Unlock()
				return model.ErrPlayerNotFound
			}
		case store.FactOp:
			if _, ok := s.facts[roomID][op.FactID]; !ok {
				s.mu.Unlock()
				return model.ErrFactNotFound
			}
		}
	}

	for _, op := range ops {
		switch op := op.(type) {
		case store.RoomOp:
			op.Patch.Apply(room)
		case store.PlayerOp:
			op.Patch.Apply(s.players[roomID][op.PlayerID])
		case store.FactOp:
			op.Patch.Apply(s.facts[roomID][op.FactID])
		case store.ClearVotesOp:
			s.votes[roomID] = make(map[model.PlayerID]*model.Vote)
		}
	}
	s.mu.Unlock()

	s.notify(roomID)
	return nil
}

// Snapshot operations

func (s *Store) Snapshot(ctx context.Context, roomID model.RoomID) (*model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(roomID)
}

func (s *Store) snapshotLocked(roomID model.RoomID) (*model.Snapshot, error) {
	room, ok := s.rooms[roomID]
	if !ok {
		return &model.Snapshot{Deleted: true}, nil
	}
	r := *room
	return &model.Snapshot{
		Room:    &r,
		Players: copyPlayers(s.players[roomID]),
		Facts:   copyFacts(s.facts[roomID]),
		Votes:   copyVotes(s.votes[roomID]),
	}, nil
}

func copyPlayers(in map[model.PlayerID]*model.Player) []*model.Player {
	out := make([]*model.Player, 0, len(in))
	for _, p := range in {
		c := *p
		out = append(out, &c)
	}
	return out
}

func copyFacts(in map[model.FactID]*model.Fact) []*model.Fact {
	out := make([]*model.Fact, 0, len(in))
	for _, f := range in {
		c := *f
		out = append(out, &c)
	}
	return out
}

func copyVotes(in map[model.PlayerID]*model.Vote) []*model.Vote {
	out := make([]*model.Vote, 0, len(in))
	for _, v := range in {
		c := *v
		out = append(out, &c)
	}
	return out
}

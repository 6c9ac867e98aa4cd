package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/store"
)

// maxTxRetries bounds optimistic-lock retries on contended keys
const maxTxRetries = 5

// Store is a Redis-backed implementation of the room store. Entities are
// JSON values (rooms) and hashes keyed by document ID (players, facts,
// votes); change signals travel over pub/sub.
type Store struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis store instance
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Store{client: client, cfg: cfg}, nil
}

// NewWithClient creates a Redis store with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Store {
	return &Store{client: client, cfg: cfg}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Ensure Store implements the interface
var _ store.Store = (*Store)(nil)

// rmw runs fn inside WATCH/MULTI over the given keys, retrying when a
// concurrent writer invalidates the transaction.
func (s *Store) rmw(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return redis.TxFailedErr
}

func (s *Store) signalChanged(ctx context.Context, id model.RoomID) {
	s.client.Publish(ctx, eventsChannel(id), signalChanged)
}

// Room operations

func (s *Store) CreateRoom(ctx context.Context, room *model.Room) error {
	room.CreatedAt = time.Now()
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, roomKey(room.ID), data, s.cfg.RoomTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrRoomExists
	}

	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, openRoomsKey(room.GameType), string(room.ID))
	pipe.Expire(ctx, playersKey(room.ID), s.cfg.RoomTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	s.signalChanged(ctx, room.ID)
	return nil
}

func (s *Store) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Store) PatchRoom(ctx context.Context, id model.RoomID, patch store.RoomPatch) error {
	key := roomKey(id)
	err := s.rmw(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrRoomNotFound
			}
			return err
		}

		var room model.Room
		if err := json.Unmarshal(data, &room); err != nil {
			return err
		}
		patch.Apply(&room)

		updated, err := json.Marshal(&room)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			if room.Status != model.StatusWaiting {
				pipe.SRem(ctx, openRoomsKey(room.GameType), string(id))
			}
			return nil
		})
		return err
	}, key)
	if err != nil {
		return err
	}

	s.signalChanged(ctx, id)
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, id model.RoomID) error {
	room, err := s.GetRoom(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, roomKey(id), playersKey(id), factsKey(id), votesKey(id))
	pipe.SRem(ctx, openRoomsKey(room.GameType), string(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	s.client.Publish(ctx, eventsChannel(id), signalDeleted)
	return nil
}

func (s *Store) ListOpenRooms(ctx context.Context, gameType model.GameType) ([]*model.Room, error) {
	ids, err := s.client.SMembers(ctx, openRoomsKey(gameType)).Result()
	if err != nil {
		return nil, err
	}

	var rooms []*model.Room
	for _, id := range ids {
		roomID := model.RoomID(id)
		room, err := s.GetRoom(ctx, roomID)
		if err != nil {
			if errors.Is(err, model.ErrRoomNotFound) {
				// Index entry outlived the room; drop it lazily
				s.client.SRem(ctx, openRoomsKey(gameType), id)
				continue
			}
			return nil, err
		}
		if room.Status != model.StatusWaiting {
			continue
		}
		count, err := s.client.HLen(ctx, playersKey(roomID)).Result()
		if err != nil {
			return nil, err
		}
		if int(count) >= room.MaxPlayers {
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// Player operations

func (s *Store) UpsertPlayer(ctx context.Context, player *model.Player) error {
	if err := s.requireRoom(ctx, player.RoomID); err != nil {
		return err
	}

	key := playersKey(player.RoomID)
	err := s.rmw(ctx, func(tx *redis.Tx) error {
		existing, err := tx.HGet(ctx, key, string(player.ID)).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		var record model.Player
		if err == nil {
			// Rejoin with the same stable identity: keep the record,
			// refresh the display name only.
			if err := json.Unmarshal(existing, &record); err != nil {
				return err
			}
			record.Name = player.Name
		} else {
			record = *player
			record.JoinedAt = time.Now()
		}

		data, err := json.Marshal(&record)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, string(player.ID), data)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return err
	}

	s.signalChanged(ctx, player.RoomID)
	return nil
}

func (s *Store) GetPlayers(ctx context.Context, roomID model.RoomID) ([]*model.Player, error) {
	if err := s.requireRoom(ctx, roomID); err != nil {
		return nil, err
	}
	raw, err := s.client.HGetAll(ctx, playersKey(roomID)).Result()
	if err != nil {
		return nil, err
	}
	return decodePlayers(raw)
}

func (s *Store) PatchPlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID, patch store.PlayerPatch) error {
	key := playersKey(roomID)
	err := s.rmw(ctx, func(tx *redis.Tx) error {
		data, err := tx.HGet(ctx, key, string(id)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrPlayerNotFound
			}
			return err
		}

		var player model.Player
		if err := json.Unmarshal(data, &player); err != nil {
			return err
		}
		patch.Apply(&player)

		updated, err := json.Marshal(&player)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, string(id), updated)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return err
	}

	s.signalChanged(ctx, roomID)
	return nil
}

func (s *Store) DeletePlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID) error {
	if err := s.requireRoom(ctx, roomID); err != nil {
		return err
	}
	if err := s.client.HDel(ctx, playersKey(roomID), string(id)).Err(); err != nil {
		return err
	}

	s.signalChanged(ctx, roomID)
	return nil
}

// Fact operations

func (s *Store) AddFact(ctx context.Context, fact *model.Fact) error {
	if err := s.requireRoom(ctx, fact.RoomID); err != nil {
		return err
	}

	fact.CreatedAt = time.Now()
	data, err := json.Marshal(fact)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, factsKey(fact.RoomID), string(fact.ID), data).Err(); err != nil {
		return err
	}

	s.signalChanged(ctx, fact.RoomID)
	return nil
}

func (s *Store) GetFacts(ctx context.Context, roomID model.RoomID) ([]*model.Fact, error) {
	if err := s.requireRoom(ctx, roomID); err != nil {
		return nil, err
	}
	raw, err := s.client.HGetAll(ctx, factsKey(roomID)).Result()
	if err != nil {
		return nil, err
	}
	return decodeFacts(raw)
}

func (s *Store) PatchFact(ctx context.Context, roomID model.RoomID, id model.FactID, patch store.FactPatch) error {
	key := factsKey(roomID)
	err := s.rmw(ctx, func(tx *redis.Tx) error {
		data, err := tx.HGet(ctx, key, string(id)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrFactNotFound
			}
			return err
		}

		var fact model.Fact
		if err := json.Unmarshal(data, &fact); err != nil {
			return err
		}
		patch.Apply(&fact)

		updated, err := json.Marshal(&fact)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, string(id), updated)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return err
	}

	s.signalChanged(ctx, roomID)
	return nil
}

// Vote operations

func (s *Store) PutVote(ctx context.Context, vote *model.Vote) error {
	if err := s.requireRoom(ctx, vote.RoomID); err != nil {
		return err
	}

	vote.CastAt = time.Now()
	data, err := json.Marshal(vote)
	if err != nil {
		return err
	}

	// HSETNX gives create-only semantics: one vote document per voter,
	// first write wins.
	created, err := s.client.HSetNX(ctx, votesKey(vote.RoomID), string(vote.VoterID), data).Result()
	if err != nil {
		return err
	}
	if !created {
		if vote.Timeout {
			return nil
		}
		return model.ErrVoteExists
	}

	s.signalChanged(ctx, vote.RoomID)
	return nil
}

func (s *Store) GetVotes(ctx context.Context, roomID model.RoomID) ([]*model.Vote, error) {
	if err := s.requireRoom(ctx, roomID); err != nil {
		return nil, err
	}
	raw, err := s.client.HGetAll(ctx, votesKey(roomID)).Result()
	if err != nil {
		return nil, err
	}
	return decodeVotes(raw)
}

// Stats operations

func (s *Store) IncrementStats(ctx context.Context, id model.PlayerID, games, wins, coins int) error {
	pipe := s.client.Pipeline()
	key := statsKey(id)
	pipe.HIncrBy(ctx, key, "gamesPlayed", int64(games))
	pipe.HIncrBy(ctx, key, "wins", int64(wins))
	pipe.HIncrBy(ctx, key, "coins", int64(coins))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) GetStats(ctx context.Context, id model.PlayerID) (*model.PlayerStats, error) {
	raw, err := s.client.HGetAll(ctx, statsKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, model.ErrPlayerNotFound
	}
	return decodeStats(id, raw), nil
}

// Batch operations

func (s *Store) ApplyBatch(ctx context.Context, roomID model.RoomID, ops []store.Op) error {
	rKey := roomKey(roomID)
	pKey := playersKey(roomID)
	fKey := factsKey(roomID)
	vKey := votesKey(roomID)

	err := s.rmw(ctx, func(tx *redis.Tx) error {
		roomData, err := tx.Get(ctx, rKey).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrRoomNotFound
			}
			return err
		}
		var room model.Room
		if err := json.Unmarshal(roomData, &room); err != nil {
			return err
		}

		rawPlayers, err := tx.HGetAll(ctx, pKey).Result()
		if err != nil {
			return err
		}
		rawFacts, err := tx.HGetAll(ctx, fKey).Result()
		if err != nil {
			return err
		}

		players := make(map[model.PlayerID]*model.Player)
		facts := make(map[model.FactID]*model.Fact)
		clearVotes := false

		// Apply all patches in memory first; any missing document aborts
		// the batch before a single write is issued.
		for _, op := range ops {
			switch op := op.(type) {
			case store.RoomOp:
				op.Patch.Apply(&room)
			case store.PlayerOp:
				player, ok := players[op.PlayerID]
				if !ok {
					raw, found := rawPlayers[string(op.PlayerID)]
					if !found {
						return model.ErrPlayerNotFound
					}
					player = &model.Player{}
					if err := json.Unmarshal([]byte(raw), player); err != nil {
						return err
					}
					players[op.PlayerID] = player
				}
				op.Patch.Apply(player)
			case store.FactOp:
				fact, ok := facts[op.FactID]
				if !ok {
					raw, found := rawFacts[string(op.FactID)]
					if !found {
						return model.ErrFactNotFound
					}
					fact = &model.Fact{}
					if err := json.Unmarshal([]byte(raw), fact); err != nil {
						return err
					}
					facts[op.FactID] = fact
				}
				op.Patch.Apply(fact)
			case store.ClearVotesOp:
				clearVotes = true
			}
		}

		updatedRoom, err := json.Marshal(&room)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rKey, updatedRoom, redis.KeepTTL)
			if room.Status != model.StatusWaiting {
				pipe.SRem(ctx, openRoomsKey(room.GameType), string(roomID))
			}
			for id, player := range players {
				data, err := json.Marshal(player)
				if err != nil {
					return err
				}
				pipe.HSet(ctx, pKey, string(id), data)
			}
			for id, fact := range facts {
				data, err := json.Marshal(fact)
				if err != nil {
					return err
				}
				pipe.HSet(ctx, fKey, string(id), data)
			}
			if clearVotes {
				pipe.Del(ctx, vKey)
			}
			return nil
		})
		return err
	}, rKey, pKey, fKey, vKey)
	if err != nil {
		return err
	}

	s.signalChanged(ctx, roomID)
	return nil
}

// Snapshot operations

func (s *Store) Snapshot(ctx context.Context, roomID model.RoomID) (*model.Snapshot, error) {
	pipe := s.client.Pipeline()
	roomCmd := pipe.Get(ctx, roomKey(roomID))
	playersCmd := pipe.HGetAll(ctx, playersKey(roomID))
	factsCmd := pipe.HGetAll(ctx, factsKey(roomID))
	votesCmd := pipe.HGetAll(ctx, votesKey(roomID))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	roomData, err := roomCmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &model.Snapshot{Deleted: true}, nil
		}
		return nil, err
	}
	var room model.Room
	if err := json.Unmarshal(roomData, &room); err != nil {
		return nil, err
	}

	players, err := decodePlayers(playersCmd.Val())
	if err != nil {
		return nil, err
	}
	facts, err := decodeFacts(factsCmd.Val())
	if err != nil {
		return nil, err
	}
	votes, err := decodeVotes(votesCmd.Val())
	if err != nil {
		return nil, err
	}

	return &model.Snapshot{
		Room:    &room,
		Players: players,
		Facts:   facts,
		Votes:   votes,
	}, nil
}

func (s *Store) requireRoom(ctx context.Context, roomID model.RoomID) error {
	exists, err := s.client.Exists(ctx, roomKey(roomID)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return model.ErrRoomNotFound
	}
	return nil
}

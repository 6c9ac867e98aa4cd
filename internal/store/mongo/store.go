package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/store"
)

// Store is a MongoDB-backed implementation of the room store. Each entity
// type lives in its own collection; multi-document transitions run inside
// a session transaction.
type Store struct {
	client *mongo.Client
	cfg    Config

	rooms   *mongo.Collection
	players *mongo.Collection
	facts   *mongo.Collection
	votes   *mongo.Collection
	stats   *mongo.Collection
}

// New connects to MongoDB and creates a new store instance
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a store backed by an existing client (for testing)
func NewWithClient(client *mongo.Client, cfg Config) *Store {
	db := client.Database(cfg.Database)
	return &Store{
		client:  client,
		cfg:     cfg,
		rooms:   db.Collection("rooms"),
		players: db.Collection("players"),
		facts:   db.Collection("facts"),
		votes:   db.Collection("votes"),
		stats:   db.Collection("stats"),
	}
}

// Close disconnects from MongoDB
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure Store implements the interface
var _ store.Store = (*Store)(nil)

// Room operations

func (s *Store) CreateRoom(ctx context.Context, room *model.Room) error {
	room.CreatedAt = time.Now()
	_, err := s.rooms.InsertOne(ctx, room)
	if mongo.IsDuplicateKeyError(err) {
		return model.ErrRoomExists
	}
	return err
}

func (s *Store) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	var room model.Room
	err := s.rooms.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Store) PatchRoom(ctx context.Context, id model.RoomID, patch store.RoomPatch) error {
	res, err := s.rooms.UpdateOne(ctx, bson.M{"_id": id}, roomUpdate(patch))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return model.ErrRoomNotFound
	}
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, id model.RoomID) error {
	return s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := s.rooms.DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return model.ErrRoomNotFound
		}
		scope := bson.M{"roomId": id}
		if _, err := s.players.DeleteMany(sc, scope); err != nil {
			return err
		}
		if _, err := s.facts.DeleteMany(sc, scope); err != nil {
			return err
		}
		_, err = s.votes.DeleteMany(sc, scope)
		return err
	})
}

func (s *Store) ListOpenRooms(ctx context.Context, gameType model.GameType) ([]*model.Room, error) {
	cursor, err := s.rooms.Find(ctx, bson.M{
		"gameType": gameType,
		"status":   model.StatusWaiting,
	})
	if err != nil {
		return nil, err
	}
	var all []*model.Room
	if err := cursor.All(ctx, &all); err != nil {
		return nil, err
	}

	rooms := make([]*model.Room, 0, len(all))
	for _, room := range all {
		count, err := s.players.CountDocuments(ctx, bson.M{"roomId": room.ID})
		if err != nil {
			return nil, err
		}
		if int(count) < room.MaxPlayers {
			rooms = append(rooms, room)
		}
	}
	return rooms, nil
}

// Player operations

func (s *Store) UpsertPlayer(ctx context.Context, player *model.Player) error {
	if err := s.requireRoom(ctx, player.RoomID); err != nil {
		return err
	}

	// One atomic upsert: a rejoin refreshes the name only, everything else
	// is written once on first join.
	_, err := s.players.UpdateOne(ctx,
		bson.M{"roomId": player.RoomID, "id": player.ID},
		bson.M{
			"$set": bson.M{"name": player.Name},
			"$setOnInsert": bson.M{
				"isHost":       player.IsHost,
				"isReady":      player.IsReady,
				"hasSubmitted": false,
				"hasVoted":     false,
				"score":        0,
				"joinedAt":     time.Now(),
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *Store) GetPlayers(ctx context.Context, roomID model.RoomID) ([]*model.Player, error) {
	if err := s.requireRoom(ctx, roomID); err != nil {
		return nil, err
	}
	cursor, err := s.players.Find(ctx, bson.M{"roomId": roomID})
	if err != nil {
		return nil, err
	}
	players := []*model.Player{}
	if err := cursor.All(ctx, &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (s *Store) PatchPlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID, patch store.PlayerPatch) error {
	res, err := s.players.UpdateOne(ctx, bson.M{"roomId": roomID, "id": id}, playerUpdate(patch))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return model.ErrPlayerNotFound
	}
	return nil
}

func (s *Store) DeletePlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID) error {
	if err := s.requireRoom(ctx, roomID); err != nil {
		return err
	}
	_, err := s.players.DeleteOne(ctx, bson.M{"roomId": roomID, "id": id})
	return err
}

// Fact operations

func (s *Store) AddFact(ctx context.Context, fact *model.Fact) error {
	if err := s.requireRoom(ctx, fact.RoomID); err != nil {
		return err
	}
	fact.CreatedAt = time.Now()
	_, err := s.facts.InsertOne(ctx, fact)
	return err
}

func (s *Store) GetFacts(ctx context.Context, roomID model.RoomID) ([]*model.Fact, error) {
	if err := s.requireRoom(ctx, roomID); err != nil {
		return nil, err
	}
	cursor, err := s.facts.Find(ctx, bson.M{"roomId": roomID})
	if err != nil {
		return nil, err
	}
	facts := []*model.Fact{}
	if err := cursor.All(ctx, &facts); err != nil {
		return nil, err
	}
	return facts, nil
}

func (s *Store) PatchFact(ctx context.Context, roomID model.RoomID, id model.FactID, patch store.FactPatch) error {
	res, err := s.facts.UpdateOne(ctx, bson.M{"_id": id}, factUpdate(patch))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return model.ErrFactNotFound
	}
	return nil
}

// Vote operations

func (s *Store) PutVote(ctx context.Context, vote *model.Vote) error {
	if err := s.requireRoom(ctx, vote.RoomID); err != nil {
		return err
	}

	// $setOnInsert only writes when no vote document exists for this
	// voter, so the first vote wins and a timeout can never displace it.
	res, err := s.votes.UpdateOne(ctx,
		bson.M{"roomId": vote.RoomID, "voterId": vote.VoterID},
		bson.M{"$setOnInsert": bson.M{
			"factId":   vote.FactID,
			"chosenId": vote.ChosenID,
			"correct":  vote.Correct,
			"timeout":  vote.Timeout,
			"castAt":   time.Now(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return err
	}
	if res.UpsertedCount == 0 {
		if vote.Timeout {
			return nil
		}
		return model.ErrVoteExists
	}
	return nil
}

func (s *Store) GetVotes(ctx context.Context, roomID model.RoomID) ([]*model.Vote, error) {
	if err := s.requireRoom(ctx, roomID); err != nil {
		return nil, err
	}
	cursor, err := s.votes.Find(ctx, bson.M{"roomId": roomID})
	if err != nil {
		return nil, err
	}
	votes := []*model.Vote{}
	if err := cursor.All(ctx, &votes); err != nil {
		return nil, err
	}
	return votes, nil
}

// Stats operations

func (s *Store) IncrementStats(ctx context.Context, id model.PlayerID, games, wins, coins int) error {
	_, err := s.stats.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{
			"gamesPlayed": games,
			"wins":        wins,
			"coins":       coins,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *Store) GetStats(ctx context.Context, id model.PlayerID) (*model.PlayerStats, error) {
	var stats model.PlayerStats
	err := s.stats.FindOne(ctx, bson.M{"_id": id}).Decode(&stats)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Batch operations

func (s *Store) ApplyBatch(ctx context.Context, roomID model.RoomID, ops []store.Op) error {
	return s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		for _, op := range ops {
			switch op := op.(type) {
			case store.RoomOp:
				res, err := s.rooms.UpdateOne(sc, bson.M{"_id": roomID}, roomUpdate(op.Patch))
				if err != nil {
					return err
				}
				if res.MatchedCount == 0 {
					return model.ErrRoomNotFound
				}
			case store.PlayerOp:
				res, err := s.players.UpdateOne(sc, bson.M{"roomId": roomID, "id": op.PlayerID}, playerUpdate(op.Patch))
				if err != nil {
					return err
				}
				if res.MatchedCount == 0 {
					return model.ErrPlayerNotFound
				}
			case store.FactOp:
				res, err := s.facts.UpdateOne(sc, bson.M{"_id": op.FactID}, factUpdate(op.Patch))
				if err != nil {
					return err
				}
				if res.MatchedCount == 0 {
					return model.ErrFactNotFound
				}
			case store.ClearVotesOp:
				if _, err := s.votes.DeleteMany(sc, bson.M{"roomId": roomID}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Snapshot operations

func (s *Store) Snapshot(ctx context.Context, roomID model.RoomID) (*model.Snapshot, error) {
	room, err := s.GetRoom(ctx, roomID)
	if errors.Is(err, model.ErrRoomNotFound) {
		return &model.Snapshot{Deleted: true}, nil
	}
	if err != nil {
		return nil, err
	}
	players, err := s.GetPlayers(ctx, roomID)
	if err != nil {
		return nil, err
	}
	facts, err := s.GetFacts(ctx, roomID)
	if err != nil {
		return nil, err
	}
	votes, err := s.GetVotes(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return &model.Snapshot{
		Room:    room,
		Players: players,
		Facts:   facts,
		Votes:   votes,
	}, nil
}

func (s *Store) requireRoom(ctx context.Context, roomID model.RoomID) error {
	count, err := s.rooms.CountDocuments(ctx, bson.M{"_id": roomID})
	if err != nil {
		return err
	}
	if count == 0 {
		return model.ErrRoomNotFound
	}
	return nil
}

func (s *Store) inTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

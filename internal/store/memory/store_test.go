package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/store"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func (s *StoreSuite) createRoom(id model.RoomID) *model.Room {
	room := &model.Room{
		ID:         id,
		Code:       "12345",
		GameType:   model.GameFact,
		HostID:     "host",
		Status:     model.StatusWaiting,
		Phase:      model.PhaseLobby,
		MaxPlayers: model.MaxPlayers,
	}
	s.Require().NoError(s.store.CreateRoom(s.ctx, room))
	return room
}

func (s *StoreSuite) addPlayer(roomID model.RoomID, id model.PlayerID, name string) {
	s.Require().NoError(s.store.UpsertPlayer(s.ctx, &model.Player{
		ID:     id,
		RoomID: roomID,
		Name:   name,
	}))
}

// Room tests

func (s *StoreSuite) TestCreateRoomAssignsCreatedAt() {
	room := s.createRoom("fact_12345")
	s.False(room.CreatedAt.IsZero())

	got, err := s.store.GetRoom(s.ctx, "fact_12345")
	s.Require().NoError(err)
	s.Equal(model.PhaseLobby, got.Phase)
}

func (s *StoreSuite) TestCreateRoomDuplicateFails() {
	s.createRoom("fact_12345")
	err := s.store.CreateRoom(s.ctx, &model.Room{ID: "fact_12345"})
	s.ErrorIs(err, model.ErrRoomExists)
}

func (s *StoreSuite) TestGetRoomNotFound() {
	_, err := s.store.GetRoom(s.ctx, "fact_00000")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StoreSuite) TestPatchRoomMergesSetFieldsOnly() {
	s.createRoom("fact_12345")

	err := s.store.PatchRoom(s.ctx, "fact_12345", store.RoomPatch{
		Phase:  store.Ptr(model.PhaseWriting),
		Status: store.Ptr(model.StatusPlaying),
	})
	s.Require().NoError(err)

	got, err := s.store.GetRoom(s.ctx, "fact_12345")
	s.Require().NoError(err)
	s.Equal(model.PhaseWriting, got.Phase)
	s.Equal(model.StatusPlaying, got.Status)
	s.Equal("12345", got.Code)
}

func (s *StoreSuite) TestDeleteRoomCascades() {
	s.createRoom("fact_12345")
	s.addPlayer("fact_12345", "p1", "Alice")

	s.Require().NoError(s.store.DeleteRoom(s.ctx, "fact_12345"))

	_, err := s.store.GetRoom(s.ctx, "fact_12345")
	s.ErrorIs(err, model.ErrRoomNotFound)
	_, err = s.store.GetPlayers(s.ctx, "fact_12345")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StoreSuite) TestListOpenRoomsFiltersTypeStatusAndCapacity() {
	s.createRoom("fact_11111")
	s.createRoom("fact_22222")
	s.createRoom("fact_33333")
	s.Require().NoError(s.store.CreateRoom(s.ctx, &model.Room{
		ID:       "topics_44444",
		GameType: model.GameTopics,
		Status:   model.StatusWaiting,
	}))

	// One room started playing
	s.Require().NoError(s.store.PatchRoom(s.ctx, "fact_22222", store.RoomPatch{
		Status: store.Ptr(model.StatusPlaying),
	}))
	// One room is full
	full, err := s.store.GetRoom(s.ctx, "fact_33333")
	s.Require().NoError(err)
	for i := 0; i < full.MaxPlayers; i++ {
		s.addPlayer("fact_33333", model.PlayerID(rune('a'+i)), "p")
	}

	rooms, err := s.store.ListOpenRooms(s.ctx, model.GameFact)
	s.Require().NoError(err)
	s.Require().Len(rooms, 1)
	s.Equal(model.RoomID("fact_11111"), rooms[0].ID)
}

// Player tests

func (s *StoreSuite) TestUpsertPlayerRejoinKeepsRecord() {
	s.createRoom("fact_12345")
	s.addPlayer("fact_12345", "p1", "Alice")

	// Accumulate some state
	s.Require().NoError(s.store.PatchPlayer(s.ctx, "fact_12345", "p1", store.PlayerPatch{
		HasSubmitted: store.Ptr(true),
		ScoreDelta:   3,
	}))

	// Rejoin with a new display name
	s.addPlayer("fact_12345", "p1", "Alicia")

	players, err := s.store.GetPlayers(s.ctx, "fact_12345")
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	s.Equal("Alicia", players[0].Name)
	s.True(players[0].HasSubmitted)
	s.Equal(3, players[0].Score)
}

func (s *StoreSuite) TestPatchPlayerScoreDeltaAccumulates() {
	s.createRoom("fact_12345")
	s.addPlayer("fact_12345", "p1", "Alice")

	for i := 0; i < 3; i++ {
		s.Require().NoError(s.store.PatchPlayer(s.ctx, "fact_12345", "p1", store.PlayerPatch{ScoreDelta: 1}))
	}

	players, err := s.store.GetPlayers(s.ctx, "fact_12345")
	s.Require().NoError(err)
	s.Equal(3, players[0].Score)
}

func (s *StoreSuite) TestPatchPlayerNotFound() {
	s.createRoom("fact_12345")
	err := s.store.PatchPlayer(s.ctx, "fact_12345", "ghost", store.PlayerPatch{ScoreDelta: 1})
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Vote tests

func (s *StoreSuite) TestPutVoteCreateOnly() {
	s.createRoom("fact_12345")

	err := s.store.PutVote(s.ctx, &model.Vote{VoterID: "p1", RoomID: "fact_12345", FactID: "f1", ChosenID: "p2"})
	s.Require().NoError(err)

	err = s.store.PutVote(s.ctx, &model.Vote{VoterID: "p1", RoomID: "fact_12345", FactID: "f1", ChosenID: "p3"})
	s.ErrorIs(err, model.ErrVoteExists)

	votes, err := s.store.GetVotes(s.ctx, "fact_12345")
	s.Require().NoError(err)
	s.Require().Len(votes, 1)
	s.Equal(model.PlayerID("p2"), votes[0].ChosenID)
}

func (s *StoreSuite) TestPutVoteTimeoutNeverDisplacesRealVote() {
	s.createRoom("fact_12345")

	s.Require().NoError(s.store.PutVote(s.ctx, &model.Vote{
		VoterID: "p1", RoomID: "fact_12345", FactID: "f1", ChosenID: "p2", Correct: true,
	}))

	// Late timeout fires after the real vote: silently dropped
	err := s.store.PutVote(s.ctx, &model.Vote{VoterID: "p1", RoomID: "fact_12345", FactID: "f1", Timeout: true})
	s.NoError(err)

	votes, err := s.store.GetVotes(s.ctx, "fact_12345")
	s.Require().NoError(err)
	s.Require().Len(votes, 1)
	s.False(votes[0].Timeout)
	s.True(votes[0].Correct)
}

// Stats tests

func (s *StoreSuite) TestIncrementStatsAccumulates() {
	s.Require().NoError(s.store.IncrementStats(s.ctx, "p1", 1, 1, 50))
	s.Require().NoError(s.store.IncrementStats(s.ctx, "p1", 1, 0, 10))

	stats, err := s.store.GetStats(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(2, stats.GamesPlayed)
	s.Equal(1, stats.Wins)
	s.Equal(60, stats.Coins)
}

// Batch tests

func (s *StoreSuite) TestApplyBatchCommitsAllOps() {
	s.createRoom("fact_12345")
	s.addPlayer("fact_12345", "p1", "Alice")
	s.Require().NoError(s.store.AddFact(s.ctx, &model.Fact{
		ID: "f1", RoomID: "fact_12345", AuthorID: "p1", OrderIndex: model.OrderUnassigned,
	}))
	s.Require().NoError(s.store.PutVote(s.ctx, &model.Vote{VoterID: "p1", RoomID: "fact_12345", FactID: "f1"}))

	err := s.store.ApplyBatch(s.ctx, "fact_12345", []store.Op{
		store.RoomOp{Patch: store.RoomPatch{Phase: store.Ptr(model.PhaseVoting)}},
		store.PlayerOp{PlayerID: "p1", Patch: store.PlayerPatch{HasVoted: store.Ptr(false), ScoreDelta: 1}},
		store.FactOp{FactID: "f1", Patch: store.FactPatch{OrderIndex: store.Ptr(0)}},
		store.ClearVotesOp{},
	})
	s.Require().NoError(err)

	snap, err := s.store.Snapshot(s.ctx, "fact_12345")
	s.Require().NoError(err)
	s.Equal(model.PhaseVoting, snap.Room.Phase)
	s.Equal(1, snap.Players[0].Score)
	s.Equal(0, snap.Facts[0].OrderIndex)
	s.Empty(snap.Votes)
}

func (s *StoreSuite) TestApplyBatchAllOrNothing() {
	s.createRoom("fact_12345")
	s.addPlayer("fact_12345", "p1", "Alice")

	err := s.store.ApplyBatch(s.ctx, "fact_12345", []store.Op{
		store.RoomOp{Patch: store.RoomPatch{Phase: store.Ptr(model.PhaseVoting)}},
		store.FactOp{FactID: "missing", Patch: store.FactPatch{Revealed: store.Ptr(true)}},
	})
	s.ErrorIs(err, model.ErrFactNotFound)

	// Nothing was applied
	got, err := s.store.GetRoom(s.ctx, "fact_12345")
	s.Require().NoError(err)
	s.Equal(model.PhaseLobby, got.Phase)
}

// Watch tests

func (s *StoreSuite) waitSnapshot(ch <-chan *model.Snapshot) *model.Snapshot {
	select {
	case snap, ok := <-ch:
		s.Require().True(ok, "subscription closed unexpectedly")
		return snap
	case <-time.After(time.Second):
		s.Require().FailNow("timed out waiting for snapshot")
		return nil
	}
}

func (s *StoreSuite) TestWatchDeliversCurrentSnapshotOnAttach() {
	s.createRoom("fact_12345")
	s.addPlayer("fact_12345", "p1", "Alice")

	sub, err := s.store.Watch(s.ctx, "fact_12345")
	s.Require().NoError(err)
	defer sub.Close()

	snap := s.waitSnapshot(sub.Snapshots())
	s.Require().NotNil(snap.Room)
	s.Len(snap.Players, 1)
}

func (s *StoreSuite) TestWatchUnknownRoom() {
	_, err := s.store.Watch(s.ctx, "fact_00000")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StoreSuite) TestWatchConvergesOnLatestState() {
	s.createRoom("fact_12345")

	sub, err := s.store.Watch(s.ctx, "fact_12345")
	s.Require().NoError(err)
	defer sub.Close()

	// Burst of writes; deliveries may coalesce but the final snapshot
	// reflects the last write.
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.store.PatchRoom(s.ctx, "fact_12345", store.RoomPatch{
			CurrentFactIndex: store.Ptr(i),
		}))
	}

	deadline := time.After(time.Second)
	for {
		select {
		case snap := <-sub.Snapshots():
			if snap.Room != nil && snap.Room.CurrentFactIndex == 4 {
				return
			}
		case <-deadline:
			s.FailNow("never observed the final state")
		}
	}
}

func (s *StoreSuite) TestWatchRoomDeletedIsTerminal() {
	s.createRoom("fact_12345")

	sub, err := s.store.Watch(s.ctx, "fact_12345")
	s.Require().NoError(err)
	defer sub.Close()

	s.waitSnapshot(sub.Snapshots())
	s.Require().NoError(s.store.DeleteRoom(s.ctx, "fact_12345"))

	deadline := time.After(time.Second)
	for {
		select {
		case snap, ok := <-sub.Snapshots():
			if !ok {
				return // closed after the deletion signal
			}
			if snap.Deleted {
				s.Nil(snap.Room)
			}
		case <-deadline:
			s.FailNow("subscription never ended after room deletion")
		}
	}
}

package room

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/bashkah/partyroom/internal/dependencies/mocks"
	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/store"
	"github.com/bashkah/partyroom/internal/store/memory"
	"github.com/bashkah/partyroom/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	store      *memory.Store
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.store = memory.New()
	s.random = mocks.NewMockRandom()
	s.controller = NewController(s.store, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

// CreateRoom

func (s *ControllerSuite) TestCreateRoomSetsUpHost() {
	s.random.QueueString("12345")

	room, err := s.controller.CreateRoom(s.ctx, model.GameFact, "host", "Ann")
	s.Require().NoError(err)

	s.Equal(model.RoomID("fact_12345"), room.ID)
	s.Equal("12345", room.Code)
	s.Equal(model.StatusWaiting, room.Status)
	s.Equal(model.PhaseLobby, room.Phase)
	s.Equal(model.MaxPlayers, room.MaxPlayers)

	players, err := s.store.GetPlayers(s.ctx, room.ID)
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	s.True(players[0].IsHost)
	s.Equal("Ann", players[0].Name)
}

func (s *ControllerSuite) TestCreateRoomRetriesOnCodeCollision() {
	s.random.QueueString("12345")
	_, err := s.controller.CreateRoom(s.ctx, model.GameFact, "host1", "Ann")
	s.Require().NoError(err)

	// Same code drawn again, then a fresh one
	s.random.QueueString("12345", "67890")
	room, err := s.controller.CreateRoom(s.ctx, model.GameFact, "host2", "Bob")
	s.Require().NoError(err)
	s.Equal("67890", room.Code)
}

func (s *ControllerSuite) TestSameCodeAcrossGameTypes() {
	s.random.QueueString("12345", "12345")

	_, err := s.controller.CreateRoom(s.ctx, model.GameFact, "host1", "Ann")
	s.Require().NoError(err)
	room, err := s.controller.CreateRoom(s.ctx, model.GameTopics, "host2", "Bob")
	s.Require().NoError(err)
	s.Equal(model.RoomID("topics_12345"), room.ID)
}

// JoinRoom

func (s *ControllerSuite) create() *model.Room {
	s.random.QueueString("12345")
	room, err := s.controller.CreateRoom(s.ctx, model.GameFact, "host", "Ann")
	s.Require().NoError(err)
	return room
}

func (s *ControllerSuite) TestJoinRoomByCode() {
	s.create()

	room, err := s.controller.JoinRoom(s.ctx, model.GameFact, "12345", "p2", "Bob")
	s.Require().NoError(err)
	s.Equal(model.RoomID("fact_12345"), room.ID)

	players, err := s.store.GetPlayers(s.ctx, room.ID)
	s.Require().NoError(err)
	s.Len(players, 2)
}

func (s *ControllerSuite) TestJoinRoomMalformedCode() {
	_, err := s.controller.JoinRoom(s.ctx, model.GameFact, "12a45", "p2", "Bob")
	s.ErrorIs(err, model.ErrInvalidCode)

	_, err = s.controller.JoinRoom(s.ctx, model.GameFact, "123", "p2", "Bob")
	s.ErrorIs(err, model.ErrInvalidCode)
}

func (s *ControllerSuite) TestJoinRoomUnknownCode() {
	_, err := s.controller.JoinRoom(s.ctx, model.GameFact, "99999", "p2", "Bob")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ControllerSuite) TestJoinRoomFull() {
	room := s.create()
	for i := 0; i < room.MaxPlayers-1; i++ {
		id := model.PlayerID(rune('a' + i))
		_, err := s.controller.JoinRoom(s.ctx, model.GameFact, "12345", id, "P")
		s.Require().NoError(err)
	}

	_, err := s.controller.JoinRoom(s.ctx, model.GameFact, "12345", "late", "Late")
	s.ErrorIs(err, model.ErrRoomFull)
}

func (s *ControllerSuite) TestJoinRoomStartedGame() {
	s.create()
	s.Require().NoError(s.store.PatchRoom(s.ctx, "fact_12345", store.RoomPatch{
		Status: store.Ptr(model.StatusPlaying),
	}))

	_, err := s.controller.JoinRoom(s.ctx, model.GameFact, "12345", "p2", "Bob")
	s.ErrorIs(err, model.ErrRoomClosed)
}

func (s *ControllerSuite) TestRejoinIdempotentEvenMidGame() {
	s.create()
	_, err := s.controller.JoinRoom(s.ctx, model.GameFact, "12345", "p2", "Bob")
	s.Require().NoError(err)

	s.Require().NoError(s.store.PatchRoom(s.ctx, "fact_12345", store.RoomPatch{
		Status: store.Ptr(model.StatusPlaying),
	}))
	s.Require().NoError(s.store.PatchPlayer(s.ctx, "fact_12345", "p2", store.PlayerPatch{
		ScoreDelta: 2,
	}))

	// Same identity rejoins a playing room: allowed, one record, state kept
	_, err = s.controller.JoinRoom(s.ctx, model.GameFact, "12345", "p2", "Bobby")
	s.Require().NoError(err)

	players, err := s.store.GetPlayers(s.ctx, "fact_12345")
	s.Require().NoError(err)
	s.Require().Len(players, 2)
	for _, p := range players {
		if p.ID == "p2" {
			s.Equal("Bobby", p.Name)
			s.Equal(2, p.Score)
		}
	}
}

// LeaveRoom

func (s *ControllerSuite) TestLeaveRoomRemovesPlayer() {
	s.create()
	_, err := s.controller.JoinRoom(s.ctx, model.GameFact, "12345", "p2", "Bob")
	s.Require().NoError(err)

	s.Require().NoError(s.controller.LeaveRoom(s.ctx, "fact_12345", "p2"))

	players, err := s.store.GetPlayers(s.ctx, "fact_12345")
	s.Require().NoError(err)
	s.Len(players, 1)
}

func (s *ControllerSuite) TestLeaveRoomNotInRoom() {
	s.create()
	err := s.controller.LeaveRoom(s.ctx, "fact_12345", "ghost")
	s.ErrorIs(err, model.ErrNotInRoom)
}

func (s *ControllerSuite) TestHostLeavingClosesRoom() {
	s.create()
	_, err := s.controller.JoinRoom(s.ctx, model.GameFact, "12345", "p2", "Bob")
	s.Require().NoError(err)

	s.Require().NoError(s.controller.LeaveRoom(s.ctx, "fact_12345", "host"))

	_, err = s.store.GetRoom(s.ctx, "fact_12345")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// ListOpenRooms / SetReady

func (s *ControllerSuite) TestListOpenRooms() {
	s.create()
	rooms, err := s.controller.ListOpenRooms(s.ctx, model.GameFact)
	s.Require().NoError(err)
	s.Len(rooms, 1)

	rooms, err = s.controller.ListOpenRooms(s.ctx, model.GameTopics)
	s.Require().NoError(err)
	s.Empty(rooms)
}

func (s *ControllerSuite) TestSetReady() {
	s.create()
	s.Require().NoError(s.controller.SetReady(s.ctx, "fact_12345", "host", true))

	players, err := s.store.GetPlayers(s.ctx, "fact_12345")
	s.Require().NoError(err)
	s.True(players[0].IsReady)
}

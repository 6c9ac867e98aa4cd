package model

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ModelSuite struct {
	suite.Suite
}

func TestModelSuite(t *testing.T) {
	suite.Run(t, new(ModelSuite))
}

func (s *ModelSuite) TestValidCode() {
	s.True(ValidCode("12345"))
	s.True(ValidCode("00000"))

	s.False(ValidCode("1234"))
	s.False(ValidCode("123456"))
	s.False(ValidCode("12a45"))
	s.False(ValidCode(""))
}

func (s *ModelSuite) TestNewRoomID() {
	s.Equal(RoomID("fact_12345"), NewRoomID(GameFact, "12345"))
	s.Equal(RoomID("topics_12345"), NewRoomID(GameTopics, "12345"))
}

func (s *ModelSuite) TestPhaseKnown() {
	for _, p := range []Phase{PhaseLobby, PhaseWriting, PhaseVoting, PhaseRevealing, PhaseResults} {
		s.True(p.Known())
	}
	s.False(Phase("intermission").Known())
	s.False(Phase("").Known())
}

func (s *ModelSuite) TestPlayerDonePerPhase() {
	p := &Player{HasSubmitted: true, HasVoted: false}
	s.True(p.Done(PhaseWriting))
	s.False(p.Done(PhaseVoting))
	s.True(p.Done(PhaseLobby))
	s.True(p.Done(PhaseRevealing))
	s.True(p.Done(PhaseResults))
}

func (s *ModelSuite) validSnapshot() *Snapshot {
	return &Snapshot{
		Room: &Room{
			ID:    "fact_12345",
			Phase: PhaseVoting,
		},
		Players: []*Player{{ID: "a", Score: 2}},
		Facts: []*Fact{
			{ID: "f1", OrderIndex: 0},
			{ID: "f2", OrderIndex: 1},
		},
	}
}

func (s *ModelSuite) TestSnapshotValidateAccepts() {
	s.NoError(s.validSnapshot().Validate())

	deleted := &Snapshot{Deleted: true}
	s.NoError(deleted.Validate())

	unassigned := s.validSnapshot()
	unassigned.Facts[1].OrderIndex = OrderUnassigned
	s.NoError(unassigned.Validate())
}

func (s *ModelSuite) TestSnapshotValidateRejects() {
	missing := s.validSnapshot()
	missing.Room = nil
	s.ErrorIs(missing.Validate(), ErrInvalidSnapshot)

	badPhase := s.validSnapshot()
	badPhase.Room.Phase = "intermission"
	s.ErrorIs(badPhase.Validate(), ErrInvalidSnapshot)

	negIndex := s.validSnapshot()
	negIndex.Room.CurrentFactIndex = -1
	s.ErrorIs(negIndex.Validate(), ErrInvalidSnapshot)

	negScore := s.validSnapshot()
	negScore.Players[0].Score = -1
	s.ErrorIs(negScore.Validate(), ErrInvalidSnapshot)

	outOfRange := s.validSnapshot()
	outOfRange.Facts[0].OrderIndex = 7
	s.ErrorIs(outOfRange.Validate(), ErrInvalidSnapshot)
}

func (s *ModelSuite) TestSnapshotHelpers() {
	snap := s.validSnapshot()
	snap.Room.CurrentFactIndex = 1

	s.Equal(FactID("f2"), snap.CurrentFact().ID)
	s.Equal(FactID("f1"), snap.FactByOrder(0).ID)
	s.Nil(snap.FactByOrder(5))
	s.NotNil(snap.Player("a"))
	s.Nil(snap.Player("ghost"))
}

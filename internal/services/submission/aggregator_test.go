package submission

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/bashkah/partyroom/internal/model"
)

type AggregatorSuite struct {
	suite.Suite
	agg *Aggregator
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorSuite))
}

func (s *AggregatorSuite) SetupTest() {
	s.agg = NewAggregator()
}

func player(id string, submitted, voted bool) *model.Player {
	return &model.Player{ID: model.PlayerID(id), HasSubmitted: submitted, HasVoted: voted}
}

func (s *AggregatorSuite) TestEmptyRosterNeverComplete() {
	s.False(s.agg.Complete(model.PhaseWriting, nil))
	s.False(s.agg.Complete(model.PhaseVoting, nil))
	s.False(s.agg.Complete(model.PhaseLobby, nil))
}

func (s *AggregatorSuite) TestWritingCompleteWhenAllSubmitted() {
	players := []*model.Player{player("a", true, false), player("b", true, false)}
	s.True(s.agg.Complete(model.PhaseWriting, players))

	players = append(players, player("c", false, false))
	s.False(s.agg.Complete(model.PhaseWriting, players))
}

func (s *AggregatorSuite) TestVotingCompleteWhenAllVoted() {
	players := []*model.Player{player("a", true, true), player("b", true, false)}
	s.False(s.agg.Complete(model.PhaseVoting, players))

	players[1].HasVoted = true
	s.True(s.agg.Complete(model.PhaseVoting, players))
}

func (s *AggregatorSuite) TestPhasesWithoutWorkCompleteWithAnyRoster() {
	players := []*model.Player{player("a", false, false)}
	s.True(s.agg.Complete(model.PhaseLobby, players))
	s.True(s.agg.Complete(model.PhaseRevealing, players))
	s.True(s.agg.Complete(model.PhaseResults, players))
}

func (s *AggregatorSuite) TestLeaverRecomputation() {
	// Completion recomputes from the roster: the blocker leaving makes
	// the remaining roster complete.
	players := []*model.Player{player("a", true, false), player("b", false, false)}
	s.False(s.agg.Complete(model.PhaseWriting, players))
	s.True(s.agg.Complete(model.PhaseWriting, players[:1]))
}

func (s *AggregatorSuite) TestPendingListsUnfinishedPlayers() {
	players := []*model.Player{player("a", true, false), player("b", false, false)}
	pending := s.agg.Pending(model.PhaseWriting, players)
	s.Require().Len(pending, 1)
	s.Equal(model.PlayerID("b"), pending[0].ID)
}

func (s *AggregatorSuite) TestAdvanceGuardFiresOnce() {
	guard := NewAdvanceGuard()

	s.True(guard.MarkShuffled("fact_12345"))
	s.False(guard.MarkShuffled("fact_12345"))
	s.True(guard.MarkShuffled("fact_67890"))

	s.True(guard.MarkRevealed("f1"))
	s.False(guard.MarkRevealed("f1"))
	s.True(guard.MarkRevealed("f2"))
}

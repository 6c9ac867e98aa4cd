package scoring

import (
	"sort"

	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/store"
)

const (
	// CoinsWinner is the coin payout for each winner at game end
	CoinsWinner = 50
	// CoinsParticipant is the coin payout for everyone else
	CoinsParticipant = 10
)

// Engine computes score awards, the leaderboard, and end-of-game stats.
// All functions are pure over the inputs; writes happen through the ops
// the caller commits.
type Engine struct{}

// NewEngine creates a new scoring Engine
func NewEngine() *Engine {
	return &Engine{}
}

// AwardOps returns the score increments for one reveal: +1 to every voter
// whose vote for the current fact was correct. The total points awarded
// equals the number of correct votes, no more and no less.
func (e *Engine) AwardOps(fact *model.Fact, votes []*model.Vote) []store.Op {
	var ops []store.Op
	for _, v := range votes {
		if v.FactID != fact.ID || !v.Correct {
			continue
		}
		ops = append(ops, store.PlayerOp{
			PlayerID: v.VoterID,
			Patch:    store.PlayerPatch{ScoreDelta: 1},
		})
	}
	return ops
}

// Leaderboard returns players sorted by score descending. Players with
// equal scores share a rank; the next distinct score takes the rank after
// the tied block (1, 1, 3 ordering).
func (e *Engine) Leaderboard(players []*model.Player) []model.PlayerScore {
	sorted := make([]*model.Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Name < sorted[j].Name
	})

	board := make([]model.PlayerScore, len(sorted))
	for i, p := range sorted {
		rank := i + 1
		if i > 0 && p.Score == sorted[i-1].Score {
			rank = board[i-1].Rank
		}
		board[i] = model.PlayerScore{
			PlayerID: p.ID,
			Name:     p.Name,
			Score:    p.Score,
			Rank:     rank,
		}
	}
	return board
}

// Winners returns every player holding the maximum score
func (e *Engine) Winners(players []*model.Player) []*model.Player {
	if len(players) == 0 {
		return nil
	}
	max := players[0].Score
	for _, p := range players[1:] {
		if p.Score > max {
			max = p.Score
		}
	}
	var winners []*model.Player
	for _, p := range players {
		if p.Score == max {
			winners = append(winners, p)
		}
	}
	return winners
}

// StatsIncrement is one player's end-of-game stats delta
type StatsIncrement struct {
	PlayerID model.PlayerID
	Games    int
	Wins     int
	Coins    int
}

// StatsIncrements returns the device-wide stats deltas applied once at game
// end: everyone played a game, winners get a win and the winner payout,
// everyone else the participant payout.
func (e *Engine) StatsIncrements(players, winners []*model.Player) []StatsIncrement {
	won := make(map[model.PlayerID]bool, len(winners))
	for _, w := range winners {
		won[w.ID] = true
	}

	incs := make([]StatsIncrement, 0, len(players))
	for _, p := range players {
		inc := StatsIncrement{PlayerID: p.ID, Games: 1, Coins: CoinsParticipant}
		if won[p.ID] {
			inc.Wins = 1
			inc.Coins = CoinsWinner
		}
		incs = append(incs, inc)
	}
	return incs
}

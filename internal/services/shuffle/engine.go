package shuffle

import (
	"github.com/bashkah/partyroom/internal/dependencies/random"
	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/store"
)

// Engine assigns the joker and the facts' presentation order. Both draws go
// through the injected Random so tests are deterministic.
type Engine struct {
	random random.Random
}

// NewEngine creates a new shuffle Engine
func NewEngine(random random.Random) *Engine {
	return &Engine{random: random}
}

// PickJoker selects one player uniformly at random
func (e *Engine) PickJoker(players []*model.Player) (model.PlayerID, error) {
	if len(players) == 0 {
		return "", model.ErrNoPlayers
	}
	return players[e.random.Intn(len(players))].ID, nil
}

// OrderBatch builds the atomic write set for the one-shot shuffle: a
// Fisher-Yates permutation assigns each fact a distinct order index in
// [0, N), and the room flips to voting with Shuffled set in the same
// commit. Callers must only treat the shuffle as done after the batch
// commits; a failed commit leaves every order index unassigned.
func (e *Engine) OrderBatch(facts []*model.Fact) ([]store.Op, error) {
	if len(facts) == 0 {
		return nil, model.ErrFactsIncomplete
	}

	perm := e.random.Perm(len(facts))
	ops := make([]store.Op, 0, len(facts)+1)
	for i, f := range facts {
		ops = append(ops, store.FactOp{
			FactID: f.ID,
			Patch:  store.FactPatch{OrderIndex: store.Ptr(perm[i])},
		})
	}
	ops = append(ops, store.RoomOp{Patch: store.RoomPatch{
		Phase:            store.Ptr(model.PhaseVoting),
		CurrentFactIndex: store.Ptr(0),
		Shuffled:         store.Ptr(true),
	}})
	return ops, nil
}

package submission

import (
	"sync"

	"github.com/bashkah/partyroom/internal/model"
)

// Aggregator reduces a room's roster to a single completion signal for the
// current phase. It is stateless: completion is recomputed from the full
// roster on every snapshot, so it survives players joining, leaving, or a
// mid-game re-attach.
type Aggregator struct{}

// NewAggregator creates a new Aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Complete reports whether every player has done the work the phase asks
// for. An empty roster is never complete; phases with no per-player work
// (lobby, revealing, results) are complete as soon as anyone is present.
func (a *Aggregator) Complete(phase model.Phase, players []*model.Player) bool {
	if len(players) == 0 {
		return false
	}
	for _, p := range players {
		if !p.Done(phase) {
			return false
		}
	}
	return true
}

// Pending returns the players who have not finished the phase's work,
// for progress display.
func (a *Aggregator) Pending(phase model.Phase, players []*model.Player) []*model.Player {
	var pending []*model.Player
	for _, p := range players {
		if !p.Done(phase) {
			pending = append(pending, p)
		}
	}
	return pending
}

// AdvanceGuard records which one-shot advances have already fired, so the
// same completion observed across several snapshots triggers its side
// effect once. Markers are monotonic: once set they stay set for the life
// of the guard.
type AdvanceGuard struct {
	mu       sync.Mutex
	shuffled map[model.RoomID]bool
	revealed map[model.FactID]bool
}

// NewAdvanceGuard creates a new AdvanceGuard
func NewAdvanceGuard() *AdvanceGuard {
	return &AdvanceGuard{
		shuffled: make(map[model.RoomID]bool),
		revealed: make(map[model.FactID]bool),
	}
}

// MarkShuffled marks the room's shuffle as initiated. Returns false if it
// was already marked, in which case the caller must not shuffle again.
func (g *AdvanceGuard) MarkShuffled(roomID model.RoomID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.shuffled[roomID] {
		return false
	}
	g.shuffled[roomID] = true
	return true
}

// MarkRevealed marks the fact's reveal as initiated. Returns false if it
// was already marked.
func (g *AdvanceGuard) MarkRevealed(factID model.FactID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.revealed[factID] {
		return false
	}
	g.revealed[factID] = true
	return true
}

// Forget drops all markers for a room, for when the room is closed
func (g *AdvanceGuard) Forget(roomID model.RoomID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.shuffled, roomID)
}

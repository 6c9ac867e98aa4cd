package phase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/services/scoring"
	"github.com/bashkah/partyroom/internal/services/shuffle"
	"github.com/bashkah/partyroom/internal/store"
)

// transitions is the forward state machine. Every edge not listed is
// rejected; voting and revealing alternate until the last fact, then
// revealing exits to results.
var transitions = map[model.Phase][]model.Phase{
	model.PhaseLobby:     {model.PhaseWriting},
	model.PhaseWriting:   {model.PhaseVoting},
	model.PhaseVoting:    {model.PhaseRevealing},
	model.PhaseRevealing: {model.PhaseVoting, model.PhaseResults},
	model.PhaseResults:   {},
}

// CanTransition reports whether the edge from -> to is legal
func CanTransition(from, to model.Phase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Machine drives phase transitions. Each transition validates the actor
// and the guard, then commits its full write set in one store operation so
// no observer sees a half-applied transition. Re-applying a transition
// whose target phase is already current is a no-op, which makes the host's
// retries and duplicate notifications harmless.
type Machine struct {
	store   store.Store
	shuffle *shuffle.Engine
	scoring *scoring.Engine
	logger  *slog.Logger
}

// NewMachine creates a new phase Machine
func NewMachine(st store.Store, sh *shuffle.Engine, sc *scoring.Engine, logger *slog.Logger) *Machine {
	return &Machine{
		store:   st,
		shuffle: sh,
		scoring: sc,
		logger:  logger,
	}
}

// begin loads the room and runs the checks shared by every transition.
// It returns skip=true when the room already sits in the target phase.
func (m *Machine) begin(ctx context.Context, roomID model.RoomID, actor model.PlayerID, to model.Phase) (room *model.Room, skip bool, err error) {
	room, err = m.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, false, err
	}
	if room.HostID != actor {
		return nil, false, model.ErrNotHost
	}
	if room.Phase == to {
		return room, true, nil
	}
	if !CanTransition(room.Phase, to) {
		return nil, false, fmt.Errorf("%w: %s -> %s", model.ErrPhaseTransition, room.Phase, to)
	}
	return room, false, nil
}

// StartGame moves lobby -> writing: assigns the joker, marks the room
// playing, and opens fact submission. Requires at least two players.
func (m *Machine) StartGame(ctx context.Context, roomID model.RoomID, actor model.PlayerID) error {
	_, skip, err := m.begin(ctx, roomID, actor, model.PhaseWriting)
	if err != nil || skip {
		return err
	}

	players, err := m.store.GetPlayers(ctx, roomID)
	if err != nil {
		return err
	}
	if len(players) < 2 {
		return model.ErrInsufficientPlayers
	}

	joker, err := m.shuffle.PickJoker(players)
	if err != nil {
		return err
	}

	m.logger.Info("starting game",
		slog.String("room_id", string(roomID)),
		slog.String("joker_id", string(joker)),
		slog.Int("players", len(players)))

	return m.store.PatchRoom(ctx, roomID, store.RoomPatch{
		Phase:            store.Ptr(model.PhaseWriting),
		Status:           store.Ptr(model.StatusPlaying),
		JokerID:          store.Ptr(joker),
		CurrentFactIndex: store.Ptr(0),
		Shuffled:         store.Ptr(false),
	})
}

// BeginVoting moves writing -> voting: shuffles the facts into their
// presentation order and flips the phase in one atomic batch. Requires
// every player to have submitted, and runs at most once per game.
func (m *Machine) BeginVoting(ctx context.Context, roomID model.RoomID, actor model.PlayerID) error {
	room, skip, err := m.begin(ctx, roomID, actor, model.PhaseVoting)
	if err != nil || skip {
		return err
	}
	if room.Shuffled {
		return model.ErrAlreadyShuffled
	}

	players, err := m.store.GetPlayers(ctx, roomID)
	if err != nil {
		return err
	}
	for _, p := range players {
		if !p.HasSubmitted {
			return model.ErrFactsIncomplete
		}
	}

	facts, err := m.store.GetFacts(ctx, roomID)
	if err != nil {
		return err
	}
	ops, err := m.shuffle.OrderBatch(facts)
	if err != nil {
		return err
	}
	ops = append(ops, store.RoomOp{Patch: store.RoomPatch{
		Round: store.Ptr(room.Round + 1),
	}})

	m.logger.Info("shuffling facts",
		slog.String("room_id", string(roomID)),
		slog.Int("facts", len(facts)))

	return m.store.ApplyBatch(ctx, roomID, ops)
}

// Reveal moves voting -> revealing: marks the current fact revealed and
// awards a point to every correct voter, atomically. Requires every player
// to have voted.
func (m *Machine) Reveal(ctx context.Context, roomID model.RoomID, actor model.PlayerID) error {
	_, skip, err := m.begin(ctx, roomID, actor, model.PhaseRevealing)
	if err != nil || skip {
		return err
	}

	snap, err := m.store.Snapshot(ctx, roomID)
	if err != nil {
		return err
	}
	for _, p := range snap.Players {
		if !p.HasVoted {
			return model.ErrVotesIncomplete
		}
	}
	fact := snap.CurrentFact()
	if fact == nil {
		return model.ErrFactNotFound
	}

	ops := []store.Op{
		store.FactOp{FactID: fact.ID, Patch: store.FactPatch{Revealed: store.Ptr(true)}},
		store.RoomOp{Patch: store.RoomPatch{Phase: store.Ptr(model.PhaseRevealing)}},
	}
	ops = append(ops, m.scoring.AwardOps(fact, snap.Votes)...)

	m.logger.Info("revealing fact",
		slog.String("room_id", string(roomID)),
		slog.String("fact_id", string(fact.ID)),
		slog.Int("fact_index", fact.OrderIndex))

	return m.store.ApplyBatch(ctx, roomID, ops)
}

// NextFact moves revealing -> voting for the next fact: advances the
// index, clears the round's votes, and resets every HasVoted flag in one
// batch. Fails if the current fact was the last one.
func (m *Machine) NextFact(ctx context.Context, roomID model.RoomID, actor model.PlayerID) error {
	room, skip, err := m.begin(ctx, roomID, actor, model.PhaseVoting)
	if err != nil || skip {
		return err
	}

	facts, err := m.store.GetFacts(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CurrentFactIndex+1 >= len(facts) {
		return fmt.Errorf("%w: no facts left", model.ErrPhaseTransition)
	}
	players, err := m.store.GetPlayers(ctx, roomID)
	if err != nil {
		return err
	}

	ops := []store.Op{
		store.RoomOp{Patch: store.RoomPatch{
			Phase:            store.Ptr(model.PhaseVoting),
			CurrentFactIndex: store.Ptr(room.CurrentFactIndex + 1),
			Round:            store.Ptr(room.Round + 1),
		}},
		store.ClearVotesOp{},
	}
	for _, p := range players {
		ops = append(ops, store.PlayerOp{
			PlayerID: p.ID,
			Patch:    store.PlayerPatch{HasVoted: store.Ptr(false)},
		})
	}

	return m.store.ApplyBatch(ctx, roomID, ops)
}

// Finish moves revealing -> results after the last fact: the room is
// finished, the leaderboard is final, and device-wide stats are credited.
// Stats increments are applied after the phase commit; they are global
// counters outside the room and their failure does not unwind the game.
func (m *Machine) Finish(ctx context.Context, roomID model.RoomID, actor model.PlayerID) error {
	room, skip, err := m.begin(ctx, roomID, actor, model.PhaseResults)
	if err != nil || skip {
		return err
	}

	facts, err := m.store.GetFacts(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CurrentFactIndex+1 < len(facts) {
		return fmt.Errorf("%w: %d facts left", model.ErrPhaseTransition, len(facts)-room.CurrentFactIndex-1)
	}

	players, err := m.store.GetPlayers(ctx, roomID)
	if err != nil {
		return err
	}

	if err := m.store.PatchRoom(ctx, roomID, store.RoomPatch{
		Phase:  store.Ptr(model.PhaseResults),
		Status: store.Ptr(model.StatusFinished),
	}); err != nil {
		return err
	}

	winners := m.scoring.Winners(players)
	for _, inc := range m.scoring.StatsIncrements(players, winners) {
		if err := m.store.IncrementStats(ctx, inc.PlayerID, inc.Games, inc.Wins, inc.Coins); err != nil {
			m.logger.Error("failed to credit player stats",
				slog.String("player_id", string(inc.PlayerID)),
				slog.String("error", err.Error()))
		}
	}

	m.logger.Info("game finished",
		slog.String("room_id", string(roomID)),
		slog.Int("winners", len(winners)))
	return nil
}

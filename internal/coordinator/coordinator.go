package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bashkah/partyroom/internal/dependencies/clock"
	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/services/phase"
	"github.com/bashkah/partyroom/internal/services/room"
	"github.com/bashkah/partyroom/internal/services/submission"
	"github.com/bashkah/partyroom/internal/store"
)

// Config tunes the coordinator's timers and host behaviour
type Config struct {
	// VoteTimeout is how long this client waits before casting a timeout
	// vote on its own behalf
	VoteTimeout time.Duration
	// RevealDelay is how long the host lingers on a revealed fact before
	// advancing
	RevealDelay time.Duration
	// AutoAdvance enables the host duties: shuffling when writing
	// completes, revealing when voting completes, advancing after the
	// reveal delay. Non-hosts ignore it.
	AutoAdvance bool
}

// DefaultConfig returns the default coordinator configuration
func DefaultConfig() Config {
	return Config{
		VoteTimeout: 30 * time.Second,
		RevealDelay: 5 * time.Second,
		AutoAdvance: true,
	}
}

// Coordinator is one client's convergence listener. It consumes room
// snapshots from a single subscription, reduces them into a local view on
// one goroutine, and emits a synthetic event per actual change. The host's
// coordinator additionally drives the phase machine when the roster
// completes a phase.
type Coordinator struct {
	playerID model.PlayerID
	store    store.Store
	rooms    *room.Controller
	machine  *phase.Machine
	agg      *submission.Aggregator
	guard    *submission.AdvanceGuard
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger

	mu          sync.Mutex
	roomID      model.RoomID
	sub         store.Subscription
	view        RoomView
	events      chan model.Event
	done        chan struct{}
	voteTimer   *time.Timer
	revealTimer *time.Timer
	armedVote   model.FactID
	armedReveal model.FactID
}

// New creates a coordinator for one client identity
func New(
	playerID model.PlayerID,
	st store.Store,
	rooms *room.Controller,
	machine *phase.Machine,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		playerID: playerID,
		store:    st,
		rooms:    rooms,
		machine:  machine,
		agg:      submission.NewAggregator(),
		guard:    submission.NewAdvanceGuard(),
		clock:    clk,
		cfg:      cfg,
		logger:   logger.With(slog.String("player_id", string(playerID))),
	}
}

// Attach subscribes to a room and starts reducing its snapshots.
// Attaching to the room we already watch is a no-op; attaching to a
// different room detaches from the old one first.
func (c *Coordinator) Attach(ctx context.Context, roomID model.RoomID) error {
	c.mu.Lock()
	if c.sub != nil && c.roomID == roomID {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.Detach()

	sub, err := c.store.Watch(ctx, roomID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.roomID = roomID
	c.sub = sub
	c.view = RoomView{}
	c.events = make(chan model.Event, 64)
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.run(sub, c.events, c.done)
	return nil
}

// Detach stops listening and disarms all timers. Safe when not attached.
func (c *Coordinator) Detach() {
	c.mu.Lock()
	sub := c.sub
	done := c.done
	c.sub = nil
	c.roomID = ""
	c.stopTimersLocked()
	c.mu.Unlock()

	if sub != nil {
		sub.Close()
		<-done
	}
}

// Events returns the event stream for the current attachment. The channel
// is closed when the coordinator detaches or the room closes.
func (c *Coordinator) Events() <-chan model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

// View returns a copy of the current reduced view
func (c *Coordinator) View() RoomView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Screen returns the screen for the current view
func (c *Coordinator) Screen() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Screen()
}

// run is the single reduction goroutine. Everything that mutates the view
// happens here, in snapshot order.
func (c *Coordinator) run(sub store.Subscription, events chan model.Event, done chan struct{}) {
	defer close(done)
	defer close(events)

	for snap := range sub.Snapshots() {
		if terminal := c.reduce(snap, events); terminal {
			c.mu.Lock()
			if c.sub == sub {
				c.sub = nil
				c.roomID = ""
				c.stopTimersLocked()
			}
			c.mu.Unlock()
			sub.Close()
			return
		}
	}
}

// reduce folds one snapshot into the view and emits events for each actual
// change. Returns true when the room is gone and the attachment is over.
func (c *Coordinator) reduce(snap *model.Snapshot, events chan model.Event) bool {
	if snap.Deleted {
		c.mu.Lock()
		roomID := c.roomID
		c.view.Closed = true
		c.mu.Unlock()

		c.emit(events, model.Event{
			Type:      model.EventRoomClosed,
			Timestamp: c.clock.Now(),
			RoomID:    roomID,
		})
		return true
	}

	if err := snap.Validate(); err != nil {
		// Keep last-known-good state rather than corrupt the view
		c.logger.Warn("discarding invalid snapshot",
			slog.String("error", err.Error()))
		return false
	}

	c.mu.Lock()
	prev := c.view
	c.view = RoomView{
		Room:    snap.Room,
		Players: snap.Players,
		Facts:   snap.Facts,
		Votes:   snap.Votes,
	}
	roomID := c.roomID
	c.mu.Unlock()

	now := c.clock.Now()
	c.diffPlayers(events, roomID, prev.Players, snap.Players, now)

	oldPhase := model.PhaseLobby
	oldIndex := -1
	if prev.Room != nil {
		oldPhase = prev.Room.Phase
		oldIndex = prev.Room.CurrentFactIndex
	}
	if prev.Room == nil || oldPhase != snap.Room.Phase {
		c.emit(events, model.Event{
			Type:      model.EventPhaseChanged,
			Timestamp: now,
			RoomID:    roomID,
			Payload:   model.PhaseChangedPayload{OldPhase: oldPhase, NewPhase: snap.Room.Phase},
		})
		if snap.Room.Phase == model.PhaseResults {
			c.emit(events, model.Event{
				Type:      model.EventGameEnded,
				Timestamp: now,
				RoomID:    roomID,
			})
		}
	}
	if snap.Room.Phase == model.PhaseVoting && oldIndex != snap.Room.CurrentFactIndex && oldIndex >= 0 {
		c.emit(events, model.Event{
			Type:      model.EventFactChanged,
			Timestamp: now,
			RoomID:    roomID,
			Payload: model.FactChangedPayload{
				FactIndex: snap.Room.CurrentFactIndex,
				Fact:      snap.CurrentFact(),
			},
		})
	}

	c.manageTimers(snap)

	if snap.Room.HostID == c.playerID && c.cfg.AutoAdvance {
		c.hostAdvance(snap)
	}
	return false
}

// diffPlayers emits joined/left events for the difference between the
// previous and current rosters. Each actual change produces exactly one
// event no matter how many snapshots carry it.
func (c *Coordinator) diffPlayers(events chan model.Event, roomID model.RoomID, prev, cur []*model.Player, now time.Time) {
	seen := make(map[model.PlayerID]*model.Player, len(prev))
	for _, p := range prev {
		seen[p.ID] = p
	}
	for _, p := range cur {
		if _, ok := seen[p.ID]; !ok {
			c.emit(events, model.Event{
				Type:      model.EventPlayerJoined,
				Timestamp: now,
				RoomID:    roomID,
				PlayerID:  p.ID,
				Payload:   model.PlayerJoinedPayload{Player: *p},
			})
		}
		delete(seen, p.ID)
	}
	for id, p := range seen {
		c.emit(events, model.Event{
			Type:      model.EventPlayerLeft,
			Timestamp: now,
			RoomID:    roomID,
			PlayerID:  id,
			Payload:   model.PlayerLeftPayload{PlayerID: id, Name: p.Name},
		})
	}
}

// manageTimers arms the vote timeout when voting opens on a new fact and
// disarms it on any phase change or after this client has voted.
func (c *Coordinator) manageTimers(snap *model.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if snap.Room.Phase != model.PhaseVoting {
		if c.voteTimer != nil {
			c.voteTimer.Stop()
			c.voteTimer = nil
			c.armedVote = ""
		}
		return
	}

	fact := snap.CurrentFact()
	if fact == nil {
		return
	}
	me := snap.Player(c.playerID)
	if me == nil || me.HasVoted {
		if c.voteTimer != nil {
			c.voteTimer.Stop()
			c.voteTimer = nil
		}
		return
	}
	if c.armedVote == fact.ID {
		return
	}
	if c.voteTimer != nil {
		c.voteTimer.Stop()
	}
	c.armedVote = fact.ID
	factID := fact.ID
	c.voteTimer = time.AfterFunc(c.cfg.VoteTimeout, func() {
		c.castTimeoutVote(factID)
	})
}

// castTimeoutVote records a timeout vote for this client. The store drops
// it silently if a real vote landed first.
func (c *Coordinator) castTimeoutVote(factID model.FactID) {
	c.mu.Lock()
	roomID := c.roomID
	attached := c.sub != nil
	current := c.view.CurrentFact()
	c.mu.Unlock()
	if !attached || current == nil || current.ID != factID {
		return
	}

	ctx := context.Background()
	err := c.store.PutVote(ctx, &model.Vote{
		VoterID: c.playerID,
		RoomID:  roomID,
		FactID:  factID,
		Timeout: true,
	})
	if err != nil {
		c.logger.Warn("timeout vote failed", slog.String("error", err.Error()))
		return
	}
	if err := c.store.PatchPlayer(ctx, roomID, c.playerID, store.PlayerPatch{
		HasVoted: store.Ptr(true),
	}); err != nil {
		c.logger.Warn("timeout vote flag failed", slog.String("error", err.Error()))
	}
}

// hostAdvance performs the host's duties for the snapshot: one shuffle
// when writing completes, one reveal per fact when voting completes, and
// the delayed advance out of revealing. The advance guard and the phase
// machine's idempotence absorb duplicate notifications.
func (c *Coordinator) hostAdvance(snap *model.Snapshot) {
	ctx := context.Background()
	roomID := snap.Room.ID

	switch snap.Room.Phase {
	case model.PhaseWriting:
		if !c.agg.Complete(model.PhaseWriting, snap.Players) || snap.Room.Shuffled {
			return
		}
		if !c.guard.MarkShuffled(roomID) {
			return
		}
		if err := c.machine.BeginVoting(ctx, roomID, c.playerID); err != nil {
			c.logger.Error("shuffle failed", slog.String("error", err.Error()))
		}

	case model.PhaseVoting:
		fact := snap.CurrentFact()
		if fact == nil || !c.agg.Complete(model.PhaseVoting, snap.Players) {
			return
		}
		if !c.guard.MarkRevealed(fact.ID) {
			return
		}
		if err := c.machine.Reveal(ctx, roomID, c.playerID); err != nil {
			c.logger.Error("reveal failed", slog.String("error", err.Error()))
		}

	case model.PhaseRevealing:
		fact := snap.CurrentFact()
		if fact == nil {
			return
		}
		last := snap.Room.CurrentFactIndex+1 >= len(snap.Facts)

		c.mu.Lock()
		if c.armedReveal == fact.ID {
			c.mu.Unlock()
			return
		}
		c.armedReveal = fact.ID
		if c.revealTimer != nil {
			c.revealTimer.Stop()
		}
		c.revealTimer = time.AfterFunc(c.cfg.RevealDelay, func() {
			var err error
			if last {
				err = c.machine.Finish(ctx, roomID, c.playerID)
			} else {
				err = c.machine.NextFact(ctx, roomID, c.playerID)
			}
			if err != nil {
				c.logger.Error("advance failed", slog.String("error", err.Error()))
			}
		})
		c.mu.Unlock()
	}
}

// emit delivers an event without ever blocking the reduction loop. A full
// buffer drops the event and logs; the view itself is always current.
func (c *Coordinator) emit(events chan model.Event, e model.Event) {
	select {
	case events <- e:
	default:
		c.logger.Warn("event buffer full, dropping",
			slog.String("type", string(e.Type)))
	}
}

// stopTimersLocked disarms both timers; callers hold c.mu
func (c *Coordinator) stopTimersLocked() {
	if c.voteTimer != nil {
		c.voteTimer.Stop()
		c.voteTimer = nil
	}
	if c.revealTimer != nil {
		c.revealTimer.Stop()
		c.revealTimer = nil
	}
	c.armedVote = ""
	c.armedReveal = ""
}

package coordinator

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/store"
)

// attachment returns the current room ID and view, or ErrNotInRoom
func (c *Coordinator) attachment() (model.RoomID, RoomView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub == nil {
		return "", RoomView{}, model.ErrNotInRoom
	}
	return c.roomID, c.view, nil
}

// SubmitFacts stores this player's facts and marks them submitted. All
// five must be present and non-blank; submission happens once.
func (c *Coordinator) SubmitFacts(ctx context.Context, texts []string) error {
	roomID, view, err := c.attachment()
	if err != nil {
		return err
	}
	if view.Room == nil || view.Room.Phase != model.PhaseWriting {
		return model.ErrWrongPhase
	}
	me := view.Me(c.playerID)
	if me == nil {
		return model.ErrNotInRoom
	}
	if me.HasSubmitted {
		return model.ErrAlreadySubmitted
	}
	if len(texts) != model.FactsPerPlayer {
		return model.ErrFactsIncomplete
	}
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			return model.ErrFactsIncomplete
		}
	}

	for _, t := range texts {
		fact := &model.Fact{
			ID:         model.FactID(uuid.NewString()),
			RoomID:     roomID,
			AuthorID:   c.playerID,
			AuthorName: me.Name,
			Text:       strings.TrimSpace(t),
			OrderIndex: model.OrderUnassigned,
		}
		if err := c.store.AddFact(ctx, fact); err != nil {
			return err
		}
	}

	return c.store.PatchPlayer(ctx, roomID, c.playerID, store.PlayerPatch{
		HasSubmitted: store.Ptr(true),
	})
}

// CastVote records this player's guess for the current fact's author.
// Correctness is computed against the author at cast time; a second vote
// is rejected both locally and by the store's create-only semantics.
func (c *Coordinator) CastVote(ctx context.Context, chosenID model.PlayerID) error {
	roomID, view, err := c.attachment()
	if err != nil {
		return err
	}
	if view.Room == nil || view.Room.Phase != model.PhaseVoting {
		return model.ErrWrongPhase
	}
	me := view.Me(c.playerID)
	if me == nil {
		return model.ErrNotInRoom
	}
	if me.HasVoted {
		return model.ErrAlreadyVoted
	}
	fact := view.CurrentFact()
	if fact == nil {
		return model.ErrFactNotFound
	}

	err = c.store.PutVote(ctx, &model.Vote{
		VoterID:  c.playerID,
		RoomID:   roomID,
		FactID:   fact.ID,
		ChosenID: chosenID,
		Correct:  chosenID == fact.AuthorID,
	})
	if err != nil {
		return err
	}

	if err := c.store.PatchFact(ctx, roomID, fact.ID, store.FactPatch{
		VotesDelta: 1,
	}); err != nil {
		return err
	}
	return c.store.PatchPlayer(ctx, roomID, c.playerID, store.PlayerPatch{
		HasVoted: store.Ptr(true),
	})
}

// SetReady flags this player as ready in the lobby
func (c *Coordinator) SetReady(ctx context.Context, ready bool) error {
	roomID, _, err := c.attachment()
	if err != nil {
		return err
	}
	return c.rooms.SetReady(ctx, roomID, c.playerID, ready)
}

// StartGame asks the phase machine to open fact writing. Host only.
func (c *Coordinator) StartGame(ctx context.Context) error {
	roomID, _, err := c.attachment()
	if err != nil {
		return err
	}
	return c.machine.StartGame(ctx, roomID, c.playerID)
}

// LeaveRoom removes this player from the room and detaches. A leaving
// host closes the room for everyone.
func (c *Coordinator) LeaveRoom(ctx context.Context) error {
	roomID, _, err := c.attachment()
	if err != nil {
		return err
	}
	if err := c.rooms.LeaveRoom(ctx, roomID, c.playerID); err != nil {
		return err
	}
	c.Detach()
	return nil
}

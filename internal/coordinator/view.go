package coordinator

import "github.com/bashkah/partyroom/internal/model"

// Screen is what the client should be presenting. It is a pure function
// of the room's phase, so a client attaching mid-game lands on the right
// screen from its first snapshot.
type Screen string

const (
	ScreenLobby   Screen = "lobby"
	ScreenWriting Screen = "writing"
	ScreenVoting  Screen = "voting"
	ScreenReveal  Screen = "reveal"
	ScreenResults Screen = "results"
	// ScreenClosed is terminal: the room was deleted out from under us
	ScreenClosed Screen = "closed"
)

// ScreenFor maps a phase to its screen
func ScreenFor(phase model.Phase) Screen {
	switch phase {
	case model.PhaseWriting:
		return ScreenWriting
	case model.PhaseVoting:
		return ScreenVoting
	case model.PhaseRevealing:
		return ScreenReveal
	case model.PhaseResults:
		return ScreenResults
	default:
		return ScreenLobby
	}
}

// RoomView is the client's reduced local state: the last snapshot that
// passed validation, plus the closed marker once the room is gone.
type RoomView struct {
	Room    *model.Room
	Players []*model.Player
	Facts   []*model.Fact
	Votes   []*model.Vote
	Closed  bool
}

// Me returns this view's copy of the given player, or nil
func (v *RoomView) Me(id model.PlayerID) *model.Player {
	for _, p := range v.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// CurrentFact returns the fact at the room's current index, or nil
func (v *RoomView) CurrentFact() *model.Fact {
	if v.Room == nil {
		return nil
	}
	for _, f := range v.Facts {
		if f.OrderIndex == v.Room.CurrentFactIndex {
			return f
		}
	}
	return nil
}

// Screen returns the screen for this view
func (v *RoomView) Screen() Screen {
	if v.Closed {
		return ScreenClosed
	}
	if v.Room == nil {
		return ScreenLobby
	}
	return ScreenFor(v.Room.Phase)
}

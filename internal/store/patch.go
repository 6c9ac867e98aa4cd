package store

import "github.com/bashkah/partyroom/internal/model"

// Ptr returns a pointer to v, for building patches inline
func Ptr[T any](v T) *T {
	return &v
}

// RoomPatch is a merge write against a room document. Nil fields are left
// untouched.
type RoomPatch struct {
	Status           *model.RoomStatus
	Phase            *model.Phase
	CurrentFactIndex *int
	Round            *int
	Shuffled         *bool
	JokerID          *model.PlayerID
}

// Apply merges the patch into the room in place
func (p RoomPatch) Apply(room *model.Room) {
	if p.Status != nil {
		room.Status = *p.Status
	}
	if p.Phase != nil {
		room.Phase = *p.Phase
	}
	if p.CurrentFactIndex != nil {
		room.CurrentFactIndex = *p.CurrentFactIndex
	}
	if p.Round != nil {
		room.Round = *p.Round
	}
	if p.Shuffled != nil {
		room.Shuffled = *p.Shuffled
	}
	if p.JokerID != nil {
		room.JokerID = *p.JokerID
	}
}

// PlayerPatch is a merge write against a player document. ScoreDelta is a
// server-side increment, never an absolute write, so concurrent awards
// cannot clobber each other.
type PlayerPatch struct {
	Name         *string
	IsReady      *bool
	HasSubmitted *bool
	HasVoted     *bool
	ScoreDelta   int
}

// Apply merges the patch into the player in place
func (p PlayerPatch) Apply(player *model.Player) {
	if p.Name != nil {
		player.Name = *p.Name
	}
	if p.IsReady != nil {
		player.IsReady = *p.IsReady
	}
	if p.HasSubmitted != nil {
		player.HasSubmitted = *p.HasSubmitted
	}
	if p.HasVoted != nil {
		player.HasVoted = *p.HasVoted
	}
	player.Score += p.ScoreDelta
}

// FactPatch is a merge write against a fact document. VotesDelta is a
// server-side increment.
type FactPatch struct {
	OrderIndex *int
	Revealed   *bool
	VotesDelta int
}

// Apply merges the patch into the fact in place
func (p FactPatch) Apply(fact *model.Fact) {
	if p.OrderIndex != nil {
		fact.OrderIndex = *p.OrderIndex
	}
	if p.Revealed != nil {
		fact.Revealed = *p.Revealed
	}
	fact.VotesReceived += p.VotesDelta
}

// Op is one write in an atomic batch, scoped to the batch's room
type Op interface {
	isOp()
}

// RoomOp patches the room document
type RoomOp struct {
	Patch RoomPatch
}

// PlayerOp patches one player document
type PlayerOp struct {
	PlayerID model.PlayerID
	Patch    PlayerPatch
}

// FactOp patches one fact document
type FactOp struct {
	FactID model.FactID
	Patch  FactPatch
}

// ClearVotesOp deletes every vote document in the room. Votes are
// round-scoped; the round advance clears them in the same commit that
// flips the phase.
type ClearVotesOp struct{}

func (RoomOp) isOp()       {}
func (PlayerOp) isOp()     {}
func (FactOp) isOp()       {}
func (ClearVotesOp) isOp() {}

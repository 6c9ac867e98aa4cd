package model

// Snapshot is one consistent read of a room and its sub-collections, as
// delivered to subscribers. Deleted marks a room that no longer exists
// (the host left); all other fields are zero in that case.
type Snapshot struct {
	Room    *Room
	Players []*Player
	Facts   []*Fact
	Votes   []*Vote
	Deleted bool
}

// Player returns the player with the given ID, or nil
func (s *Snapshot) Player(id PlayerID) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// FactByOrder returns the fact at the given presentation order, or nil
func (s *Snapshot) FactByOrder(index int) *Fact {
	for _, f := range s.Facts {
		if f.OrderIndex == index {
			return f
		}
	}
	return nil
}

// CurrentFact returns the fact at the room's current index, or nil
func (s *Snapshot) CurrentFact() *Fact {
	if s.Room == nil {
		return nil
	}
	return s.FactByOrder(s.Room.CurrentFactIndex)
}

// Validate checks the snapshot against basic invariants. A snapshot that
// fails validation must be discarded by subscribers, keeping last-known-good
// state, rather than crash or corrupt the local view.
func (s *Snapshot) Validate() error {
	if s.Deleted {
		return nil
	}
	if s.Room == nil {
		return ErrInvalidSnapshot
	}
	if !s.Room.Phase.Known() {
		return ErrInvalidSnapshot
	}
	if s.Room.CurrentFactIndex < 0 {
		return ErrInvalidSnapshot
	}
	for _, p := range s.Players {
		if p == nil || p.Score < 0 {
			return ErrInvalidSnapshot
		}
	}
	for _, f := range s.Facts {
		if f == nil {
			return ErrInvalidSnapshot
		}
		if f.OrderIndex != OrderUnassigned && (f.OrderIndex < 0 || f.OrderIndex >= len(s.Facts)) {
			return ErrInvalidSnapshot
		}
	}
	return nil
}

package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventPlayerJoined EventType = "player_joined"
	EventPlayerLeft   EventType = "player_left"
	EventPhaseChanged EventType = "phase_changed"
	EventFactChanged  EventType = "fact_changed"
	EventGameEnded    EventType = "game_ended"
	// EventRoomClosed is terminal: the host left and the room was deleted
	EventRoomClosed EventType = "room_closed"
)

// Event is a synthetic notification derived by the convergence listener
// from successive snapshots. Each actual change produces exactly one event,
// however many notifications carried it.
type Event struct {
	Type      EventType
	Timestamp time.Time
	RoomID    RoomID
	PlayerID  PlayerID // The player who triggered or is affected
	Payload   any      // Type-specific data
}

// PlayerJoinedPayload contains data for player joined events
type PlayerJoinedPayload struct {
	Player Player
}

// PlayerLeftPayload contains data for player left events
type PlayerLeftPayload struct {
	PlayerID PlayerID
	Name     string
}

// PhaseChangedPayload contains data for phase changed events
type PhaseChangedPayload struct {
	OldPhase Phase
	NewPhase Phase
}

// FactChangedPayload contains data for fact changed events
type FactChangedPayload struct {
	FactIndex int
	Fact      *Fact
}

// GameEndedPayload contains data for game ended events
type GameEndedPayload struct {
	Leaderboard []PlayerScore
}

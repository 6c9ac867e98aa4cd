package model

import "time"

// PlayerID is the stable per-device identity of a player. A player who
// rejoins a room with the same ID is the same player, never a duplicate.
type PlayerID string

// Player is a participant in a room
type Player struct {
	ID           PlayerID  `json:"id" bson:"id"`
	RoomID       RoomID    `json:"roomId" bson:"roomId"`
	Name         string    `json:"name" bson:"name"`
	IsHost       bool      `json:"isHost" bson:"isHost"`
	IsReady      bool      `json:"isReady" bson:"isReady"`
	HasSubmitted bool      `json:"hasSubmitted" bson:"hasSubmitted"`
	HasVoted     bool      `json:"hasVoted" bson:"hasVoted"`
	Score        int       `json:"score" bson:"score"`
	JoinedAt     time.Time `json:"joinedAt" bson:"joinedAt"`
}

// Done reports whether this player has completed the given phase's
// per-player action. Phases without a per-player action are always done.
func (p *Player) Done(phase Phase) bool {
	switch phase {
	case PhaseWriting:
		return p.HasSubmitted
	case PhaseVoting:
		return p.HasVoted
	default:
		return true
	}
}

// PlayerStats is the device-wide record of a player's results across rooms
type PlayerStats struct {
	PlayerID    PlayerID `json:"playerId" bson:"_id"`
	GamesPlayed int      `json:"gamesPlayed" bson:"gamesPlayed"`
	Wins        int      `json:"wins" bson:"wins"`
	Coins       int      `json:"coins" bson:"coins"`
}

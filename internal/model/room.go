package model

import (
	"fmt"
	"strings"
	"time"
)

// RoomID identifies a room; it is derived from the game type and the
// human-entered room code so the same code can be reused across game types.
type RoomID string

// GameType selects which party game a room is playing
type GameType string

const (
	GameFact    GameType = "fact"
	GameTopics  GameType = "topics"
	GameOpinion GameType = "opinion"
)

// RoomStatus is the coarse lifecycle state of a room
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
)

// Phase is the room's position in the game's forward state machine
type Phase string

const (
	PhaseLobby     Phase = "lobby"
	PhaseWriting   Phase = "writing"
	PhaseVoting    Phase = "voting"
	PhaseRevealing Phase = "revealing"
	PhaseResults   Phase = "results"
)

// Known reports whether p is one of the defined phases
func (p Phase) Known() bool {
	switch p {
	case PhaseLobby, PhaseWriting, PhaseVoting, PhaseRevealing, PhaseResults:
		return true
	}
	return false
}

const (
	// RoomCodeLength is the length of human-entered room codes
	RoomCodeLength = 5
	// RoomCodeAlphabet is the characters used in room codes
	RoomCodeAlphabet = "0123456789"
	// MaxPlayers is the maximum number of players per room
	MaxPlayers = 8
	// FactsPerPlayer is how many facts each player must submit
	FactsPerPlayer = 5
)

// NewRoomID derives the room identifier from game type and code
func NewRoomID(gameType GameType, code string) RoomID {
	return RoomID(fmt.Sprintf("%s_%s", gameType, code))
}

// Room is one shared play session
type Room struct {
	ID               RoomID     `json:"id" bson:"_id"`
	Code             string     `json:"code" bson:"code"`
	GameType         GameType   `json:"gameType" bson:"gameType"`
	HostID           PlayerID   `json:"hostId" bson:"hostId"`
	Status           RoomStatus `json:"status" bson:"status"`
	Phase            Phase      `json:"phase" bson:"phase"`
	CurrentFactIndex int        `json:"currentFactIndex" bson:"currentFactIndex"`
	Round            int        `json:"round" bson:"round"`
	Shuffled         bool       `json:"shuffled" bson:"shuffled"`
	JokerID          PlayerID   `json:"jokerId,omitempty" bson:"jokerId,omitempty"`
	MaxPlayers       int        `json:"maxPlayers" bson:"maxPlayers"`
	CreatedAt        time.Time  `json:"createdAt" bson:"createdAt"`
}

// ValidCode reports whether code is a well-formed room code
func ValidCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(RoomCodeAlphabet, r) {
			return false
		}
	}
	return true
}

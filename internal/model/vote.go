package model

import "time"

// Vote is one authored-content guess by one voter for the current fact.
// Votes are keyed by voter ID, so a voter can never hold more than one
// vote per round and can never touch another voter's document.
type Vote struct {
	VoterID  PlayerID  `json:"voterId" bson:"voterId"`
	RoomID   RoomID    `json:"roomId" bson:"roomId"`
	FactID   FactID    `json:"factId" bson:"factId"`
	ChosenID PlayerID  `json:"chosenId" bson:"chosenId"`
	Correct  bool      `json:"correct" bson:"correct"`
	Timeout  bool      `json:"timeout" bson:"timeout"`
	CastAt   time.Time `json:"castAt" bson:"castAt"`
}

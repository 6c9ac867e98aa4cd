package model

import "time"

// FactID identifies one submitted content item
type FactID string

// OrderUnassigned is the order index of a fact before the shuffle commits
const OrderUnassigned = -1

// Fact is one unit of player-authored text subject to shuffle and voting
type Fact struct {
	ID            FactID    `json:"id" bson:"_id"`
	RoomID        RoomID    `json:"roomId" bson:"roomId"`
	AuthorID      PlayerID  `json:"authorId" bson:"authorId"`
	AuthorName    string    `json:"authorName" bson:"authorName"`
	Text          string    `json:"text" bson:"text"`
	OrderIndex    int       `json:"orderIndex" bson:"orderIndex"`
	Revealed      bool      `json:"revealed" bson:"revealed"`
	VotesReceived int       `json:"votesReceived" bson:"votesReceived"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

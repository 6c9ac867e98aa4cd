package response

import (
	"time"

	"github.com/bashkah/partyroom/internal/model"
)

// Player represents a player in API responses
type Player struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	IsHost       bool   `json:"is_host"`
	IsReady      bool   `json:"is_ready"`
	HasSubmitted bool   `json:"has_submitted"`
	HasVoted     bool   `json:"has_voted"`
	Score        int    `json:"score"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:           string(p.ID),
		Name:         p.Name,
		IsHost:       p.IsHost,
		IsReady:      p.IsReady,
		HasSubmitted: p.HasSubmitted,
		HasVoted:     p.HasVoted,
		Score:        p.Score,
	}
}

// Room represents a room in API responses
type Room struct {
	ID               string    `json:"id"`
	Code             string    `json:"code"`
	GameType         string    `json:"game_type"`
	HostID           string    `json:"host_id"`
	Status           string    `json:"status"`
	Phase            string    `json:"phase"`
	CurrentFactIndex int       `json:"current_fact_index"`
	Round            int       `json:"round"`
	MaxPlayers       int       `json:"max_players"`
	CreatedAt        time.Time `json:"created_at"`
}

// RoomFromModel converts model.Room. The joker is deliberately absent:
// clients must never learn who it is.
func RoomFromModel(r *model.Room) Room {
	return Room{
		ID:               string(r.ID),
		Code:             r.Code,
		GameType:         string(r.GameType),
		HostID:           string(r.HostID),
		Status:           string(r.Status),
		Phase:            string(r.Phase),
		CurrentFactIndex: r.CurrentFactIndex,
		Round:            r.Round,
		MaxPlayers:       r.MaxPlayers,
		CreatedAt:        r.CreatedAt,
	}
}

// Fact represents a fact in API responses
type Fact struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	OrderIndex    int    `json:"order_index"`
	Revealed      bool   `json:"revealed"`
	VotesReceived int    `json:"votes_received"`
	// AuthorID and AuthorName are empty until the fact is revealed
	AuthorID   string `json:"author_id,omitempty"`
	AuthorName string `json:"author_name,omitempty"`
}

// FactFromModel converts model.Fact, hiding the author until the reveal
func FactFromModel(f *model.Fact) Fact {
	out := Fact{
		ID:            string(f.ID),
		Text:          f.Text,
		OrderIndex:    f.OrderIndex,
		Revealed:      f.Revealed,
		VotesReceived: f.VotesReceived,
	}
	if f.Revealed {
		out.AuthorID = string(f.AuthorID)
		out.AuthorName = f.AuthorName
	}
	return out
}

// Snapshot is the full observable room state for one point in time
type Snapshot struct {
	Room    Room     `json:"room"`
	Players []Player `json:"players"`
	Facts   []Fact   `json:"facts"`
	// Voted lists the IDs of players whose vote for the current fact has
	// landed. Choices stay hidden until the reveal.
	Voted []string `json:"voted"`
}

// SnapshotFromModel converts a model.Snapshot
func SnapshotFromModel(s *model.Snapshot) Snapshot {
	players := make([]Player, len(s.Players))
	for i, p := range s.Players {
		players[i] = PlayerFromModel(p)
	}
	facts := make([]Fact, len(s.Facts))
	for i, f := range s.Facts {
		facts[i] = FactFromModel(f)
	}
	voted := make([]string, len(s.Votes))
	for i, v := range s.Votes {
		voted[i] = string(v.VoterID)
	}
	return Snapshot{
		Room:    RoomFromModel(s.Room),
		Players: players,
		Facts:   facts,
		Voted:   voted,
	}
}

// LeaderboardEntry is one row of the final standings
type LeaderboardEntry struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// LeaderboardFromModel converts the scoring engine's board
func LeaderboardFromModel(board []model.PlayerScore) []LeaderboardEntry {
	out := make([]LeaderboardEntry, len(board))
	for i, row := range board {
		out[i] = LeaderboardEntry{
			PlayerID: string(row.PlayerID),
			Name:     row.Name,
			Score:    row.Score,
			Rank:     row.Rank,
		}
	}
	return out
}

// RoomList is the response for listing open rooms
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// RoomListFromModel converts a slice of rooms
func RoomListFromModel(rooms []*model.Room) RoomList {
	out := make([]Room, len(rooms))
	for i, r := range rooms {
		out[i] = RoomFromModel(r)
	}
	return RoomList{Rooms: out}
}

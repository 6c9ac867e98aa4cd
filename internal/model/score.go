package model

// PlayerScore is one row of the final leaderboard
type PlayerScore struct {
	PlayerID PlayerID `json:"playerId"`
	Name     string   `json:"name"`
	Score    int      `json:"score"`
	// Rank is 1-based; players with equal scores share a rank
	Rank int `json:"rank"`
}

package redis

import (
	"encoding/json"
	"strconv"

	"github.com/bashkah/partyroom/internal/model"
)

func decodePlayers(raw map[string]string) ([]*model.Player, error) {
	players := make([]*model.Player, 0, len(raw))
	for _, data := range raw {
		var player model.Player
		if err := json.Unmarshal([]byte(data), &player); err != nil {
			return nil, err
		}
		players = append(players, &player)
	}
	return players, nil
}

func decodeFacts(raw map[string]string) ([]*model.Fact, error) {
	facts := make([]*model.Fact, 0, len(raw))
	for _, data := range raw {
		var fact model.Fact
		if err := json.Unmarshal([]byte(data), &fact); err != nil {
			return nil, err
		}
		facts = append(facts, &fact)
	}
	return facts, nil
}

func decodeVotes(raw map[string]string) ([]*model.Vote, error) {
	votes := make([]*model.Vote, 0, len(raw))
	for _, data := range raw {
		var vote model.Vote
		if err := json.Unmarshal([]byte(data), &vote); err != nil {
			return nil, err
		}
		votes = append(votes, &vote)
	}
	return votes, nil
}

func decodeStats(id model.PlayerID, raw map[string]string) *model.PlayerStats {
	field := func(name string) int {
		n, _ := strconv.Atoi(raw[name])
		return n
	}
	return &model.PlayerStats{
		PlayerID:    id,
		GamesPlayed: field("gamesPlayed"),
		Wins:        field("wins"),
		Coins:       field("coins"),
	}
}

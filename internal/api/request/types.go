package request

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	GameType string `json:"game_type"`
	Name     string `json:"name"`
}

// JoinRoomRequest is the request body for joining a room by code
type JoinRoomRequest struct {
	GameType string `json:"game_type"`
	Code     string `json:"code"`
	Name     string `json:"name"`
}

// SetReadyRequest is the request body for toggling the ready flag
type SetReadyRequest struct {
	Ready bool `json:"ready"`
}

// SubmitFactsRequest is the request body for submitting a player's facts
type SubmitFactsRequest struct {
	Facts []string `json:"facts"`
}

// CastVoteRequest is the request body for voting on the current fact
type CastVoteRequest struct {
	ChosenID string `json:"chosen_id"`
}

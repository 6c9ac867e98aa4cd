package model

import "errors"

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
	ErrRoomFull     = errors.New("room is full")
	ErrRoomClosed   = errors.New("room has ended")
	ErrInvalidCode  = errors.New("invalid room code")

	// Authority / guard errors. These reject an action locally without
	// mutating shared state and are always safe to surface and retry.
	ErrNotHost             = errors.New("player is not the host")
	ErrInsufficientPlayers = errors.New("insufficient players to start game")
	ErrNoPlayers           = errors.New("no players in room")
	ErrPhaseTransition     = errors.New("phase transition not allowed")
	ErrWrongPhase          = errors.New("action not allowed in current phase")
	ErrAlreadyShuffled     = errors.New("facts already shuffled")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrNotInRoom      = errors.New("player is not in room")

	// Submission / vote errors
	ErrFactsIncomplete  = errors.New("all facts must be written")
	ErrAlreadySubmitted = errors.New("facts already submitted")
	ErrVotesIncomplete  = errors.New("not all players have voted")
	ErrAlreadyVoted     = errors.New("player has already voted")
	ErrVoteExists       = errors.New("vote already recorded for this voter")
	ErrFactNotFound     = errors.New("fact not found")

	// Snapshot errors
	ErrInvalidSnapshot = errors.New("snapshot violates invariants")
)

package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bashkah/partyroom/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeNotHost             = "NOT_HOST"
	CodeRoomNotFound        = "ROOM_NOT_FOUND"
	CodeRoomFull            = "ROOM_FULL"
	CodeRoomClosed          = "ROOM_CLOSED"
	CodeInvalidCode         = "INVALID_CODE"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodeNotInRoom           = "NOT_IN_ROOM"
	CodeWrongPhase          = "WRONG_PHASE"
	CodePhaseTransition     = "PHASE_TRANSITION"
	CodeInsufficientPlayers = "INSUFFICIENT_PLAYERS"
	CodeFactsIncomplete     = "FACTS_INCOMPLETE"
	CodeAlreadySubmitted    = "ALREADY_SUBMITTED"
	CodeVotesIncomplete     = "VOTES_INCOMPLETE"
	CodeAlreadyVoted        = "ALREADY_VOTED"
	CodeAlreadyShuffled     = "ALREADY_SHUFFLED"
	CodeFactNotFound        = "FACT_NOT_FOUND"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrRoomFull):
		return &httpError{http.StatusConflict, APIError{CodeRoomFull, "Room is full"}}
	case errors.Is(err, model.ErrRoomClosed):
		return &httpError{http.StatusConflict, APIError{CodeRoomClosed, "Room is no longer accepting players"}}
	case errors.Is(err, model.ErrInvalidCode):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidCode, "Room code must be five digits"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrNotInRoom):
		return &httpError{http.StatusNotFound, APIError{CodeNotInRoom, "Not in this room"}}
	case errors.Is(err, model.ErrNotHost):
		return &httpError{http.StatusForbidden, APIError{CodeNotHost, "Only the host can perform this action"}}
	case errors.Is(err, model.ErrInsufficientPlayers):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientPlayers, "Not enough players to start"}}
	case errors.Is(err, model.ErrWrongPhase):
		return &httpError{http.StatusConflict, APIError{CodeWrongPhase, "Action not allowed in the current phase"}}
	case errors.Is(err, model.ErrPhaseTransition):
		return &httpError{http.StatusConflict, APIError{CodePhaseTransition, "Phase transition not allowed"}}
	case errors.Is(err, model.ErrAlreadyShuffled):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyShuffled, "Facts are already shuffled"}}
	case errors.Is(err, model.ErrFactsIncomplete):
		return &httpError{http.StatusConflict, APIError{CodeFactsIncomplete, "All facts must be written first"}}
	case errors.Is(err, model.ErrAlreadySubmitted):
		return &httpError{http.StatusConflict, APIError{CodeAlreadySubmitted, "Facts already submitted"}}
	case errors.Is(err, model.ErrVotesIncomplete):
		return &httpError{http.StatusConflict, APIError{CodeVotesIncomplete, "Not everyone has voted yet"}}
	case errors.Is(err, model.ErrAlreadyVoted), errors.Is(err, model.ErrVoteExists):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyVoted, "Already voted on this fact"}}
	case errors.Is(err, model.ErrFactNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeFactNotFound, "Fact not found"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "A player identity is required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

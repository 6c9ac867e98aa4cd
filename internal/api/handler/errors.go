package handler

import (
	"net/http"

	"github.com/bashkah/partyroom/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest      = apierr.CodeInvalidRequest
	CodeUnauthorized        = apierr.CodeUnauthorized
	CodeNotHost             = apierr.CodeNotHost
	CodeRoomNotFound        = apierr.CodeRoomNotFound
	CodeRoomFull            = apierr.CodeRoomFull
	CodeRoomClosed          = apierr.CodeRoomClosed
	CodeInvalidCode         = apierr.CodeInvalidCode
	CodePlayerNotFound      = apierr.CodePlayerNotFound
	CodeNotInRoom           = apierr.CodeNotInRoom
	CodeWrongPhase          = apierr.CodeWrongPhase
	CodePhaseTransition     = apierr.CodePhaseTransition
	CodeInsufficientPlayers = apierr.CodeInsufficientPlayers
	CodeFactsIncomplete     = apierr.CodeFactsIncomplete
	CodeAlreadySubmitted    = apierr.CodeAlreadySubmitted
	CodeVotesIncomplete     = apierr.CodeVotesIncomplete
	CodeAlreadyVoted        = apierr.CodeAlreadyVoted
	CodeAlreadyShuffled     = apierr.CodeAlreadyShuffled
	CodeFactNotFound        = apierr.CodeFactNotFound
	CodeInternalError       = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return apierr.NewUnauthorizedError()
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return apierr.NewInternalError()
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/bashkah/partyroom/internal/api/apierr"
	"github.com/bashkah/partyroom/internal/model"
)

type contextKey string

const playerContextKey contextKey = "player_id"

// PlayerIDHeader carries the client-minted player identity. There are no
// accounts: clients mint a UUID once and present it on every request.
const PlayerIDHeader = "X-Player-ID"

// Identity requires a player ID on the request and adds it to the context
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := extractPlayerID(r)
			if id == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			ctx := context.WithValue(r.Context(), playerContextKey, model.PlayerID(id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractPlayerID reads the identity from the header, with a bearer-token
// fallback for clients that can only set Authorization
func extractPlayerID(r *http.Request) string {
	if id := r.Header.Get(PlayerIDHeader); id != "" {
		return id
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// GetPlayerID returns the player ID from the request context
func GetPlayerID(ctx context.Context) model.PlayerID {
	id, _ := ctx.Value(playerContextKey).(model.PlayerID)
	return id
}

// MustGetPlayerID returns the player ID or panics
func MustGetPlayerID(ctx context.Context) model.PlayerID {
	id := GetPlayerID(ctx)
	if id == "" {
		panic("no player id in context - identity middleware not applied?")
	}
	return id
}

package redis

import (
	"fmt"

	"github.com/bashkah/partyroom/internal/model"
)

// Key prefix for all room-related data
const keyPrefix = "partyroom"

// roomKey returns the Redis key for a room document
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// playersKey returns the Redis key for a room's players hash (field = player ID)
func playersKey(id model.RoomID) string {
	return fmt.Sprintf("%s:players:%s", keyPrefix, id)
}

// factsKey returns the Redis key for a room's facts hash (field = fact ID)
func factsKey(id model.RoomID) string {
	return fmt.Sprintf("%s:facts:%s", keyPrefix, id)
}

// votesKey returns the Redis key for a room's votes hash (field = voter ID)
func votesKey(id model.RoomID) string {
	return fmt.Sprintf("%s:votes:%s", keyPrefix, id)
}

// statsKey returns the Redis key for a player's device-wide stats counters
func statsKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:stats:%s", keyPrefix, id)
}

// openRoomsKey returns the Redis key for the SET of open rooms per game type
func openRoomsKey(gameType model.GameType) string {
	return fmt.Sprintf("%s:idx:open:%s", keyPrefix, gameType)
}

// eventsChannel returns the pub/sub channel carrying change signals for a room
func eventsChannel(id model.RoomID) string {
	return fmt.Sprintf("%s:events:%s", keyPrefix, id)
}

// Pub/sub payloads
const (
	signalChanged = "changed"
	signalDeleted = "deleted"
)

package mongo

import "time"

// Config holds MongoDB connection and behavior settings
type Config struct {
	// URI is the MongoDB connection URI (e.g., mongodb://localhost:27017)
	URI string

	// Database is the database name holding all room collections
	Database string

	// PollInterval is how often watchers re-read room state. Change
	// streams need a replica set; polling works against any deployment
	// and subscribers are idempotent, so duplicates are harmless.
	PollInterval time.Duration
}

// DefaultConfig returns sensible defaults for MongoDB configuration
func DefaultConfig() Config {
	return Config{
		URI:          "mongodb://localhost:27017",
		Database:     "partyroom",
		PollInterval: 500 * time.Millisecond,
	}
}

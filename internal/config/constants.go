package config

// Default paths for local state
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./bouquineur.db"

	// DefaultImageDir is the default directory for stored cover images
	DefaultImageDir = "./covers"
)

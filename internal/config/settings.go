package config

import (
	"os"
	"strconv"
	"time"
)

// Settings holds process configuration loaded from environment variables.
type Settings struct {
	Port       string        // GATEWAY_PORT, default "8080"
	DBPath     string        // GATEWAY_DB, default "hla-gateway.db"
	Federation string        // GATEWAY_FEDERATION, empty runs without joining
	Federate   string        // GATEWAY_FEDERATE, default "hla-gateway"
	SiteID     uint16        // GATEWAY_SITE_ID, default 1
	AppID      uint16        // GATEWAY_APP_ID, default 1
	Tick       time.Duration // GATEWAY_TICK, default 50ms
}

// Load reads configuration from environment variables with sensible defaults.
// Malformed numbers and durations fall back to the default.
func Load() Settings {
	return Settings{
		Port:       envOr("GATEWAY_PORT", "8080"),
		DBPath:     envOr("GATEWAY_DB", "hla-gateway.db"),
		Federation: os.Getenv("GATEWAY_FEDERATION"),
		Federate:   envOr("GATEWAY_FEDERATE", "hla-gateway"),
		SiteID:     envUint16("GATEWAY_SITE_ID", 1),
		AppID:      envUint16("GATEWAY_APP_ID", 1),
		Tick:       envDuration("GATEWAY_TICK", 50*time.Millisecond),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUint16(key string, fallback uint16) uint16 {
	n, err := strconv.ParseUint(os.Getenv(key), 10, 16)
	if err != nil {
		return fallback
	}
	return uint16(n)
}

func envDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

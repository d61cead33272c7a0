// Package config loads application configuration from environment
// variables.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the runtime configuration.  Strings for identifiers,
// paths and secrets; ints for durations and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBPath         string // path of the on-device SQLite store
	PublicDir      string // directory holding the app shell and /data seeds
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	SpotsDataURL   string // bulk seed endpoint for parking spots
	CitiesDataURL  string // bulk seed endpoint for cities
	ProbeURL       string // endpoint polled by the connectivity probe
}

// Load reads configuration from the environment.  Missing required
// variables are fatal; everything offline-related has a default so the
// service starts on a disconnected device.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBPath:         getenv("DB_PATH", "data/parkease.db"),
		PublicDir:      getenv("PUBLIC_DIR", "public"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 30),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 30),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		SpotsDataURL:   getenv("SPOTS_DATA_URL", "https://static.parkease.app/data/parking-spots.json"),
		CitiesDataURL:  getenv("CITIES_DATA_URL", "https://static.parkease.app/data/cities.json"),
		ProbeURL:       getenv("CONNECTIVITY_PROBE_URL", "https://a.tile.openstreetmap.org/0/0/0.png"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

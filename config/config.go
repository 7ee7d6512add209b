package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// PatheCinema is one known Pathé location queried during the showtime fan-out.
type PatheCinema struct {
	ID   string
	Name string
	City string
}

// Config holds all runtime settings. Everything is read from the environment
// once at startup and passed down explicitly; nothing in the services reads
// env vars themselves.
type Config struct {
	BindAddr string

	// Logging
	LogFile      string // empty disables file logging
	LogMaxSizeMB int
	LogLevel     string

	// Cache backing store
	StorePath string

	// TTLs
	ShowtimeTTL time.Duration
	MetadataTTL time.Duration

	// Upstreams
	TMDBAPIKey        string // empty disables enrichment entirely
	LetterboxdBaseURL string
	KinepolisEndpoint string
	PatheBaseURL      string
	PatheZone         string
	PatheCinemas      []PatheCinema
	PatheDays         int

	// Fan-out bounds
	FanoutWorkers int
	EnrichWorkers int

	// Extra CORS origins beyond the local-network defaults
	AllowedOrigins []string
}

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() Config {
	return Config{
		BindAddr:          getEnv("MARQUEE_ADDR", ":8620"),
		LogFile:           getEnv("MARQUEE_LOG_FILE", ""),
		LogMaxSizeMB:      getEnvInt("MARQUEE_LOG_MAX_SIZE_MB", 20),
		LogLevel:          getEnv("MARQUEE_LOG_LEVEL", "info"),
		StorePath:         getEnv("MARQUEE_STORE_PATH", "marquee.db"),
		ShowtimeTTL:       getEnvDuration("MARQUEE_SHOWTIME_TTL", 4*time.Hour),
		MetadataTTL:       getEnvDuration("MARQUEE_METADATA_TTL", 28*24*time.Hour),
		TMDBAPIKey:        getEnv("MARQUEE_TMDB_API_KEY", ""),
		LetterboxdBaseURL: getEnv("MARQUEE_LETTERBOXD_URL", "https://letterboxd-list-radarr.onrender.com"),
		KinepolisEndpoint: getEnv("MARQUEE_KINEPOLIS_ENDPOINT", "https://graph.kinepolis.com/graphql"),
		PatheBaseURL:      getEnv("MARQUEE_PATHE_URL", "https://connect.pathe.nl/v1"),
		PatheZone:         getEnv("MARQUEE_PATHE_ZONE", "amsterdam"),
		PatheCinemas:      defaultPatheCinemas(),
		PatheDays:         getEnvInt("MARQUEE_PATHE_DAYS", 10),
		FanoutWorkers:     getEnvInt("MARQUEE_FANOUT_WORKERS", 8),
		EnrichWorkers:     getEnvInt("MARQUEE_ENRICH_WORKERS", 4),
		AllowedOrigins:    getEnvList("MARQUEE_ALLOWED_ORIGINS"),
	}
}

func defaultPatheCinemas() []PatheCinema {
	return []PatheCinema{
		{ID: "PATHE-TUSCHINSKI", Name: "Pathé Tuschinski", City: "Amsterdam"},
		{ID: "PATHE-CITY", Name: "Pathé City", City: "Amsterdam"},
		{ID: "PATHE-DE-MUNT", Name: "Pathé De Munt", City: "Amsterdam"},
		{ID: "PATHE-NOORD", Name: "Pathé Noord", City: "Amsterdam"},
		{ID: "PATHE-ARENA", Name: "Pathé Arena", City: "Amsterdam"},
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
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

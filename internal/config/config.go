package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type AppConfig struct {
	Port string
	Env  string

	// Local data locations.
	DBPath   string
	SpoolDir string

	// National Weather Service client.
	NWSBaseURL   string
	NWSUserAgent string
	HTTPTimeout  time.Duration

	// Fixed retry policy for the two-stage exchange.
	RetryAttempts int
	RetryDelay    time.Duration

	// Read-through cache in front of the SQLite store.
	CacheTTL time.Duration

	// RefreshInterval > 0 schedules a periodic download+compact of the
	// current year; 0 disables it.
	RefreshInterval time.Duration

	// ISD-Lite archive download.
	ISDBaseURL         string
	DownloadBatchSize  int
	DownloadBatchDelay time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.Env = getenvDefault("ENV", "development")

	cfg.DBPath = getenvDefault("DB_PATH", "data/isd.db")
	cfg.SpoolDir = getenvDefault("SPOOL_DIR", "data/isd_lite")

	cfg.NWSBaseURL = getenvDefault("NWS_BASE_URL", "https://api.weather.gov")
	cfg.NWSUserAgent = getenvDefault("NWS_USER_AGENT",
		"isd-weather-api/1.0 (+https://github.com/lwalden/isd-weather-api)")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.RetryAttempts = getenvInt("RETRY_ATTEMPTS", 3)
	if cfg.RetryDelay, err = getenvDuration("RETRY_DELAY", 4*time.Second); err != nil {
		return nil, err
	}

	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", 0); err != nil {
		return nil, err
	}

	cfg.ISDBaseURL = getenvDefault("ISD_BASE_URL", "https://www.ncei.noaa.gov/pub/data/noaa/isd-lite")
	cfg.DownloadBatchSize = getenvInt("DOWNLOAD_BATCH_SIZE", 12)
	if cfg.DownloadBatchDelay, err = getenvDuration("DOWNLOAD_BATCH_DELAY", 15*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

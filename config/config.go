package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/qs-lzh/campus-cinema/internal/util"
)

type Config struct {
	DatabaseDSN string
	Addr        string
	CacheURL    string
	MQURL       string

	LogLevel string
	GinMode  string

	AdminAPIKey string
	StaffAPIKey string

	// prefix of every redemption token, e.g. "CINE" -> "CINE-<uuid>"
	TokenPrefix string
	Location    *time.Location

	RequestTimeout     time.Duration
	CatalogCacheTTL    time.Duration
	StatsCacheTTL      time.Duration
	RateLimitPerMinute int
}

// tokens are PREFIX-<uuid> and must fit the 64 character token column
var tokenPrefixPattern = regexp.MustCompile(`^[A-Z0-9]{1,16}$`)

func LoadConfig() (*Config, error) {
	if err := util.LoadEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseDSN: os.Getenv("DATABASE_DSN"),
		Addr:        util.GetEnv("ADDR", ":4000"),
		CacheURL:    util.GetEnv("CACHE_URL", "127.0.0.1:6379"),
		MQURL:       os.Getenv("RABBIT_MQ_URL"),
		LogLevel:    util.GetEnv("LOG_LEVEL", "info"),
		GinMode:     util.GetEnv("GIN_MODE", "release"),
		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),
		StaffAPIKey: os.Getenv("STAFF_API_KEY"),
		TokenPrefix: util.GetEnv("TOKEN_PREFIX", "CINE"),
	}

	if cfg.DatabaseDSN == "" {
		return nil, errors.New("DATABASE_DSN is required")
	}
	if cfg.MQURL == "" {
		return nil, errors.New("RABBIT_MQ_URL is required")
	}
	if !tokenPrefixPattern.MatchString(cfg.TokenPrefix) {
		return nil, fmt.Errorf("invalid TOKEN_PREFIX %q: want 1 to 16 characters of A-Z and 0-9", cfg.TokenPrefix)
	}

	loc, err := time.LoadLocation(util.GetEnv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.RequestTimeout, err = parseDuration("REQUEST_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.CatalogCacheTTL, err = parseDuration("CATALOG_CACHE_TTL", "5m"); err != nil {
		return nil, err
	}
	if cfg.StatsCacheTTL, err = parseDuration("STATS_CACHE_TTL", "30s"); err != nil {
		return nil, err
	}

	limit, err := strconv.Atoi(util.GetEnv("RATE_LIMIT_PER_MINUTE", "60"))
	if err != nil || limit <= 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %q", os.Getenv("RATE_LIMIT_PER_MINUTE"))
	}
	cfg.RateLimitPerMinute = limit

	return cfg, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(util.GetEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

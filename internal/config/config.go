package config // package config loads client configuration from the environment

import (
	"errors"        // errors reports validation failures
	"fmt"           // fmt wraps parse errors with context
	"io/fs"         // fs.ErrNotExist detects a missing .env file
	"net/url"       // url validates the backend base URL
	"os"            // os resolves the user's home directory
	"path/filepath" // filepath builds the default token file path
	"strings"       // strings trims the base URL
	"time"          // time types the poll and debounce durations

	"github.com/caarlos0/env/v11" // env binds environment variables onto the Config struct
	"github.com/joho/godotenv"    // godotenv loads an optional .env file
)

// Token storage kinds accepted by HELLENIKA_TOKEN_STORE.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; envDefault supplies the value used when the
// variable is unset.
type Config struct {
	APIURL         string        `env:"HELLENIKA_API_URL" envDefault:"http://localhost:8000/api/v1"` // backend base URL
	TokenStore     string        `env:"HELLENIKA_TOKEN_STORE" envDefault:"file"`                     // file | redis | memory
	TokenFile      string        `env:"HELLENIKA_TOKEN_FILE"`                                        // token file path (default ~/.hellenika/token)
	TokenKey       string        `env:"HELLENIKA_TOKEN_KEY" envDefault:"token"`                      // fixed storage key
	HTTPTimeout    time.Duration `env:"HELLENIKA_HTTP_TIMEOUT" envDefault:"15s"`                     // transport timeout
	PendingPoll    time.Duration `env:"HELLENIKA_PENDING_POLL" envDefault:"30s"`                     // admin pending count poll interval
	SearchDebounce time.Duration `env:"HELLENIKA_SEARCH_DEBOUNCE" envDefault:"300ms"`                // word list quiet period
	FlipDelay      time.Duration `env:"HELLENIKA_FLIP_DELAY" envDefault:"300ms"`                     // flashcard flip-back transition
	PageSize       int           `env:"HELLENIKA_PAGE_SIZE" envDefault:"10"`                         // initial list page size
	LogLevel       string        `env:"HELLENIKA_LOG_LEVEL" envDefault:"info"`                       // debug | info | warn | error | off
	Redis          RedisConfig   // redis settings, used only when TokenStore is redis
}

// Load reads an optional .env file from the working directory, then binds
// the environment onto a Config and validates it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv binds the current environment without touching .env files.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if cfg.TokenFile == "" {
		cfg.TokenFile = defaultTokenFile()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the client cannot run with.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid HELLENIKA_API_URL %q: must be an absolute http(s) URL", c.APIURL)
	}
	switch c.TokenStore {
	case StoreFile, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("invalid HELLENIKA_TOKEN_STORE %q: want file, redis or memory", c.TokenStore)
	}
	if c.PendingPoll <= 0 {
		return errors.New("HELLENIKA_PENDING_POLL must be positive")
	}
	if c.SearchDebounce <= 0 {
		return errors.New("HELLENIKA_SEARCH_DEBOUNCE must be positive")
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("HELLENIKA_PAGE_SIZE must be between 1 and 100, got %d", c.PageSize)
	}
	return nil
}

// defaultTokenFile places the token under the user's home directory, like
// other per-user client state.
func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".hellenika", "token")
	}
	return filepath.Join(home, ".hellenika", "token")
}

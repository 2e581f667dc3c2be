package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrEmptyToken    = errors.New("error getting RF_TELEGRAM_TOKEN: variable not specified or contains an empty string")
	ErrInvalidDelay  = errors.New("assistant delays must be positive and min must not exceed max")
	ErrUnknownSource = errors.New("unknown catalog source")
)

// Catalog source kinds.
const (
	SourceFixture = "fixture"
	SourceSQLite  = "sqlite"
	SourceHTML    = "html"
)

type Config struct {
	Env         string // Env is the current environment: local, dev, prod.
	StoragePath string
	User        User
	Catalog     Catalog
	Assistant   Assistant
	Tg          Telegram
}

// User is the identity the feed is recommended for.
type User struct {
	ID   string
	// Name signs comments of Telegram senders that show no name.
	Name string
}

type Catalog struct {
	Source  string        // Source is one of fixture, sqlite, html.
	URL     string        // URL is a page with the product table for the html source.
	Timeout time.Duration // Timeout bounds the initial feed load.
	Latency time.Duration // Latency is the simulated delay of the fixture source.
}

type Assistant struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

type Telegram struct {
	Token     string        // Token is an unique telgram bot token.
	Timeout   time.Duration // Timeout is a poller timeout duration.
	RateLimit float64       // RateLimit is the number of updates per second allowed for one chat.
	RateBurst int
}

// Load reads the configuration from environment variables and validates it.
func Load() (*Config, error) {
	// Automatically binds environment variables to config keys
	viper.SetEnvPrefix("RF")
	viper.AutomaticEnv()

	// optional args
	viper.SetDefault("ENV", "production")
	viper.SetDefault("USER_ID", "user_123")
	viper.SetDefault("USER_NAME", "You")
	viper.SetDefault("STORAGE_PATH", "recom.db")
	viper.SetDefault("CATALOG_SOURCE", SourceFixture)
	viper.SetDefault("CATALOG_TIMEOUT", "3s")
	viper.SetDefault("CATALOG_LATENCY", "700ms")
	viper.SetDefault("ASSISTANT_MIN_DELAY", "900ms")
	viper.SetDefault("ASSISTANT_MAX_DELAY", "1600ms")
	viper.SetDefault("TELEGRAM_TIMEOUT", "15s")
	viper.SetDefault("RATE_LIMIT", 1.0)
	viper.SetDefault("RATE_BURST", 5) //nolint:mnd // default burst

	cfg := &Config{
		Env:         viper.GetString("ENV"),
		StoragePath: viper.GetString("STORAGE_PATH"),
		User: User{
			ID:   viper.GetString("USER_ID"),
			Name: viper.GetString("USER_NAME"),
		},
		Catalog: Catalog{
			Source:  viper.GetString("CATALOG_SOURCE"),
			URL:     viper.GetString("CATALOG_URL"),
			Timeout: viper.GetDuration("CATALOG_TIMEOUT"),
			Latency: viper.GetDuration("CATALOG_LATENCY"),
		},
		Assistant: Assistant{
			MinDelay: viper.GetDuration("ASSISTANT_MIN_DELAY"),
			MaxDelay: viper.GetDuration("ASSISTANT_MAX_DELAY"),
		},
		Tg: Telegram{
			Token:     viper.GetString("TELEGRAM_TOKEN"),
			Timeout:   viper.GetDuration("TELEGRAM_TIMEOUT"),
			RateLimit: viper.GetFloat64("RATE_LIMIT"),
			RateBurst: viper.GetInt("RATE_BURST"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Assistant.MinDelay <= 0 || c.Assistant.MaxDelay <= 0 || c.Assistant.MinDelay > c.Assistant.MaxDelay {
		return fmt.Errorf("%w: min=%s max=%s", ErrInvalidDelay, c.Assistant.MinDelay, c.Assistant.MaxDelay)
	}

	switch c.Catalog.Source {
	case SourceFixture, SourceSQLite, SourceHTML:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, c.Catalog.Source)
	}

	return nil
}

// Package config loads the settings of the folio tools from the environment.
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store kinds.
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Market provider kinds.
const (
	MarketMock  = "mock"
	MarketREST  = "rest"
	MarketWS    = "ws"
	MarketEODHD = "eodhd"
)

// Exchange rate provider kinds.
const (
	FXMock  = "mock"
	FXREST  = "rest"
	FXEODHD = "eodhd"
)

type Config struct {
	LogLevel string `env:"FOLIO_LOG_LEVEL" envDefault:"info"`
	Currency string `env:"FOLIO_CURRENCY" envDefault:"USD"`
	StateDir string `env:"FOLIO_STATE_DIR" envDefault:".folio"`
	Store    Store
	Market   Market
	FX       FX
	HTTP     HTTP
	Jobs     Jobs
}

type Store struct {
	Kind        string `env:"FOLIO_STORE" envDefault:"file"`
	LedgerFile  string `env:"FOLIO_LEDGER_FILE" envDefault:"transactions.jsonl"`
	RedisURL    string `env:"FOLIO_REDIS_URL"`
	DatabaseURL string `env:"FOLIO_DATABASE_URL"`
}

type Market struct {
	Provider  string        `env:"FOLIO_MARKET_PROVIDER" envDefault:"mock"`
	URL       string        `env:"FOLIO_MARKET_URL"`
	PricePath string        `env:"FOLIO_MARKET_PRICE_PATH" envDefault:"$.price"`
	Timeout   time.Duration `env:"FOLIO_MARKET_TIMEOUT" envDefault:"10s"`
	APIKey    string        `env:"FOLIO_MARKET_API_KEY"`
}

// FX selects the exchange rates used to report holdings traded in another
// currency than Currency.
type FX struct {
	Provider string        `env:"FOLIO_FX_PROVIDER" envDefault:"mock"`
	URL      string        `env:"FOLIO_FX_URL"`
	CacheTTL time.Duration `env:"FOLIO_FX_CACHE_TTL" envDefault:"1h"`
}

type HTTP struct {
	Addr string `env:"FOLIO_HTTP_ADDR" envDefault:":8080"`
}

type Jobs struct {
	DCAInterval time.Duration `env:"FOLIO_DCA_INTERVAL" envDefault:"1h"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is like Load but exits on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("parse config error: %s", err)
	}
	return cfg
}

// Validate checks the values that have a fixed set of choices.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreFile, StoreMemory:
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("FOLIO_REDIS_URL is required with FOLIO_STORE=%s", c.Store.Kind)
		}
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("FOLIO_DATABASE_URL is required with FOLIO_STORE=%s", c.Store.Kind)
		}
	default:
		return fmt.Errorf("unknown FOLIO_STORE %q", c.Store.Kind)
	}
	switch c.Market.Provider {
	case MarketMock:
	case MarketREST, MarketWS:
		if c.Market.URL == "" {
			return fmt.Errorf("FOLIO_MARKET_URL is required with FOLIO_MARKET_PROVIDER=%s", c.Market.Provider)
		}
	case MarketEODHD:
		if c.Market.APIKey == "" {
			return fmt.Errorf("FOLIO_MARKET_API_KEY is required with FOLIO_MARKET_PROVIDER=%s", c.Market.Provider)
		}
	default:
		return fmt.Errorf("unknown FOLIO_MARKET_PROVIDER %q", c.Market.Provider)
	}
	switch c.FX.Provider {
	case FXMock, "":
	case FXREST:
		if c.FX.URL == "" {
			return fmt.Errorf("FOLIO_FX_URL is required with FOLIO_FX_PROVIDER=%s", c.FX.Provider)
		}
	case FXEODHD:
		if c.Market.APIKey == "" {
			return fmt.Errorf("FOLIO_MARKET_API_KEY is required with FOLIO_FX_PROVIDER=%s", c.FX.Provider)
		}
	default:
		return fmt.Errorf("unknown FOLIO_FX_PROVIDER %q", c.FX.Provider)
	}
	return nil
}

// StatePath returns the path of a file in the state directory.
func (c *Config) StatePath(name string) string {
	return filepath.Join(c.StateDir, name)
}

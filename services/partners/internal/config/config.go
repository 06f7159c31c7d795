package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	pkgconfig "github.com/Skotchmaster/partners_pos/pkg/config"
	pkgdb "github.com/Skotchmaster/partners_pos/pkg/db"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/pricing"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/search"
)

type Config struct {
	pkgconfig.Config

	TaxRate      decimal.Decimal
	StoreName    string
	TerminalID   string
	NodeID       int64
	CartTTL      time.Duration
	LowStockCron string

	Search search.Config
}

func Load() (*Config, error) {
	base := pkgconfig.Load()
	if base.ServiceName == "" {
		base.ServiceName = "partners"
	}

	cfg := &Config{
		Config:       base,
		TaxRate:      pricing.DefaultTaxRate,
		StoreName:    pkgconfig.EnvDefault("STORE_NAME", "Partners POS"),
		TerminalID:   pkgconfig.EnvDefault("TERMINAL_ID", "pos-1"),
		NodeID:       int64(pkgconfig.EnvIntDefault("NODE_ID", 1)),
		CartTTL:      pkgconfig.EnvDurationDefault("CART_TTL", 12*time.Hour),
		LowStockCron: pkgconfig.EnvDefault("LOW_STOCK_CRON", "@hourly"),
		Search: search.Config{
			URL:      os.Getenv("ES_URL"),
			User:     os.Getenv("ES_USER"),
			Password: os.Getenv("ES_PASSWORD"),
			Index:    pkgconfig.EnvDefault("ES_INDEX", "products"),
		},
	}

	if v := os.Getenv("TAX_RATE"); v != "" {
		rate, err := decimal.NewFromString(v)
		if err != nil || rate.IsNegative() {
			return nil, fmt.Errorf("TAX_RATE=%q must be a non-negative decimal", v)
		}
		cfg.TaxRate = rate
	}
	if cfg.NodeID < 0 || cfg.NodeID > 1023 {
		return nil, fmt.Errorf("NODE_ID=%d must be within 0..1023", cfg.NodeID)
	}
	return cfg, nil
}

// MustValidate stops the process when required settings are missing.
func (c *Config) MustValidate() {
	pkgconfig.MustOneOf(c.DBDriver, "DB_DRIVER", pkgdb.DriverSQLite, pkgdb.DriverPostgres)
	if c.DBDriver == pkgdb.DriverPostgres {
		pkgconfig.MustNonEmpty(c.DatabaseURL, "DATABASE_URL")
	}
	pkgconfig.MustNonEmptyBytes(c.JWTAccessSecret, "JWT_SECRET")
}

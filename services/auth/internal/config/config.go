package config

import (
	"time"

	pkgconfig "github.com/Skotchmaster/partners_pos/pkg/config"
	pkgdb "github.com/Skotchmaster/partners_pos/pkg/db"
)

type Config struct {
	pkgconfig.Config

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	BootstrapUsername string
	BootstrapPassword string
}

func Load() *Config {
	base := pkgconfig.Load()
	if base.ServiceName == "" {
		base.ServiceName = "auth"
	}
	return &Config{
		Config:            base,
		AccessTTL:         pkgconfig.EnvDurationDefault("ACCESS_TTL", 15*time.Minute),
		RefreshTTL:        pkgconfig.EnvDurationDefault("REFRESH_TTL", 7*24*time.Hour),
		BootstrapUsername: pkgconfig.EnvDefault("BOOTSTRAP_ADMIN_USERNAME", "admin"),
		BootstrapPassword: pkgconfig.EnvDefault("BOOTSTRAP_ADMIN_PASSWORD", ""),
	}
}

// MustValidate stops the process when required settings are missing.
func (c *Config) MustValidate() {
	pkgconfig.MustOneOf(c.DBDriver, "DB_DRIVER", pkgdb.DriverSQLite, pkgdb.DriverPostgres)
	if c.DBDriver == pkgdb.DriverPostgres {
		pkgconfig.MustNonEmpty(c.DatabaseURL, "DATABASE_URL")
	}
	pkgconfig.MustNonEmptyBytes(c.JWTAccessSecret, "JWT_SECRET")
	pkgconfig.MustNonEmptyBytes(c.JWTRefreshSecret, "JWT_REFRESH_SECRET")
}

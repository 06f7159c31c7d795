package config

import (
	pkgconfig "github.com/Skotchmaster/partners_pos/pkg/config"
)

type Config struct {
	ListenAddr  string
	AuthURL     string
	PartnersURL string
	JWTSecret   []byte
	LogLevel    string
	LogFile     string
}

func Load() *Config {
	base := pkgconfig.Load()
	return &Config{
		ListenAddr:  pkgconfig.EnvDefault("GATEWAY_ADDR", ":8080"),
		AuthURL:     pkgconfig.EnvDefault("AUTH_URL", ""),
		PartnersURL: pkgconfig.EnvDefault("PARTNERS_URL", ""),
		JWTSecret:   base.JWTAccessSecret,
		LogLevel:    base.LogLevel,
		LogFile:     base.LogFile,
	}
}

func (c *Config) MustValidate() {
	pkgconfig.MustNonEmpty(c.AuthURL, "AUTH_URL")
	pkgconfig.MustNonEmpty(c.PartnersURL, "PARTNERS_URL")
	pkgconfig.MustNonEmptyBytes(c.JWTSecret, "JWT_SECRET")
}

package main

import (
	"github.com/caarlos0/env/v11"
)

type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

type Config struct {
	Addr  string `env:"HTTP_ADDR" envDefault:":8572"`
	Debug bool   `env:"DEBUG"`

	DSN string `env:"DATABASE_DSN" envDefault:"file:account.db?cache=shared&mode=rwc"`

	TokenIssuer       string `env:"TOKEN_ISSUER" envDefault:"go-account"`
	SigningKey        string `env:"JWT_SIGNING_KEY,required"`
	RefreshSigningKey string `env:"REFRESH_SIGNING_KEY,required"`

	SessionSecret string `env:"SESSION_SECRET"`

	SMTP SMTPConfig `envPrefix:"SMTP_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

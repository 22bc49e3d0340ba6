package main

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, loaded once at startup from the
// environment (plus an optional .env file in development).
type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"file:workqit.db?cache=shared"`

	SigningKey      string   `env:"AUTH_SIGNING_KEY,required"`
	SigningMethod   string   `env:"AUTH_SIGNING_METHOD" envDefault:"HS256"`
	ContextKey      string   `env:"AUTH_CONTEXT_KEY" envDefault:"session"`
	TokenExpiration int      `env:"AUTH_TOKEN_EXPIRATION_HOURS" envDefault:"168"`
	TokenLookup     string   `env:"AUTH_TOKEN_LOOKUP" envDefault:"cookie:session,header:Authorization"`
	AuthScheme      string   `env:"AUTH_SCHEME" envDefault:"Bearer"`
	Issuer          string   `env:"AUTH_ISSUER" envDefault:"workqit"`
	Audience        []string `env:"AUTH_AUDIENCE" envDefault:"workqit" envSeparator:","`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL"`

	OAuthStateHMACKey string `env:"OAUTH_STATE_HMAC_KEY"`
}

// LoadConfig reads the environment into a Config. A missing .env file is not
// an error; required variables still have to come from somewhere.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) GetSigningKey() string    { return c.SigningKey }
func (c *Config) GetSigningMethod() string { return c.SigningMethod }
func (c *Config) GetContextKey() string    { return c.ContextKey }
func (c *Config) GetTokenExpiration() int  { return c.TokenExpiration }
func (c *Config) GetTokenLookup() string   { return c.TokenLookup }
func (c *Config) GetAuthScheme() string    { return c.AuthScheme }
func (c *Config) GetIssuer() string        { return c.Issuer }
func (c *Config) GetAudience() []string    { return c.Audience }

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

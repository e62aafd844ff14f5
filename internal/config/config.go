// Package config has a configuration structure
package config

import "time"

// Config contains configuration data
type Config struct {
	UsernamePostgres string `env:"POSTGRES_USER" envDefault:"postgres"`
	PasswordPostgres string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	HostPostgres     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PortPostgres     string `env:"POSTGRES_PORT" envDefault:"5432"`
	DBNamePostgres   string `env:"POSTGRES_DB" envDefault:"postgres"`

	ServerRedisCache string `env:"REDIS_SERVER" envDefault:"server1"`
	HostRedisCache   string `env:"REDIS_HOST" envDefault:"localhost"`
	PortRedisCache   string `env:"REDIS_PORT" envDefault:"6379"`

	HostHTTP       string   `env:"HOST_HTTP" envDefault:"0.0.0.0"`
	PortHTTP       string   `env:"PORT_HTTP" envDefault:"8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	QuoteURL      string        `env:"QUOTE_URL" envDefault:"http://localhost:9000"`
	QuoteTimeout  time.Duration `env:"QUOTE_TIMEOUT" envDefault:"5s"`
	QuoteCacheTTL time.Duration `env:"QUOTE_CACHE_TTL" envDefault:"15s"`

	// MarginPercentage is the fraction of notional value reserved from the
	// balance while a position is open
	MarginPercentage int `env:"MARGIN_PERCENTAGE" envDefault:"10"`
}

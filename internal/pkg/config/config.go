package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port         string        `env:"PORT,          default=5000"`
	Env          string        `env:"ENV,           default=development"`
	JWTSecret    string        `env:"JWT_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL,     default=168h"`
	LogLevel     string        `env:"LOG_LEVEL,     default=info"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT, default=5s"`
	FeedMaxLimit int           `env:"FEED_MAX_LIMIT, default=100"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Mail      MailConfig
	Gemini    GeminiConfig
	RateLimit RateLimitConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database string `env:"MONGO_DB,  default=mietgram"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type MailConfig struct {
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	From           string `env:"MAIL_FROM,    default=no-reply@mietjammu.in"`
	ClientURL      string `env:"CLIENT_URL,   default=http://localhost:5173"`
	Workers        int    `env:"MAIL_WORKERS, default=4"`
}

type GeminiConfig struct {
	APIKey string `env:"GEMINI_API_KEY"`
	Model  string `env:"GEMINI_MODEL, default=gemini-2.5-flash"`
}

// RateLimitConfig defaults to 100 requests per 15 minutes per client.
type RateLimitConfig struct {
	PerSecond float64 `env:"RATE_LIMIT_PER_SECOND, default=0.1111"`
	Burst     int     `env:"RATE_LIMIT_BURST,      default=100"`
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive, got %s", c.StoreTimeout)
	}
	if c.FeedMaxLimit < 1 {
		return fmt.Errorf("FEED_MAX_LIMIT must be at least 1, got %d", c.FeedMaxLimit)
	}
	return nil
}

// Load reads an optional .env file and then configuration from environment
// variables using go-envconfig. Variables already set in the environment win
// over the .env file.
func Load() *Config {
	cfg, err := load(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	return &cfg, nil
}

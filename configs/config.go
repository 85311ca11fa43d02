package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type R2 struct {
	AccountID  string `env:"R2_ACCOUNT_ID"`
	AccessKey  string `env:"R2_ACCESS_KEY"`
	SecretKey  string `env:"R2_SECRET_KEY"`
	BucketName string `env:"R2_BUCKET_NAME" envDefault:"social-media-uploads"`
	PublicURL  string `env:"R2_PUBLIC_URL"`
}

type LinkedIn struct {
	ClientID     string `env:"LINKEDIN_CLIENT_ID"`
	ClientSecret string `env:"LINKEDIN_CLIENT_SECRET"`
	RedirectURI  string `env:"LINKEDIN_REDIRECT_URI" envDefault:"http://localhost:3002/connect/callback"`
	AuthURL      string `env:"LINKEDIN_AUTH_URL" envDefault:"https://www.linkedin.com/oauth/v2/authorization"`
	TokenURL     string `env:"LINKEDIN_TOKEN_URL" envDefault:"https://www.linkedin.com/oauth/v2/accessToken"`
	APIURL       string `env:"LINKEDIN_API_URL" envDefault:"https://api.linkedin.com"`
}

type Config struct {
	AppEnv        string        `env:"APP_ENV" envDefault:"local"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr      string        `env:"HTTP_ADDR" envDefault:":3002"`
	PostgresURI   string        `env:"POSTGRES_URI"`
	RunMigrations bool          `env:"RUN_MIGRATIONS" envDefault:"true"`
	FrontendURL   string        `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	SecretKey     string        `env:"JWT_SECRET"`
	TokenTTL      time.Duration `env:"JWT_TTL" envDefault:"168h"`
	EncryptionKey string        `env:"TOKEN_ENCRYPTION_KEY"`
	StateTTL      time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`
	AuthRateLimit int           `env:"SIGNIN_RATE_LIMIT" envDefault:"10"`
	R2            R2
	LinkedIn      LinkedIn
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file loaded")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.SecretKey == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	switch len(cfg.EncryptionKey) {
	case 16, 24, 32:
	default:
		return nil, errors.New("TOKEN_ENCRYPTION_KEY must be 16, 24 or 32 bytes")
	}

	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	return cfg
}

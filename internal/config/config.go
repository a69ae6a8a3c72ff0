package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all runtime configuration, populated from BONGWELL_* env vars.
type Config struct {
	Port     string `env:"BONGWELL_PORT,default=8080"`
	DBPath   string `env:"BONGWELL_DB_PATH,default=bongwell.db"`
	BaseURL  string `env:"BONGWELL_BASE_URL"`
	LogLevel string `env:"BONGWELL_LOG_LEVEL,default=info"`

	// Secret used to sign login tokens. Must be set in production; an
	// empty value makes the server generate an ephemeral one at boot.
	JWTSecret string `env:"BONGWELL_JWT_SECRET"`

	// Address that receives new-submission notification emails.
	AdminEmail string `env:"BONGWELL_ADMIN_EMAIL"`

	Storage StorageConfig `env:",prefix=BONGWELL_S3_"`
	Email   EmailConfig   `env:",prefix=BONGWELL_EMAIL_"`
	Push    PushConfig    `env:",prefix=BONGWELL_VAPID_"`
}

// StorageConfig holds S3-compatible object storage settings for project images.
type StorageConfig struct {
	Endpoint  string `env:"ENDPOINT"`
	Bucket    string `env:"BUCKET"`
	Region    string `env:"REGION,default=auto"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	// Public base URL for uploaded objects; defaults to the endpoint+bucket.
	PublicURL string `env:"PUBLIC_URL"`
}

// EmailConfig holds the Postmark server token and sender address.
type EmailConfig struct {
	ServerToken string `env:"TOKEN"`
	FromEmail   string `env:"FROM"`
}

// PushConfig holds VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `env:"PUBLIC_KEY"`
	PrivateKey string `env:"PRIVATE_KEY"`
}

// Load populates a Config from the process environment.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}
	return cfg, nil
}

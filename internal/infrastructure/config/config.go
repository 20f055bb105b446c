package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo   MongoConfig
	Redis   RedisConfig
	SMTP    SMTPConfig
	Uverify UverifyConfig
	Storage StorageConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=agent_onboarding"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// SMTPConfig configures the notification mailer. With an empty host the
// service falls back to the no-op notifier.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT, default=587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"SMTP_FROM"`
}

// UverifyConfig configures the networked KYC provider. With an empty API key
// the service falls back to the stub verifier.
type UverifyConfig struct {
	BaseURL   string        `env:"UVERIFY_BASE_URL"`
	APIKey    string        `env:"UVERIFY_API_KEY"`
	APISecret string        `env:"UVERIFY_API_SECRET"`
	Timeout   time.Duration `env:"UVERIFY_TIMEOUT, default=20s"`
}

type StorageConfig struct {
	// PublicBaseURL is the prefix of the URLs handed out for uploaded files.
	PublicBaseURL string `env:"STORAGE_PUBLIC_BASE_URL, default=http://localhost:8080"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

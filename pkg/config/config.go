package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix  = "STOREFRONT"
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App       AppConfig
	Backend   BackendConfig
	Cart      CartConfig
	DevServer DevServerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.ensureBaseURL(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type BackendConfig struct {
	BaseURL        string `envconfig:"STOREFRONT_BACKEND_URL" default:"http://127.0.0.1:5000"`
	TimeoutSeconds int    `envconfig:"STOREFRONT_BACKEND_TIMEOUT_SECONDS" default:"10"`
}

func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

func (b *BackendConfig) ensureBaseURL() error {
	parsed, err := url.Parse(b.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid backend url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("backend url must be http or https, got %q", b.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("backend url missing host: %q", b.BaseURL)
	}
	b.BaseURL = strings.TrimRight(b.BaseURL, "/")
	return nil
}

type CartConfig struct {
	DBPath     string `envconfig:"STOREFRONT_CART_DB_PATH" default:"storefront.db"`
	StorageKey string `envconfig:"STOREFRONT_CART_STORAGE_KEY" default:"cart"`
}

type DevServerConfig struct {
	Port      string `envconfig:"STOREFRONT_DEVSERVER_PORT" default:"5000"`
	JWTSecret string `envconfig:"STOREFRONT_DEVSERVER_JWT_SECRET" default:"dev-secret"`
	Seed      bool   `envconfig:"STOREFRONT_DEVSERVER_SEED" default:"true"`
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	defaultAPITimeout   = 8 * time.Second
	defaultStoreDSN     = "shop.db"
)

// Config captures runtime configuration organised by concern.
type Config struct {
	Server ServerConfig
	API    APIConfig
	Bot    BotConfig
	Dev    DevConfig
	Store  StoreConfig
}

// ServerConfig configures the local API server.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// APIConfig configures the remote API client.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// BotConfig carries the bot token used to verify host init data signatures.
type BotConfig struct {
	Token string
}

// DevConfig enables the local development auth path.
type DevConfig struct {
	Enabled   bool
	JWTSecret string
}

// StoreConfig locates the SQLite database and the optional catalog seed file.
type StoreConfig struct {
	DSN      string
	SeedFile string
	ImageDir string
}

// Load reads configuration from the environment, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Port:         envOr("SHOP_PORT", envOr("PORT", defaultPort)),
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
			IdleTimeout:  defaultIdleTimeout,
		},
		API: APIConfig{
			BaseURL: strings.TrimSpace(os.Getenv("SHOP_API_BASE_URL")),
			Timeout: defaultAPITimeout,
		},
		Bot: BotConfig{
			Token: strings.TrimSpace(os.Getenv("BOT_TOKEN")),
		},
		Dev: DevConfig{
			Enabled:   envBool("SHOP_DEV"),
			JWTSecret: strings.TrimSpace(os.Getenv("SHOP_DEV_JWT_SECRET")),
		},
		Store: StoreConfig{
			DSN:      envOr("SHOP_DB", defaultStoreDSN),
			SeedFile: strings.TrimSpace(os.Getenv("SHOP_SEED_FILE")),
			ImageDir: strings.TrimSpace(os.Getenv("SHOP_IMAGE_DIR")),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = envDuration("SHOP_READ_TIMEOUT", cfg.Server.ReadTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Server.WriteTimeout, err = envDuration("SHOP_WRITE_TIMEOUT", cfg.Server.WriteTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Server.IdleTimeout, err = envDuration("SHOP_IDLE_TIMEOUT", cfg.Server.IdleTimeout); err != nil {
		return Config{}, err
	}
	if cfg.API.Timeout, err = envDuration("SHOP_API_TIMEOUT", cfg.API.Timeout); err != nil {
		return Config{}, err
	}

	if cfg.Dev.Enabled && cfg.Dev.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: SHOP_DEV requires SHOP_DEV_JWT_SECRET")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return d, nil
}

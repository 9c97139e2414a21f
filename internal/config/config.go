package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Rotation  RotationConfig  `mapstructure:"rotation"`
	Unsplash  UnsplashConfig  `mapstructure:"unsplash"`
	Store     StoreConfig     `mapstructure:"store"`
	Presenter PresenterConfig `mapstructure:"presenter"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Mirror    MirrorConfig    `mapstructure:"mirror"`
	Server    ServerConfig    `mapstructure:"server"`
}

// RotationConfig controls the tick cadence and the cache bound.
type RotationConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Capacity int           `mapstructure:"capacity"`
}

type UnsplashConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Collections     []string      `mapstructure:"collections"`
	PhotoSize       string        `mapstructure:"photo_size"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RequestsPerHour int           `mapstructure:"requests_per_hour"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type PresenterConfig struct {
	Kind string `mapstructure:"kind"` // auto, gnome, feh, noop
}

type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Driver  string `mapstructure:"driver"` // sqlite, postgres
	Path    string `mapstructure:"path"`
	DSN     string `mapstructure:"dsn"`
}

// MirrorConfig configures the optional S3-compatible copy of every cached image.
type MirrorConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
}

// ServerConfig configures the optional local status API.
type ServerConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads the configuration file (./configs/config.yaml or ./config.yaml by
// default) with environment overrides, then validates it.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.BindEnv("rotation.interval", "BLISS_INTERVAL")
	v.BindEnv("rotation.capacity", "BLISS_CAPACITY")
	v.BindEnv("mirror.access_key", "MIRROR_ACCESS_KEY")
	v.BindEnv("mirror.secret_key", "MIRROR_SECRET_KEY")
	v.BindEnv("database.dsn", "DATABASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("rotation.interval", "5s")
	v.SetDefault("rotation.capacity", 50)
	v.SetDefault("unsplash.base_url", "https://api.unsplash.com")
	v.SetDefault("unsplash.collections", []string{})
	v.SetDefault("unsplash.photo_size", "full")
	v.SetDefault("unsplash.timeout", "60s")
	v.SetDefault("unsplash.requests_per_hour", 50)
	v.SetDefault("store.path", "")
	v.SetDefault("presenter.kind", "auto")
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "")
	v.SetDefault("mirror.enabled", false)
	v.SetDefault("mirror.use_ssl", true)
	v.SetDefault("mirror.prefix", "wallpapers")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8765)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.mode", "release")
}

// Validate rejects configurations the rotation cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Unsplash.Collections) == 0 {
		errs = append(errs, errors.New("unsplash.collections must list at least one collection id"))
	}
	for _, id := range c.Unsplash.Collections {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, errors.New("unsplash.collections contains an empty id"))
			break
		}
	}
	if c.Rotation.Interval <= 0 {
		errs = append(errs, fmt.Errorf("rotation.interval must be positive, got %s", c.Rotation.Interval))
	}
	if c.Rotation.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("rotation.capacity must be positive, got %d", c.Rotation.Capacity))
	}
	switch c.Unsplash.PhotoSize {
	case "raw", "full", "regular", "small":
	default:
		errs = append(errs, fmt.Errorf("unsplash.photo_size %q is not one of raw, full, regular, small", c.Unsplash.PhotoSize))
	}
	if c.Mirror.Enabled && c.Mirror.Bucket == "" {
		errs = append(errs, errors.New("mirror.bucket is required when the mirror is enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

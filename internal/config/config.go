// Package config loads openats settings from flags, the environment, an
// optional .env file and an optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rcliao/openats/internal/kv"
)

const (
	configName = ".openats"
	envPrefix  = "OPENATS"
	dataDir    = ".openats"
)

// Config is the resolved application configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite file memory"`
	Path   string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic disabled"`
	Pretty bool   `mapstructure:"pretty"`
}

type MetricsConfig struct {
	// File receives counters in Prometheus text format when set.
	File string `mapstructure:"file"`
}

var validate = validator.New()

// SetDefaults registers every key so that environment variables are picked
// up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.driver", kv.DriverSQLite)
	v.SetDefault("storage.path", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.pretty", false)
	v.SetDefault("metrics.file", "")
}

// Load resolves the configuration held by v. cfgFile, when set, must exist;
// otherwise .openats.yaml is looked up in the working directory and $HOME.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Storage.Path == "" && cfg.Storage.Driver != kv.DriverMemory {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home: %w", err)
		}
		cfg.Storage.Path = kv.DefaultPath(cfg.Storage.Driver, filepath.Join(home, dataDir))
	}
	return &cfg, nil
}

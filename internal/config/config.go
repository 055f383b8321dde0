// Package config loads levelup settings from flags, the environment, an
// optional .env file and an optional levelup.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configName = "levelup"
	envPrefix  = "LEVELUP"
)

type Config struct {
	API  APIConfig  `mapstructure:"api" yaml:"api"`
	User UserConfig `mapstructure:"user" yaml:"user"`
	DB   DBConfig   `mapstructure:"db" yaml:"db"`
	Log  LogConfig  `mapstructure:"log" yaml:"log"`
}

// APIConfig points at the remote task service. An empty BaseURL keeps
// levelup offline, working from the local task table.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`
}

type UserConfig struct {
	ExternalID string `mapstructure:"external_id" yaml:"external_id"`
}

type DBConfig struct {
	Path string `mapstructure:"path" yaml:"path" validate:"required"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	File  string `mapstructure:"file" yaml:"file" validate:"required"`
}

// Online reports whether a remote task service is configured.
func (c Config) Online() bool { return c.API.BaseURL != "" }

var validate = validator.New()

// Dir returns ~/.config/levelup.
func Dir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, configName), nil
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) error {
	dir, err := Dir()
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("user.external_id", "")
	v.SetDefault("db.path", filepath.Join(dir, "levelup.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(dir, "levelup.log"))
	return nil
}

// Load reads configuration into a Config. cfgFile, when set, must exist;
// otherwise levelup.yaml is looked up in the config dir and the working
// directory and is optional.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := SetDefaults(v); err != nil {
		return nil, err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Defaults returns the configuration used when nothing is set.
func Defaults() (*Config, error) {
	v := viper.New()
	if err := SetDefaults(v); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Write stores cfg as YAML at path, refusing to overwrite unless force.
func Write(cfg *Config, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// NewUserID generates the identifier used when no external account is
// linked.
func NewUserID() string {
	return "local_" + uuid.NewString()
}

// CheckBaseURL reports whether s is usable as api.base_url. Empty is valid
// and means offline.
func CheckBaseURL(s string) error {
	if err := validate.Var(s, "omitempty,url"); err != nil {
		return fmt.Errorf("%q is not a valid URL", s)
	}
	return nil
}

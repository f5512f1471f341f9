// Package configs loads client configuration from a YAML file layered with
// defaults and environment variable overrides.
package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/parleyhq/parley-go/internal/env"
)

type Config struct {
	API       APIConfig       `koanf:"api"`
	RoomStore RoomStoreConfig `koanf:"room_store"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Log       LogConfig       `koanf:"log"`
}

type APIConfig struct {
	BaseURL        string        `koanf:"base_url"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	MaxRetries     int           `koanf:"max_retries"`
}

type RoomStoreConfig struct {
	PageSize      int    `koanf:"page_size"`
	DefaultRegion string `koanf:"default_region"`
}

type TelemetryConfig struct {
	Enabled      bool   `koanf:"enabled"`
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	Environment  string `koanf:"environment"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

// DetermineConfigPath picks the config file location: the PARLEY_CONFIG
// variable wins, then ./parley.yaml, then the user config directory. An
// empty result means "defaults only".
func DetermineConfigPath() string {
	if path := env.GetString("PARLEY_CONFIG", ""); path != "" {
		return path
	}
	if _, err := os.Stat("parley.yaml"); err == nil {
		return "parley.yaml"
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidate := filepath.Join(dir, "parley", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Load from YAML file if it exists
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			// Only return error if file was explicitly provided but failed to load
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Apply defaults and environment variable overrides
	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "api.base_url", "")
	setDefault(k, "api.request_timeout", time.Minute)
	setDefault(k, "api.max_retries", 0)

	setDefault(k, "room_store.page_size", 50)
	setDefault(k, "room_store.default_region", "us-east")

	setDefault(k, "telemetry.enabled", false)
	setDefault(k, "telemetry.otlp_endpoint", "http://localhost:4318")
	setDefault(k, "telemetry.environment", "development")

	setDefault(k, "log.level", "info")
}

func applyEnvOverrides(k *koanf.Koanf) {
	if baseURL := env.GetString("PARLEY_BASE_URL", ""); baseURL != "" {
		k.Set("api.base_url", baseURL)
	}
	if timeout := env.GetInt("PARLEY_REQUEST_TIMEOUT_SECONDS", 0); timeout > 0 {
		k.Set("api.request_timeout", time.Duration(timeout)*time.Second)
	}
	if retries := env.GetInt("PARLEY_MAX_RETRIES", -1); retries >= 0 {
		k.Set("api.max_retries", retries)
	}

	if pageSize := env.GetInt("PARLEY_PAGE_SIZE", 0); pageSize > 0 {
		k.Set("room_store.page_size", pageSize)
	}
	if region := env.GetString("PARLEY_REGION", ""); region != "" {
		k.Set("room_store.default_region", region)
	}

	if endpoint := env.GetString("PARLEY_OTLP_ENDPOINT", ""); endpoint != "" {
		k.Set("telemetry.otlp_endpoint", endpoint)
		k.Set("telemetry.enabled", true)
	}
	if _, ok := os.LookupEnv("PARLEY_TELEMETRY_ENABLED"); ok {
		k.Set("telemetry.enabled", env.GetBool("PARLEY_TELEMETRY_ENABLED", false))
	}

	if level := env.GetString("PARLEY_LOG_LEVEL", ""); level != "" {
		k.Set("log.level", level)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}

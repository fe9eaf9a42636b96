// Package config loads the service configuration.
//
// Configuration lives in ~/.happy2align/config.yaml. A missing file is not
// an error: DefaultConfig applies. Environment variables override the file,
// so the usual OPENAI_API_KEY / OPENAI_MODEL setup works without one.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Dir is the per-user directory holding config and data.
	Dir = ".happy2align"
	// FileName is the config file inside Dir.
	FileName = "config.yaml"
)

// --- Store driver enum ---

// Driver selects the session store backend.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverSQLite Driver = "sqlite"
)

var validDrivers = map[Driver]bool{
	DriverMemory: true,
	DriverSQLite: true,
}

// ValidateDriver returns an error if the driver is not recognized.
func ValidateDriver(d Driver) error {
	if !validDrivers[d] {
		return fmt.Errorf("invalid store driver %q: must be one of: memory, sqlite", d)
	}
	return nil
}

// --- Config ---

// GatewayConfig configures the model provider.
type GatewayConfig struct {
	BaseURL         string        `yaml:"base_url,omitempty"`
	APIKeyEnv       string        `yaml:"api_key_env"`
	APIKey          string        `yaml:"-"`
	PrimaryModel    string        `yaml:"primary_model"`
	FallbackModel   string        `yaml:"fallback_model,omitempty"`
	Timeout         time.Duration `yaml:"timeout"`
	FallbackTimeout time.Duration `yaml:"fallback_timeout"`
	Retries         int           `yaml:"retries"`
	Temperature     float32       `yaml:"temperature"`
}

// StoreConfig configures session persistence.
type StoreConfig struct {
	Driver  Driver `yaml:"driver"`
	DataDir string `yaml:"data_dir"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full service configuration.
type Config struct {
	Language string        `yaml:"language"`
	Gateway  GatewayConfig `yaml:"gateway"`
	Store    StoreConfig   `yaml:"store"`
	Log      LogConfig     `yaml:"log"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	dataDir := Dir
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, Dir)
	}
	return Config{
		Language: "en",
		Gateway: GatewayConfig{
			APIKeyEnv:       "OPENAI_API_KEY",
			PrimaryModel:    "gpt-4o-mini",
			FallbackModel:   "gpt-3.5-turbo",
			Timeout:         30 * time.Second,
			FallbackTimeout: 15 * time.Second,
			Retries:         1,
			Temperature:     0.7,
		},
		Store: StoreConfig{
			Driver:  DriverSQLite,
			DataDir: dataDir,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns ~/.happy2align/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(Dir, FileName)
	}
	return filepath.Join(home, Dir, FileName)
}

// Load reads path on top of DefaultConfig, applies environment
// overrides and validates the result. A missing file yields defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		default:
			var file Config
			if err := yaml.Unmarshal(data, &file); err != nil {
				return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
			}
			cfg.Merge(file)

			var zeros explicitZeros
			if err := yaml.Unmarshal(data, &zeros); err != nil {
				return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
			}
			zeros.apply(&cfg)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// explicitZeros holds the gateway fields whose zero value is a real
// setting. Merge cannot tell "retries: 0" from an absent key.
type explicitZeros struct {
	Gateway struct {
		Retries     *int     `yaml:"retries"`
		Temperature *float32 `yaml:"temperature"`
	} `yaml:"gateway"`
}

func (z explicitZeros) apply(c *Config) {
	if z.Gateway.Retries != nil {
		c.Gateway.Retries = *z.Gateway.Retries
	}
	if z.Gateway.Temperature != nil {
		c.Gateway.Temperature = *z.Gateway.Temperature
	}
}

// Merge overlays every non-zero field of src onto c. Load additionally
// honours an explicit zero for gateway retries and temperature.
func (c *Config) Merge(src Config) {
	if src.Language != "" {
		c.Language = src.Language
	}

	g := src.Gateway
	if g.BaseURL != "" {
		c.Gateway.BaseURL = g.BaseURL
	}
	if g.APIKeyEnv != "" {
		c.Gateway.APIKeyEnv = g.APIKeyEnv
	}
	if g.APIKey != "" {
		c.Gateway.APIKey = g.APIKey
	}
	if g.PrimaryModel != "" {
		c.Gateway.PrimaryModel = g.PrimaryModel
	}
	if g.FallbackModel != "" {
		c.Gateway.FallbackModel = g.FallbackModel
	}
	if g.Timeout > 0 {
		c.Gateway.Timeout = g.Timeout
	}
	if g.FallbackTimeout > 0 {
		c.Gateway.FallbackTimeout = g.FallbackTimeout
	}
	if g.Retries > 0 {
		c.Gateway.Retries = g.Retries
	}
	if g.Temperature > 0 {
		c.Gateway.Temperature = g.Temperature
	}

	if src.Store.Driver != "" {
		c.Store.Driver = src.Store.Driver
	}
	if src.Store.DataDir != "" {
		c.Store.DataDir = src.Store.DataDir
	}

	if src.Log.Level != "" {
		c.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		c.Log.Format = src.Log.Format
	}
}

// ApplyEnv applies environment overrides read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str(c.Gateway.APIKeyEnv, &c.Gateway.APIKey)
	str("OPENAI_BASE_URL", &c.Gateway.BaseURL)
	str("OPENAI_MODEL", &c.Gateway.PrimaryModel)
	str("HAPPY2ALIGN_FALLBACK_MODEL", &c.Gateway.FallbackModel)
	str("HAPPY2ALIGN_DATA_DIR", &c.Store.DataDir)
	str("HAPPY2ALIGN_LOG_LEVEL", &c.Log.Level)
	str("HAPPY2ALIGN_LANGUAGE", &c.Language)

	var driver string
	str("HAPPY2ALIGN_STORE", &driver)
	if driver != "" {
		c.Store.Driver = Driver(driver)
	}

	if v, ok := lookup("OPENAI_TEMPERATURE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("parsing OPENAI_TEMPERATURE %q: %w", v, err)
		}
		c.Gateway.Temperature = float32(f)
	}
	if v, ok := lookup("HAPPY2ALIGN_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing HAPPY2ALIGN_TIMEOUT %q: %w", v, err)
		}
		c.Gateway.Timeout = d
	}
	return nil
}

// Validate checks the configuration for unusable values.
func (c Config) Validate() error {
	if err := ValidateDriver(c.Store.Driver); err != nil {
		return err
	}
	if c.Store.Driver == DriverSQLite && c.Store.DataDir == "" {
		return errors.New("store.data_dir is required for the sqlite driver")
	}
	if c.Gateway.PrimaryModel == "" {
		return errors.New("gateway.primary_model is required")
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("gateway.timeout must be positive, got %s", c.Gateway.Timeout)
	}
	if c.Gateway.Retries < 0 {
		return fmt.Errorf("gateway.retries must not be negative, got %d", c.Gateway.Retries)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: must be one of: text, json", c.Log.Format)
	}
	return nil
}

// WriteDefault writes a commented default config file to path unless one
// already exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}
	header := "# happy2align configuration\n# Environment variables (OPENAI_API_KEY, OPENAI_MODEL, HAPPY2ALIGN_*) override these values.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

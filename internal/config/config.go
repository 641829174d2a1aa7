package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/yok-tottii/EzKeymap/internal/i18n"
	"github.com/yok-tottii/EzKeymap/internal/logger"
	"github.com/yok-tottii/EzKeymap/internal/storage"
)

// EnvPrefix is prepended to environment overrides, e.g. EZKEYMAP_SERVER_PORT
const EnvPrefix = "EZKEYMAP"

// Config holds application configuration
type Config struct {
	Server      ServerConfig  `json:"server" mapstructure:"server"`
	Storage     StorageConfig `json:"storage" mapstructure:"storage"`
	Log         LogConfig     `json:"log" mapstructure:"log"`
	UILanguage  string        `json:"ui_language" mapstructure:"ui_language"`   // "ja" or "en"
	SeedSamples bool          `json:"seed_samples" mapstructure:"seed_samples"` // add sample shortcuts on first run
	OpenBrowser bool          `json:"open_browser" mapstructure:"open_browser"`
	mu          sync.RWMutex
}

// ServerConfig holds the local HTTP server settings
type ServerConfig struct {
	Port int `json:"port" mapstructure:"port"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Backend string `json:"backend" mapstructure:"backend"` // "file", "sqlite" or "memory"
	Dir     string `json:"dir" mapstructure:"dir"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level         string `json:"level" mapstructure:"level"`
	Dir           string `json:"dir" mapstructure:"dir"`
	RetentionDays int    `json:"retention_days" mapstructure:"retention_days"`
	Console       bool   `json:"console" mapstructure:"console"`
}

// appDir is the per-user application directory
func appDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, "Library", "Application Support", "EzKeymap")
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 18766,
		},
		Storage: StorageConfig{
			Backend: storage.KindFile,
			Dir:     filepath.Join(appDir(), "data"),
		},
		Log: LogConfig{
			Level:         "info",
			Dir:           filepath.Join(appDir(), "logs"),
			RetentionDays: 7,
		},
		UILanguage:  "ja",
		SeedSamples: true,
		OpenBrowser: true,
	}
}

// setDefaults registers every default so environment overrides work for
// keys missing from the file
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.dir", d.Storage.Dir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.dir", d.Log.Dir)
	v.SetDefault("log.retention_days", d.Log.RetentionDays)
	v.SetDefault("log.console", d.Log.Console)
	v.SetDefault("ui_language", d.UILanguage)
	v.SetDefault("seed_samples", d.SeedSamples)
	v.SetDefault("open_browser", d.OpenBrowser)
}

// Load reads defaults, then the JSON file at path (if it exists), then
// EZKEYMAP_* environment variables
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// 空のバックエンドはデフォルト値で補完
	if config.Storage.Backend == "" {
		config.Storage.Backend = storage.KindFile
	}

	return config, nil
}

// Save saves configuration to the specified path
func (c *Config) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	return filepath.Join(appDir(), "config.json")
}

// Update applies settings changed from the UI. Server and storage settings
// need a restart and are not accepted here. Every key is checked before any
// is applied, so a rejected update leaves the config unchanged.
func (c *Config) Update(updates map[string]interface{}) error {
	apply := make([]func(), 0, len(updates))

	for key, value := range updates {
		switch key {
		case "ui_language":
			v, ok := value.(string)
			if !ok || !i18n.ValidateLanguage(v) {
				return fmt.Errorf("invalid ui_language: %v", value)
			}
			apply = append(apply, func() { c.UILanguage = v })
		case "seed_samples":
			v, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid seed_samples: %v", value)
			}
			apply = append(apply, func() { c.SeedSamples = v })
		case "open_browser":
			v, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid open_browser: %v", value)
			}
			apply = append(apply, func() { c.OpenBrowser = v })
		case "log_level":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid log_level: %v", value)
			}
			if _, err := logger.ParseLevel(v); err != nil {
				return fmt.Errorf("invalid log_level: %s", v)
			}
			apply = append(apply, func() { c.Log.Level = strings.ToLower(v) })
		default:
			return fmt.Errorf("unknown setting: %s", key)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, fn := range apply {
		fn()
	}
	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Config{
		Server:      c.Server,
		Storage:     c.Storage,
		Log:         c.Log,
		UILanguage:  c.UILanguage,
		SeedSamples: c.SeedSamples,
		OpenBrowser: c.OpenBrowser,
	}
}

// GetUILanguage returns the UI language under the read lock
func (c *Config) GetUILanguage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.UILanguage
}

// ExpandPath expands ~ to home directory in file paths
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, path[2:]), nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	return absPath, nil
}

// StorageDir returns the expanded storage directory
func (c *Config) StorageDir() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ExpandPath(c.Storage.Dir)
}

// LoggerConfig converts the log settings into a logger.Config
func (c *Config) LoggerConfig() (logger.Config, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	level, err := logger.ParseLevel(c.Log.Level)
	if err != nil {
		return logger.Config{}, err
	}
	dir, err := ExpandPath(c.Log.Dir)
	if err != nil {
		return logger.Config{}, err
	}

	return logger.Config{
		LogDir:        dir,
		Level:         level,
		RetentionDays: c.Log.RetentionDays,
		Console:       c.Log.Console,
	}, nil
}

// Validate validates all configuration fields
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// 0 lets the OS pick a free port
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d (must be between 0 and 65535)", c.Server.Port)
	}

	switch c.Storage.Backend {
	case storage.KindFile, storage.KindSQLite:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir cannot be empty for the %s backend", c.Storage.Backend)
		}
	case storage.KindMemory:
	default:
		return fmt.Errorf("invalid storage.backend: %s (must be 'file', 'sqlite' or 'memory')", c.Storage.Backend)
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %s", c.Log.Level)
	}

	if c.Log.RetentionDays <= 0 {
		return fmt.Errorf("invalid log.retention_days: %d (must be at least 1)", c.Log.RetentionDays)
	}

	if !i18n.ValidateLanguage(c.UILanguage) {
		return fmt.Errorf("invalid ui_language: %s (supported: %v)", c.UILanguage, i18n.GetSupportedLanguages())
	}

	return nil
}

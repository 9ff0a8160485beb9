// Package config handles loading and managing configuration for questsync.
// It supports loading from YAML files, environment variables, and hardcoded defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can be written either as Go
// duration strings ("5m", "90s") or as plain seconds (300).
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if dur, err := time.ParseDuration(raw); err == nil {
		*d = Duration(dur)
		return nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	return fmt.Errorf("invalid duration: %q", raw)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds all configuration settings for questsync.
type Config struct {
	// OriginURL is the base URL of the origin task API
	OriginURL string `yaml:"origin_url"`

	// OriginToken is the bearer token for the origin API
	OriginToken string `yaml:"origin_token"`

	// MirrorURL is the base URL of the mirror task API
	MirrorURL string `yaml:"mirror_url"`

	// MirrorUser is the user ID sent in the x-api-user header
	MirrorUser string `yaml:"mirror_user"`

	// MirrorToken is the API token sent in the x-api-key header
	MirrorToken string `yaml:"mirror_token"`

	// Timezone is the IANA zone used to decide which calendar date is "today"
	Timezone string `yaml:"timezone"`

	// StateBackend selects where processed-completion sets live (file, redis)
	StateBackend string `yaml:"state_backend"`

	// StatePath is the JSON state file location for the file backend
	StatePath string `yaml:"state_path"`

	// RedisURL is the Redis connection URL for the redis backend
	RedisURL string `yaml:"redis_url"`

	// Interval is how often the daemon runs a reconciliation cycle
	Interval Duration `yaml:"interval"`

	// HTTPAddr enables the HTTP trigger server when non-empty (e.g. ":8787")
	HTTPAddr string `yaml:"http_addr"`

	// Notify enables desktop notifications for failed daemon cycles
	Notify bool `yaml:"notify"`

	// Logging configuration
	Logging LoggingConfig `yaml:"log"`
}

// LoggingConfig holds the log section of the config file.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	FilePath   string `yaml:"file"`
	JSON       bool   `yaml:"json"`
	Console    bool   `yaml:"console"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Default configuration values
const (
	DefaultOriginURL    = "https://api.todoist.com/rest/v2"
	DefaultMirrorURL    = "https://habitica.com/api/v3"
	DefaultTimezone     = "America/New_York"
	DefaultStateBackend = "file"
	DefaultRedisURL     = "redis://localhost:6379/0"
	DefaultInterval     = 5 * time.Minute
)

var (
	globalConfig *Config
	configOnce   sync.Once
	configErr    error
)

// Get returns the global configuration, loading it if necessary.
// This function is safe for concurrent use.
func Get() (*Config, error) {
	configOnce.Do(func() {
		globalConfig, configErr = Load()
	})
	return globalConfig, configErr
}

// MustGet returns the global configuration, panicking if loading fails.
func MustGet() *Config {
	cfg, err := Get()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	return cfg
}

// Load reads configuration from files and environment variables.
// Priority (highest to lowest):
// 1. Environment variables
// 2. ~/.config/questsync/config.yaml
// 3. ~/.questsync.yaml
// 4. Hardcoded defaults
func Load() (*Config, error) {
	cfg := &Config{
		OriginURL:    DefaultOriginURL,
		MirrorURL:    DefaultMirrorURL,
		Timezone:     DefaultTimezone,
		StateBackend: DefaultStateBackend,
		StatePath:    DefaultStatePath(),
		RedisURL:     DefaultRedisURL,
		Interval:     Duration(DefaultInterval),
	}

	// Try to load from config files (lowest priority file first)
	homeDir, err := os.UserHomeDir()
	if err == nil {
		// Try ~/.questsync.yaml first (will be overwritten by XDG config if present)
		legacyPath := filepath.Join(homeDir, ".questsync.yaml")
		if data, err := os.ReadFile(legacyPath); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}

		// Then try ~/.config/questsync/config.yaml (higher priority)
		xdgPath := filepath.Join(homeDir, ".config", "questsync", "config.yaml")
		if data, err := os.ReadFile(xdgPath); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}

		// Also try config.yml extension
		xdgPathYml := filepath.Join(homeDir, ".config", "questsync", "config.yml")
		if data, err := os.ReadFile(xdgPathYml); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	// Override with environment variables (highest priority)
	cfg.applyEnvOverrides()

	return cfg, nil
}

// DefaultStatePath returns the default location of the JSON state file,
// following XDG_STATE_HOME with a ~/.local/state fallback.
func DefaultStatePath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "questsync", "state.json")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "questsync", "state.json")
	}
	return filepath.Join(homeDir, ".local", "state", "questsync", "state.json")
}

// applyEnvOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvOverrides() {
	if val := os.Getenv("QUESTSYNC_ORIGIN_URL"); val != "" {
		c.OriginURL = val
	}
	if val := os.Getenv("QUESTSYNC_ORIGIN_TOKEN"); val != "" {
		c.OriginToken = val
	}
	if val := os.Getenv("QUESTSYNC_MIRROR_URL"); val != "" {
		c.MirrorURL = val
	}
	if val := os.Getenv("QUESTSYNC_MIRROR_USER"); val != "" {
		c.MirrorUser = val
	}
	if val := os.Getenv("QUESTSYNC_MIRROR_TOKEN"); val != "" {
		c.MirrorToken = val
	}
	if val := os.Getenv("QUESTSYNC_TIMEZONE"); val != "" {
		c.Timezone = val
	}
	if val := os.Getenv("QUESTSYNC_STATE_BACKEND"); val != "" {
		c.StateBackend = val
	}
	if val := os.Getenv("QUESTSYNC_STATE_PATH"); val != "" {
		c.StatePath = val
	}

	// Redis URL (support both REDIS_URL and QUESTSYNC_REDIS_URL)
	if val := os.Getenv("QUESTSYNC_REDIS_URL"); val != "" {
		c.RedisURL = val
	} else if val := os.Getenv("REDIS_URL"); val != "" {
		c.RedisURL = val
	}

	// Interval
	if val := os.Getenv("QUESTSYNC_INTERVAL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Interval = Duration(duration)
		} else if secs, err := strconv.Atoi(val); err == nil {
			// Support plain seconds for convenience
			c.Interval = Duration(time.Duration(secs) * time.Second)
		}
	}

	if val := os.Getenv("QUESTSYNC_HTTP_ADDR"); val != "" {
		c.HTTPAddr = val
	}
	if val := os.Getenv("QUESTSYNC_NOTIFY"); val != "" {
		c.Notify = val == "true" || val == "1" || val == "yes"
	}

	// Logging settings
	if val := os.Getenv("QUESTSYNC_LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
	if val := os.Getenv("QUESTSYNC_LOG_FILE"); val != "" {
		c.Logging.FilePath = val
	}
}

// Location resolves the configured timezone, falling back to UTC on error.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Reload forces a reload of the configuration.
// This resets the global singleton and returns the newly loaded config.
func Reload() (*Config, error) {
	configOnce = sync.Once{}
	return Get()
}

// ConfigPaths returns the paths where config files are searched.
func ConfigPaths() []string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(homeDir, ".config", "questsync", "config.yaml"),
		filepath.Join(homeDir, ".config", "questsync", "config.yml"),
		filepath.Join(homeDir, ".questsync.yaml"),
	}
}

// WriteExample writes an example configuration file to the specified path.
func WriteExample(path string) error {
	example := `# questsync configuration file
# Place this file at ~/.config/questsync/config.yaml or ~/.questsync.yaml

# Origin task API (authoritative source of due-today tasks)
origin_url: https://api.todoist.com/rest/v2
origin_token: ""

# Mirror task API (gamified reflector)
mirror_url: https://habitica.com/api/v3
mirror_user: ""
mirror_token: ""

# Timezone used to decide which calendar date counts as "today"
timezone: America/New_York

# Where processed-completion state lives: file or redis
state_backend: file
# state_path defaults to $XDG_STATE_HOME/questsync/state.json
state_path: ""
redis_url: redis://localhost:6379/0

# Daemon cycle interval (Go duration format, e.g., "5m", "90s")
interval: 5m

# HTTP trigger server address (empty disables it)
http_addr: ""

# Desktop notification when a daemon cycle fails
notify: false

# Logging
log:
  level: info
  file: ""
  json: true
  console: false
  max_size: 10
  max_backups: 5
  max_age: 7
  compress: true
`
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(example), 0644)
}

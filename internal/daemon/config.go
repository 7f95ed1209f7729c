// Package daemon manages the FocusForge daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	API           APIConfig          `toml:"api"`
	Storage       StorageConfig      `toml:"storage"`
	Logging       LoggingConfig      `toml:"logging"`
	Telemetry     TelemetryConfig    `toml:"telemetry"`
	Insight       InsightConfig      `toml:"insight"`
	Notifications NotificationConfig `toml:"notifications"`
	Janitor       JanitorConfig      `toml:"janitor"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	CORSOrigins        []string `toml:"cors_origins"`
	RateLimitPerMinute int      `toml:"rate_limit_per_minute"`
}

// StorageConfig controls where the SQLite database lives.
type StorageConfig struct {
	Dir string `toml:"dir"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // json or console
}

// TelemetryConfig controls metrics exposure.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// InsightConfig selects the focus insight provider.
type InsightConfig struct {
	Provider  string `toml:"provider"` // "openai" or "rules"
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`
	Model     string `toml:"model"`
	Timeout   string `toml:"timeout"`
	MaxTokens int    `toml:"max_tokens"`
}

// NotificationConfig is the per-user notification policy.
type NotificationConfig struct {
	MaxPerDay  int    `toml:"max_per_day"`
	QuietStart string `toml:"quiet_start"`
	QuietEnd   string `toml:"quiet_end"`
}

// JanitorConfig schedules expired quest and power-up cleanup.
type JanitorConfig struct {
	Schedule string `toml:"schedule"` // cron with seconds
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:               "127.0.0.1",
			Port:               8787,
			CORSOrigins:        []string{"*"},
			RateLimitPerMinute: 600,
		},
		Storage: StorageConfig{
			Dir: focusforgeHome(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
		Insight: InsightConfig{
			Provider:  "rules",
			Model:     "gpt-4o-mini",
			Timeout:   "10s",
			MaxTokens: 512,
		},
		Notifications: NotificationConfig{
			MaxPerDay:  5,
			QuietStart: "22:00",
			QuietEnd:   "08:00",
		},
		Janitor: JanitorConfig{
			Schedule: "0 */5 * * * *",
		},
	}
}

// LoadConfig reads config from $FOCUSFORGE_HOME/config.toml, falling back
// to defaults. FOCUSFORGE_OPENAI_API_KEY overrides insight.api_key.
func LoadConfig() (Config, error) {
	cfg, err := loadConfigFile(ConfigPath())
	if err != nil {
		return cfg, err
	}
	if key := os.Getenv("FOCUSFORGE_OPENAI_API_KEY"); key != "" {
		cfg.Insight.APIKey = key
	}
	return cfg, nil
}

func loadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = focusforgeHome()
	}
	return cfg, nil
}

// Overrides are command-line adjustments applied on top of the config file.
// Zero values leave the file's setting alone.
type Overrides struct {
	Host      string
	Port      int
	DataDir   string
	Insight   string
	NoMetrics bool
}

// Apply validates o and writes it into c.
func (c *Config) Apply(o Overrides) error {
	if o.Port < 0 || o.Port > 65535 {
		return fmt.Errorf("port %d out of range", o.Port)
	}
	if o.Host != "" {
		c.API.Host = o.Host
	}
	if o.Port > 0 {
		c.API.Port = o.Port
	}
	if o.DataDir != "" {
		c.Storage.Dir = o.DataDir
	}
	if o.Insight != "" {
		switch p := strings.ToLower(o.Insight); p {
		case "rules", "openai":
			c.Insight.Provider = p
		default:
			return fmt.Errorf("unknown insight provider %q", o.Insight)
		}
	}
	if o.NoMetrics {
		c.Telemetry.Prometheus = false
	}
	return nil
}

// SaveConfig writes cfg to $FOCUSFORGE_HOME/config.toml.
func SaveConfig(cfg Config) error {
	return saveConfigFile(ConfigPath(), cfg)
}

func saveConfigFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// ConfigPath returns the config file location.
func ConfigPath() string {
	return filepath.Join(focusforgeHome(), "config.toml")
}

// focusforgeHome returns the FocusForge data directory.
func focusforgeHome() string {
	if env := os.Getenv("FOCUSFORGE_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".focusforge")
}

// Home is exported for use by other packages.
func Home() string {
	return focusforgeHome()
}

package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/focusforge/focusforge/internal/app/insight"
	"github.com/focusforge/focusforge/internal/logging"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("FOCUSFORGE_HOME", "/tmp/ff-home")
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8787 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8787)
	}
	if cfg.Storage.Dir != "/tmp/ff-home" {
		t.Errorf("Storage.Dir = %q, want FOCUSFORGE_HOME", cfg.Storage.Dir)
	}
	if cfg.Insight.Provider != "rules" {
		t.Errorf("Insight.Provider = %q, want rules", cfg.Insight.Provider)
	}
	if cfg.Notifications.MaxPerDay != 5 || cfg.Notifications.QuietStart != "22:00" {
		t.Errorf("Notifications = %+v", cfg.Notifications)
	}
	if cfg.Janitor.Schedule != "0 */5 * * * *" {
		t.Errorf("Janitor.Schedule = %q", cfg.Janitor.Schedule)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("FOCUSFORGE_HOME", t.TempDir())
	t.Setenv("FOCUSFORGE_OPENAI_API_KEY", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.API.Port != DefaultConfig().API.Port {
		t.Errorf("Port = %d, want default", cfg.API.Port)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FOCUSFORGE_HOME", home)
	t.Setenv("FOCUSFORGE_OPENAI_API_KEY", "")

	cfg := DefaultConfig()
	cfg.API.Port = 9999
	cfg.Insight.Provider = "openai"
	cfg.Notifications.MaxPerDay = 2
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, "config.toml")); err != nil {
		t.Fatalf("config.toml not written: %v", err)
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if got.API.Port != 9999 || got.Insight.Provider != "openai" || got.Notifications.MaxPerDay != 2 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FOCUSFORGE_HOME", home)
	t.Setenv("FOCUSFORGE_OPENAI_API_KEY", "")

	data := "[api]\nport = 7000\n\n[logging]\nlevel = \"debug\"\n"
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.API.Port != 7000 || cfg.Logging.Level != "debug" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.API.Host != "127.0.0.1" || cfg.Janitor.Schedule == "" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FOCUSFORGE_HOME", home)
	os.WriteFile(filepath.Join(home, "config.toml"), []byte("[api\nport ="), 0600)

	if _, err := LoadConfig(); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadConfig_EnvAPIKey(t *testing.T) {
	t.Setenv("FOCUSFORGE_HOME", t.TempDir())
	t.Setenv("FOCUSFORGE_OPENAI_API_KEY", "sk-env")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Insight.APIKey != "sk-env" {
		t.Errorf("APIKey = %q, want env override", cfg.Insight.APIKey)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"5s", 5 * time.Second},
		{"2m", 2 * time.Minute},
		{"", 10 * time.Second},
		{"soon", 10 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseDuration(tt.input, 10*time.Second); got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewInsightProvider(t *testing.T) {
	log := logging.Nop()

	p, err := newInsightProvider(InsightConfig{Provider: "rules"}, log)
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if _, ok := p.(insight.RuleProvider); !ok {
		t.Errorf("rules provider = %T", p)
	}

	p, _ = newInsightProvider(InsightConfig{Provider: "openai"}, log)
	if _, ok := p.(insight.RuleProvider); !ok {
		t.Errorf("openai without key should fall back to rules, got %T", p)
	}

	p, err = newInsightProvider(InsightConfig{Provider: "OpenAI", APIKey: "sk-test", Timeout: "3s"}, log)
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := p.(*insight.AIProvider); !ok {
		t.Errorf("openai provider = %T", p)
	}

	if _, err := newInsightProvider(InsightConfig{Provider: "oracle"}, log); err == nil {
		t.Error("unknown provider should fail")
	}
}

func TestNewWithConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Dir = t.TempDir()
	cfg.Logging.Level = "disabled"

	d, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig error: %v", err)
	}
	defer d.Close()

	if d.Engage == nil || d.Insights == nil || d.Janitor == nil || d.Health == nil || d.Server == nil {
		t.Fatalf("daemon not fully wired: %+v", d)
	}
	if _, err := os.Stat(filepath.Join(cfg.Storage.Dir, "focusforge.db")); err != nil {
		t.Errorf("database not created: %v", err)
	}

	cfg.Insight.Provider = "oracle"
	if _, err := NewWithConfig(cfg); err == nil {
		t.Error("unknown provider should fail")
	}
}

func TestConfigApply(t *testing.T) {
	t.Setenv("FOCUSFORGE_HOME", "/tmp/ff-home")

	cfg := DefaultConfig()
	if err := cfg.Apply(Overrides{}); err != nil {
		t.Fatalf("empty overrides: %v", err)
	}
	if cfg.API.Port != 8787 || cfg.Storage.Dir != "/tmp/ff-home" || !cfg.Telemetry.Prometheus {
		t.Errorf("empty overrides changed config: %+v", cfg)
	}

	err := cfg.Apply(Overrides{
		Host:      "0.0.0.0",
		Port:      9100,
		DataDir:   "/srv/focusforge",
		Insight:   "OpenAI",
		NoMetrics: true,
	})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if cfg.API.Host != "0.0.0.0" || cfg.API.Port != 9100 {
		t.Errorf("listen = %s:%d", cfg.API.Host, cfg.API.Port)
	}
	if cfg.Storage.Dir != "/srv/focusforge" {
		t.Errorf("Storage.Dir = %q", cfg.Storage.Dir)
	}
	if cfg.Insight.Provider != "openai" {
		t.Errorf("Insight.Provider = %q, want openai", cfg.Insight.Provider)
	}
	if cfg.Telemetry.Prometheus {
		t.Error("NoMetrics should disable prometheus")
	}
}

func TestConfigApply_Invalid(t *testing.T) {
	tests := []struct {
		name string
		o    Overrides
	}{
		{"negative port", Overrides{Port: -1}},
		{"port too large", Overrides{Port: 70000}},
		{"unknown provider", Overrides{Insight: "oracle"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := cfg.Apply(tt.o); err == nil {
				t.Errorf("Apply(%+v) should fail", tt.o)
			}
		})
	}
}

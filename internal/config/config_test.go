package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/tally.db")
	if cfg.Database.Path != "/tmp/tally.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Client.BaseURL != "http://127.0.0.1:5000/api" {
		t.Fatalf("unexpected base url %q", cfg.Client.BaseURL)
	}
	if cfg.Server.Bind != DefaultBind || cfg.Server.APIEndpoint != "/api" || cfg.Server.MCPEndpoint != "/mcp" {
		t.Fatalf("unexpected server defaults %#v", cfg.Server)
	}
	if cfg.Logging.DevFile.Enabled {
		t.Fatal("expected dev file logging disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if d, _ := cfg.ToastDuration(); d != 2400*time.Millisecond {
		t.Fatalf("unexpected toast duration %v", d)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/tally.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[database]
path = "/custom/tally.db"

[server]
bind = "0.0.0.0:8080"

[client]
base_url = "https://tally.example/api"
timeout = "3s"
breaker_failures = 5
breaker_cooldown = "30s"

[ui]
locale = "ru"
toast_duration = "0s"
progress_step = 10

[ui.keys]
add_backlog = "a"

[logging]
level = "debug"

[logging.dev_file]
enabled = true
dir = "/var/log/tally"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/tally.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Server.Bind != "0.0.0.0:8080" || cfg.Server.APIEndpoint != "/api" {
		t.Fatalf("unexpected server config %#v", cfg.Server)
	}
	if d, _ := cfg.ClientTimeout(); d != 3*time.Second {
		t.Fatalf("unexpected timeout %v", d)
	}
	if d, _ := cfg.BreakerCooldown(); d != 30*time.Second || cfg.Client.BreakerFailures != 5 {
		t.Fatalf("unexpected breaker config %#v", cfg.Client)
	}
	if cfg.UI.Locale != "ru" || cfg.UI.ProgressStep != 10 {
		t.Fatalf("unexpected ui config %#v", cfg.UI)
	}
	if d, _ := cfg.ToastDuration(); d != 0 {
		t.Fatalf("expected sticky toasts, got %v", d)
	}
	if cfg.UI.Keys.AddBacklog != "a" || cfg.UI.Keys.AddTodo != "t" {
		t.Fatalf("expected one key override over defaults, got %#v", cfg.UI.Keys)
	}
	if !cfg.Logging.DevFile.Enabled || cfg.Logging.DevFile.MaxSizeMB != 10 {
		t.Fatalf("unexpected dev file config %#v", cfg.Logging.DevFile)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"locale":       "[ui]\nlocale = \"fr\"\n",
		"duration":     "[client]\ntimeout = \"soon\"\n",
		"negative":     "[ui]\ntoast_duration = \"-1s\"\n",
		"base url":     "[client]\nbase_url = \"ftp://host/api\"\n",
		"step":         "[ui]\nprogress_step = 0\n",
		"log level":    "[logging]\nlevel = \"loud\"\n",
		"endpoint":     "[server]\napi_endpoint = \"api\"\n",
		"breaker":      "[client]\nbreaker_failures = 0\n",
		"malformed":    "[ui\n",
		"empty dbpath": "[database]\npath = \" \"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			if _, err := Load(path, Default("/tmp/default.db")); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}

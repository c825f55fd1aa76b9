package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Default endpoint and client values.
const (
	DefaultBind        = "127.0.0.1:5000"
	DefaultAPIEndpoint = "/api"
	DefaultMCPEndpoint = "/mcp"
	DefaultBaseURL     = "http://127.0.0.1:5000/api"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Client   ClientConfig   `toml:"client"`
	UI       UIConfig       `toml:"ui"`
	Logging  LoggingConfig  `toml:"logging"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type ServerConfig struct {
	Bind        string `toml:"bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// ClientConfig configures the TUI's HTTP client. Durations use Go syntax such as "10s".
type ClientConfig struct {
	BaseURL         string `toml:"base_url"`
	Timeout         string `toml:"timeout"`
	BreakerFailures uint32 `toml:"breaker_failures"`
	BreakerCooldown string `toml:"breaker_cooldown"`
}

type UIConfig struct {
	Locale        string    `toml:"locale"`
	ToastDuration string    `toml:"toast_duration"`
	ProgressStep  float64   `toml:"progress_step"`
	Keys          KeyConfig `toml:"keys"`
}

type KeyConfig struct {
	NewProject    string `toml:"new_project"`
	AddBacklog    string `toml:"add_backlog"`
	AddTodo       string `toml:"add_todo"`
	RemoveBacklog string `toml:"remove_backlog"`
	DeleteProject string `toml:"delete_project"`
	CopyName      string `toml:"copy_name"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

// DevFileConfig controls the rotating local log file.
type DevFileConfig struct {
	Enabled    bool   `toml:"enabled"`
	Dir        string `toml:"dir"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Server: ServerConfig{
			Bind:        DefaultBind,
			APIEndpoint: DefaultAPIEndpoint,
			MCPEndpoint: DefaultMCPEndpoint,
		},
		Client: ClientConfig{
			BaseURL:         DefaultBaseURL,
			Timeout:         "10s",
			BreakerFailures: 3,
			BreakerCooldown: "5s",
		},
		UI: UIConfig{
			Locale:        "en",
			ToastDuration: "2.4s",
			ProgressStep:  5,
			Keys: KeyConfig{
				NewProject:    "N",
				AddBacklog:    "b",
				AddTodo:       "t",
				RemoveBacklog: "x",
				DeleteProject: "D",
				CopyName:      "y",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled:    false,
				Dir:        ".tally/log",
				MaxSizeMB:  10,
				MaxBackups: 3,
			},
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind is required")
	}
	for name, endpoint := range map[string]string{
		"server.api_endpoint": c.Server.APIEndpoint,
		"server.mcp_endpoint": c.Server.MCPEndpoint,
	} {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" && !strings.HasPrefix(endpoint, "/") {
			return fmt.Errorf("%s must start with /: %q", name, endpoint)
		}
	}

	u, err := url.Parse(strings.TrimSpace(c.Client.BaseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid client.base_url: %q", c.Client.BaseURL)
	}
	if _, err := c.ClientTimeout(); err != nil {
		return err
	}
	if _, err := c.BreakerCooldown(); err != nil {
		return err
	}
	if c.Client.BreakerFailures == 0 {
		return errors.New("client.breaker_failures must be >= 1")
	}

	switch strings.ToLower(strings.TrimSpace(c.UI.Locale)) {
	case "", "en", "ru":
	default:
		return fmt.Errorf("invalid ui.locale: %q", c.UI.Locale)
	}
	if _, err := c.ToastDuration(); err != nil {
		return err
	}
	if c.UI.ProgressStep <= 0 || c.UI.ProgressStep > 100 {
		return fmt.Errorf("ui.progress_step must be in (0,100]: %v", c.UI.ProgressStep)
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.Logging.DevFile.MaxSizeMB < 0 {
		return errors.New("logging.dev_file.max_size_mb must be >= 0")
	}
	if c.Logging.DevFile.MaxBackups < 0 {
		return errors.New("logging.dev_file.max_backups must be >= 0")
	}
	return nil
}

// ClientTimeout parses client.timeout. Blank means no timeout.
func (c Config) ClientTimeout() (time.Duration, error) {
	return parseDuration("client.timeout", c.Client.Timeout)
}

// BreakerCooldown parses client.breaker_cooldown.
func (c Config) BreakerCooldown() (time.Duration, error) {
	return parseDuration("client.breaker_cooldown", c.Client.BreakerCooldown)
}

// ToastDuration parses ui.toast_duration. Zero keeps notifications until replaced.
func (c Config) ToastDuration() (time.Duration, error) {
	return parseDuration("ui.toast_duration", c.UI.ToastDuration)
}

func parseDuration(field, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must be >= 0", field)
	}
	return d, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	defaultAppName = "tally"
	devSuffix      = "-dev"
	configFileName = "config.toml"
	logDirName     = "log"
)

// Paths lists where tally keeps its config, database and logs.
type Paths struct {
	// ConfigPath is the TOML file read by `tally` and `tally serve`.
	ConfigPath string
	// DataDir holds the sqlite database and the log dir.
	DataDir string
	// DBPath is the projects database, named after the app.
	DBPath string
	// LogDir is the default home for rotated dev logs.
	LogDir string
}

// Options selects the app name and whether dev builds get their own dirs.
type Options struct {
	AppName string
	DevMode bool
}

// baseOverrides names the env vars that replace the config and data base dirs per OS.
var baseOverrides = map[string][2]string{
	"linux":   {"XDG_CONFIG_HOME", "XDG_DATA_HOME"},
	"windows": {"APPDATA", "LOCALAPPDATA"},
}

// DefaultPaths resolves the paths for a plain `tally` install.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{AppName: defaultAppName})
}

// DefaultPathsWithOptions resolves paths for this machine. Dev mode appends "-dev" to the app name.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	appName := strings.TrimSpace(opts.AppName)
	if appName == "" {
		appName = defaultAppName
	}
	if opts.DevMode {
		appName += devSuffix
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("user config dir: %w", err)
	}
	dataDir := configDir
	switch runtime.GOOS {
	case "linux":
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return Paths{}, fmt.Errorf("user home dir: %w", homeErr)
		}
		dataDir = filepath.Join(home, ".local", "share")
	case "windows":
		if v := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); v != "" {
			dataDir = v
		}
	}

	env := map[string]string{}
	for _, names := range baseOverrides {
		for _, name := range names {
			env[name] = os.Getenv(name)
		}
	}
	return PathsFor(runtime.GOOS, env, configDir, dataDir, appName)
}

// PathsFor lays out tally's files under explicit base dirs.
// macOS and other platforms keep the given bases; linux and windows honor baseOverrides.
func PathsFor(goos string, env map[string]string, userConfigDir, userDataDir, appName string) (Paths, error) {
	if userConfigDir == "" || userDataDir == "" {
		return Paths{}, fmt.Errorf("empty base dirs")
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return Paths{}, fmt.Errorf("empty app name")
	}

	configBase, dataBase := userConfigDir, userDataDir
	if names, ok := baseOverrides[goos]; ok {
		if v := env[names[0]]; v != "" {
			configBase = v
		}
		if v := env[names[1]]; v != "" {
			dataBase = v
		}
	}

	dataDir := filepath.Join(dataBase, appName)
	return Paths{
		ConfigPath: filepath.Join(configBase, appName, configFileName),
		DataDir:    dataDir,
		DBPath:     filepath.Join(dataDir, appName+".db"),
		LogDir:     filepath.Join(dataDir, logDirName),
	}, nil
}

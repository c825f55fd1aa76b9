package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/evanschultz/tally/internal/adapters/client/apiclient"
	"github.com/evanschultz/tally/internal/adapters/server"
	"github.com/evanschultz/tally/internal/adapters/server/common"
	"github.com/evanschultz/tally/internal/adapters/storage/sqlite"
	"github.com/evanschultz/tally/internal/app"
	"github.com/evanschultz/tally/internal/config"
	"github.com/evanschultz/tally/internal/platform"
	"github.com/evanschultz/tally/internal/tui"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"github.com/spf13/cobra"
)

var version = "dev"

type program interface {
	Run() (tea.Model, error)
}

// programFactory is swapped in tests so the TUI flow runs without a terminal.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveFunc is swapped in tests so serve wiring can be checked without binding a port.
var serveFunc = server.Run

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run loads .env and executes the command tree through fang.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// rootOptions holds persistent flag values shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	serverURL  string
	local      bool
}

// cliRuntime is everything a command needs once flags, env and config are resolved.
type cliRuntime struct {
	opts       rootOptions
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := rootOptions{appName: "tally", devMode: version == "dev"}
	if envApp := strings.TrimSpace(os.Getenv("TALLY_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}
	if envDev, ok := parseBoolEnv("TALLY_DEV_MODE"); ok {
		opts.devMode = envDev
	}

	root := &cobra.Command{
		Use:           "tally",
		Short:         "Track projects, backlogs and to-do progress",
		Long:          "tally keeps projects with free backlogs and to-dos that track progress per backlog.\nRun without a subcommand to open the terminal board.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withRuntime(opts, stderr, func(rt cliRuntime) error {
				return runTUI(rt)
			})
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML (env TALLY_CONFIG)")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database (env TALLY_DB_PATH)")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")
	root.Flags().StringVar(&opts.serverURL, "server", "", "API base URL (env TALLY_SERVER_URL)")
	root.Flags().BoolVar(&opts.local, "local", false, "drive the local sqlite database instead of the API")

	root.AddCommand(
		newServeCommand(&opts, stderr),
		newPathsCommand(&opts, stdout),
		newExportCommand(&opts, stdout, stderr),
		newImportCommand(&opts, stderr),
	)
	return root
}

func newServeCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and MCP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(*opts, stderr, func(rt cliRuntime) error {
				if strings.TrimSpace(bind) != "" {
					rt.cfg.Server.Bind = bind
				}
				return runServe(cmd.Context(), rt)
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address, overrides [server] bind")
	return cmd
}

func newPathsCommand(opts *rootOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data and database paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(stdout, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

func newExportCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of every project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(*opts, stderr, func(rt cliRuntime) error {
				return withService(rt, func(svc *app.Service) error {
					return runExport(cmd.Context(), svc, outPath, stdout)
				})
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

func newImportCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert projects from a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return errors.New("--in is required")
			}
			return withRuntime(*opts, stderr, func(rt cliRuntime) error {
				return withService(rt, func(svc *app.Service) error {
					return runImport(cmd.Context(), svc, inPath)
				})
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file")
	return cmd
}

// withRuntime resolves paths, env overrides, config and logging, then runs fn.
func withRuntime(opts rootOptions, stderr io.Writer, fn func(cliRuntime) error) error {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
	if err != nil {
		return err
	}

	configPath := strings.TrimSpace(opts.configPath)
	if configPath == "" {
		configPath = paths.ConfigPath
		if envPath := strings.TrimSpace(os.Getenv("TALLY_CONFIG")); envPath != "" {
			configPath = envPath
		}
	}
	dbPath := strings.TrimSpace(opts.dbPath)
	if dbPath == "" {
		dbPath = strings.TrimSpace(os.Getenv("TALLY_DB_PATH"))
	}
	dbOverridden := dbPath != ""
	if !dbOverridden {
		dbPath = paths.DBPath
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}
	if serverURL := strings.TrimSpace(opts.serverURL); serverURL != "" {
		cfg.Client.BaseURL = serverURL
	} else if envURL := strings.TrimSpace(os.Getenv("TALLY_SERVER_URL")); envURL != "" {
		cfg.Client.BaseURL = envURL
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && logger.shouldLogToSink(logger.consoleSink) {
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	logger.Info("configuration loaded", "config_path", configPath, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}
	return fn(cliRuntime{opts: opts, paths: paths, configPath: configPath, cfg: cfg, logger: logger})
}

// withService opens the sqlite repository and builds the application service around it.
func withService(rt cliRuntime, fn func(*app.Service) error) error {
	if err := config.EnsureConfigDir(rt.cfg.Database.Path); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}
	rt.logger.Info("opening sqlite repository", "db_path", rt.cfg.Database.Path)
	repo, err := sqlite.Open(rt.cfg.Database.Path)
	if err != nil {
		rt.logger.Error("sqlite open failed", "db_path", rt.cfg.Database.Path, "err", err)
		return fmt.Errorf("open sqlite repository: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			rt.logger.Warn("sqlite close failed", "db_path", rt.cfg.Database.Path, "err", closeErr)
		}
	}()
	return fn(app.NewService(repo, uuid.NewString, nil))
}

// runServe serves the REST and MCP transports until ctx is cancelled.
func runServe(ctx context.Context, rt cliRuntime) error {
	return withService(rt, func(svc *app.Service) error {
		cfg := server.Config{
			HTTPBind:      rt.cfg.Server.Bind,
			APIEndpoint:   rt.cfg.Server.APIEndpoint,
			MCPEndpoint:   rt.cfg.Server.MCPEndpoint,
			ServerName:    rt.opts.appName,
			ServerVersion: version,
		}
		rt.logger.Info("serving", "bind", cfg.HTTPBind, "api", cfg.APIEndpoint, "mcp", cfg.MCPEndpoint)
		err := serveFunc(ctx, cfg, server.Dependencies{
			Projects: common.NewAppServiceAdapter(svc),
			Logger:   rt.logger,
		})
		if err != nil {
			rt.logger.Error("server stopped with error", "err", err)
			return err
		}
		rt.logger.Info("server stopped")
		return nil
	})
}

// runTUI opens the board against the API or, with --local, against the sqlite service.
func runTUI(rt cliRuntime) error {
	toastDuration, err := rt.cfg.ToastDuration()
	if err != nil {
		return err
	}
	opts := []tui.Option{
		tui.WithLocale(rt.cfg.UI.Locale),
		tui.WithToastDuration(toastDuration),
		tui.WithProgressStep(rt.cfg.UI.ProgressStep),
		tui.WithKeyConfig(tui.KeyConfig{
			NewProject:    rt.cfg.UI.Keys.NewProject,
			AddBacklog:    rt.cfg.UI.Keys.AddBacklog,
			AddTodo:       rt.cfg.UI.Keys.AddTodo,
			RemoveBacklog: rt.cfg.UI.Keys.RemoveBacklog,
			DeleteProject: rt.cfg.UI.Keys.DeleteProject,
			CopyName:      rt.cfg.UI.Keys.CopyName,
		}),
		tui.WithLogger(rt.logger),
	}

	// The board owns the terminal; runtime logs go to the dev file only.
	rt.logger.SetConsoleEnabled(false)
	defer rt.logger.SetConsoleEnabled(true)

	if rt.opts.local {
		return withService(rt, func(svc *app.Service) error {
			rt.logger.Info("starting tui", "mode", "local")
			return runProgram(rt, tui.NewModel(localService{svc: svc}, opts...))
		})
	}

	client, err := newAPIClient(rt)
	if err != nil {
		return err
	}
	rt.logger.Info("starting tui", "mode", "api", "base_url", client.BaseURL())
	return runProgram(rt, tui.NewModel(client, opts...))
}

// newAPIClient builds the breaker-guarded HTTP client from [client] settings.
func newAPIClient(rt cliRuntime) (*apiclient.Client, error) {
	timeout, err := rt.cfg.ClientTimeout()
	if err != nil {
		return nil, err
	}
	cooldown, err := rt.cfg.BreakerCooldown()
	if err != nil {
		return nil, err
	}
	client, err := apiclient.New(apiclient.Config{
		BaseURL:         rt.cfg.Client.BaseURL,
		Timeout:         timeout,
		BreakerFailures: rt.cfg.Client.BreakerFailures,
		BreakerCooldown: cooldown,
		OnStateChange: func(name string, from, to gobreaker.State) {
			rt.logger.Warn("api breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	if err != nil {
		return nil, fmt.Errorf("configure api client: %w", err)
	}
	return client, nil
}

func runProgram(rt cliRuntime, m tui.Model) error {
	if _, err := programFactory(m).Run(); err != nil {
		rt.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	rt.logger.Info("tui closed")
	return nil
}

func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

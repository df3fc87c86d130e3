// Package cli provides the command-line interface for the chat launcher.
// It resolves the python environment, probes required modules, and delegates
// to the downstream chat script.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/paperchat/chat-launcher/internal/config"
	"github.com/paperchat/chat-launcher/internal/interp"
	"github.com/paperchat/chat-launcher/internal/launch"
	"github.com/paperchat/chat-launcher/internal/logger"
	"github.com/paperchat/chat-launcher/internal/probe"
	"github.com/paperchat/chat-launcher/internal/storage"
)

// Exit codes of the launcher itself. Any other code is whatever the
// downstream script returns.
const (
	ExitEnvironmentNotFound = 1
	ExitDependenciesMissing = 2
)

// NewApp creates and configures the main CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:           "chat-launcher",
		Usage:          "Launch the paper chat script against a validated python environment",
		Version:        "1.0.0",
		DefaultCommand: "run",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "chat-launcher.yaml",
				Usage:   "path to launcher configuration file",
				EnvVars: []string{"CHAT_LAUNCHER_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (debug, info, warn, error)",
				EnvVars: []string{"CHAT_LAUNCHER_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "log format (text, json)",
				EnvVars: []string{"CHAT_LAUNCHER_LOG_FORMAT"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Resolve the environment, probe dependencies, and launch the chat script",
				Flags:  runFlags(),
				Action: runAction,
			},
			{
				Name:   "doctor",
				Usage:  "Check the environment and report without launching anything",
				Action: doctorAction,
			},
			{
				Name:  "history",
				Usage: "Show recorded launches",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
						Usage: "maximum number of launches to show",
					},
				},
				Action: historyAction,
			},
		},
	}
}

// runFlags declares the chat invocation surface. Every flag is bound to the
// environment variable the launcher has always read, so configuration works
// without any command-line arguments. Values are forwarded verbatim.
func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "url",
			Value:   config.DefaultURL,
			Usage:   "page URL to crawl for papers",
			EnvVars: []string{"URL"},
		},
		&cli.StringFlag{
			Name:    "limit",
			Value:   "",
			Usage:   "optional paper limit; empty means no limit",
			EnvVars: []string{"LIMIT"},
		},
		&cli.StringFlag{
			Name:    "style",
			Value:   config.DefaultStyle,
			Usage:   "summary style forwarded to the chat script",
			EnvVars: []string{"STYLE"},
		},
		&cli.StringFlag{
			Name:    "best-only",
			Value:   "false",
			Usage:   "pass --best_only when exactly \"true\"",
			EnvVars: []string{"BEST_ONLY"},
		},
		&cli.StringFlag{
			Name:    "question",
			Value:   config.DefaultQuestion,
			Usage:   "the chat question to ask",
			EnvVars: []string{"QUESTION"},
		},
		&cli.StringFlag{
			Name:    "debug",
			Value:   "false",
			Usage:   "enable verbose tracing when exactly \"true\"",
			EnvVars: []string{"DEBUG"},
		},
		&cli.StringFlag{
			Name:    "interactive",
			Value:   "false",
			Usage:   "pass --interactive when exactly \"true\"",
			EnvVars: []string{"INTERACTIVE"},
		},
		&cli.StringFlag{
			Name:    "device",
			Value:   "",
			Usage:   "encoder device forwarded to the chat script, e.g. cuda",
			EnvVars: []string{"DEVICE"},
		},
	}
}

// optionsFromContext reads the chat invocation values resolved by urfave/cli
// from flags, environment variables, and defaults.
func optionsFromContext(c *cli.Context) launch.Options {
	return launch.Options{
		URL:         c.String("url"),
		Style:       c.String("style"),
		Question:    c.String("question"),
		Limit:       c.String("limit"),
		BestOnly:    c.String("best-only"),
		Interactive: c.String("interactive"),
		Device:      c.String("device"),
	}
}

// newRunLogger builds the logger for an action, forcing debug level when the
// DEBUG contract variable is "true".
func newRunLogger(c *cli.Context, debug bool) (*slog.Logger, error) {
	level := c.String("log-level")
	if debug {
		level = "debug"
	}
	return logger.New(level, c.String("log-format"))
}

// runAction implements the launcher sequence: configuration resolution,
// interpreter resolution, optional debug echo, dependency probe, argument
// assembly, and delegation.
func runAction(c *cli.Context) error {
	debug := c.String("debug") == "true"
	log, err := newRunLogger(c, debug)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	cfg, err := config.LoadOrDefault(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	in, err := interp.NewResolver().Resolve(cfg.Environment.Python, cfg.Environment.Manager, cfg.Environment.Name)
	if err != nil {
		log.Error("environment resolution failed", "error", err)
		return cli.Exit(err.Error(), ExitEnvironmentNotFound)
	}

	runner := interp.NewRealCommandRunner()

	var pythonVersion string
	if debug {
		log.Debug("interpreter resolved", "mode", in.Mode.String(), "invocation", in.Describe())
		// Version reporting is a best-effort diagnostic; failure is swallowed.
		if v, verr := in.Version(c.Context, runner); verr != nil {
			log.Debug("could not query interpreter version", "error", verr)
		} else {
			pythonVersion = v
			log.Debug("interpreter version", "version", v)
			if cerr := interp.CheckVersion(v, cfg.Environment.MinPython); cerr != nil {
				log.Warn("interpreter version check failed", "error", cerr)
			}
		}
	}

	db := openStore(cfg, log)
	if db != nil {
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				log.Warn("failed to close launch database", "error", closeErr)
			}
		}()
	}

	opts := optionsFromContext(c)
	args := opts.Args(cfg.Launch.Script)
	started := time.Now()

	missing := probe.Run(c.Context, runner, in, cfg.Environment.Modules)
	if len(missing) > 0 {
		log.Error("dependency probe failed", "missing", missing)
		recordLaunch(db, log, cfg, in, pythonVersion, args, missing, ExitDependenciesMissing, started)
		return cli.Exit(probe.MissingError(missing, cfg.Environment.Name).Error(), ExitDependenciesMissing)
	}
	log.Debug("dependency probe passed", "modules", len(cfg.Environment.Modules))

	log.Debug("launching downstream script", "script", cfg.Launch.Script, "args", args)
	code, err := launch.Delegate(c.Context, in, args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		log.Error("failed to start downstream script", "error", err)
		recordLaunch(db, log, cfg, in, pythonVersion, args, nil, code, started)
		return cli.Exit(fmt.Sprintf("failed to start %s: %v", cfg.Launch.Script, err), ExitEnvironmentNotFound)
	}

	recordLaunch(db, log, cfg, in, pythonVersion, args, nil, code, started)
	if code != 0 {
		// Propagate the child's exit code untranslated, with no extra output.
		return cli.Exit("", code)
	}
	return nil
}

// openStore opens the launch history database. Storage failures never block a
// launch; they degrade to a warning and a nil store.
func openStore(cfg *config.Config, log *slog.Logger) *storage.DB {
	if cfg.Storage.DatabasePath == "" {
		return nil
	}
	db, err := storage.InitDB(storage.Config{
		DatabasePath: cfg.Storage.DatabasePath,
		LogLevel:     "silent",
	})
	if err != nil {
		log.Warn("failed to open launch database", "path", cfg.Storage.DatabasePath, "error", err)
		return nil
	}
	return db
}

// recordLaunch persists one launch outcome. A nil store is a no-op.
func recordLaunch(db *storage.DB, log *slog.Logger, cfg *config.Config, in *interp.Interpreter,
	pythonVersion string, args []string, missing []string, exitCode int, started time.Time) {
	if db == nil {
		return
	}
	l := &storage.Launch{
		Environment:   cfg.Environment.Name,
		Mode:          in.Mode.String(),
		PythonVersion: pythonVersion,
		Script:        cfg.Launch.Script,
		ExitCode:      exitCode,
		StartedAt:     started,
		Duration:      time.Since(started).Milliseconds(),
	}
	l.SetArgs(args)
	l.SetMissingModules(missing)
	if err := db.RecordLaunch(l); err != nil {
		log.Warn("failed to record launch", "error", err)
	}
}

// doctorAction checks the environment and reports, without delegating. It
// exits with the same codes the run command would.
func doctorAction(c *cli.Context) error {
	log, err := newRunLogger(c, false)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	cfg, err := config.LoadOrDefault(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	title := cases.Title(language.English)
	fmt.Printf("# %s\n\n", title.String(cfg.Environment.Name+" environment report"))

	in, err := interp.NewResolver().Resolve(cfg.Environment.Python, cfg.Environment.Manager, cfg.Environment.Name)
	if err != nil {
		return cli.Exit(err.Error(), ExitEnvironmentNotFound)
	}
	fmt.Printf("%s: %s\n", title.String("interpreter"), in.Describe())

	runner := interp.NewRealCommandRunner()
	version, verr := in.Version(c.Context, runner)
	if verr != nil {
		log.Warn("could not query interpreter version", "error", verr)
		fmt.Printf("%s: unknown\n", title.String("version"))
	} else {
		fmt.Printf("%s: %s\n", title.String("version"), version)
		if cerr := interp.CheckVersion(version, cfg.Environment.MinPython); cerr != nil {
			return cli.Exit(cerr.Error(), ExitEnvironmentNotFound)
		}
	}

	missing := probe.Run(c.Context, runner, in, cfg.Environment.Modules)
	missingSet := make(map[string]bool, len(missing))
	for _, m := range missing {
		missingSet[m] = true
	}
	fmt.Printf("\n%s:\n", title.String("required modules"))
	for _, module := range cfg.Environment.Modules {
		status := "ok"
		if missingSet[module] {
			status = "MISSING"
		}
		fmt.Printf("  %-24s %s\n", module, status)
	}
	if len(missing) > 0 {
		return cli.Exit(probe.MissingError(missing, cfg.Environment.Name).Error(), ExitDependenciesMissing)
	}

	fmt.Printf("\n%s\n", title.String("environment is ready"))
	return nil
}

// historyAction lists recorded launches from the local database.
func historyAction(c *cli.Context) error {
	cfg, err := config.LoadOrDefault(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Storage.DatabasePath == "" {
		return fmt.Errorf("launch history is disabled: no database path configured")
	}

	db, err := storage.InitDB(storage.Config{
		DatabasePath: cfg.Storage.DatabasePath,
		LogLevel:     "silent",
	})
	if err != nil {
		return fmt.Errorf("failed to open launch database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close launch database: %v\n", closeErr)
		}
	}()

	launches, err := db.ListRecent(c.Int("limit"))
	if err != nil {
		return err
	}
	stats, err := db.GetStats()
	if err != nil {
		return err
	}

	title := cases.Title(language.English)
	fmt.Printf("# %s\n\n", title.String("launch history"))
	fmt.Printf("%s: %v total, %v successful, %v failed\n\n",
		title.String("launches"),
		stats["total_launches"], stats["successful_launches"], stats["failed_launches"])

	for _, l := range launches {
		fmt.Printf("%s  mode=%s exit=%d version=%s duration=%dms\n",
			l.StartedAt.Format(time.RFC3339), l.Mode, l.ExitCode, l.PythonVersion, l.Duration)
		if l.MissingModules != "" {
			fmt.Printf("  missing: %s\n", l.MissingModules)
		}
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/zoobzio/capitan"

	"github.com/zoobzio/levelsync"
	"github.com/zoobzio/levelsync/internal/logging"
	"github.com/zoobzio/levelsync/pkg/endpoint"
	"github.com/zoobzio/levelsync/pkg/file"
	"github.com/zoobzio/levelsync/pkg/prometheus"
	rediswatch "github.com/zoobzio/levelsync/pkg/redis"
	"github.com/zoobzio/levelsync/pkg/statushttp"
	"github.com/zoobzio/levelsync/pkg/voicemeeter"
)

// applyTimeout bounds one config apply, which restarts the session.
const applyTimeout = 10 * time.Second

type runOptions struct {
	configPath  string
	statusAddr  string
	watchConfig bool
	redisURL    string
	redisKey    string
	simulate    bool
	verbose     bool
	noBanner    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Synchronize the system volume and Voicemeeter until interrupted",
	Long: `Starts the sync session in the foreground. The session connects to the
system audio endpoint and Voicemeeter, retrying while they come up, and keeps
both levels in step until Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions{configPath: configPath(cmd)}
		opts.statusAddr, _ = cmd.Flags().GetString("status-addr")
		opts.watchConfig, _ = cmd.Flags().GetBool("watch-config")
		opts.redisURL, _ = cmd.Flags().GetString("config-redis")
		opts.redisKey, _ = cmd.Flags().GetString("config-key")
		opts.simulate, _ = cmd.Flags().GetBool("simulate")
		opts.verbose, _ = cmd.Flags().GetBool("verbose")
		opts.noBanner, _ = cmd.Flags().GetBool("no-banner")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("status-addr", "", "Serve status and control over HTTP on this address (overrides status.addr)")
	runCmd.Flags().Bool("watch-config", false, "Restart the session when the configuration file changes")
	runCmd.Flags().String("config-redis", "", "Watch configuration stored in Redis (redis://host:port/db)")
	runCmd.Flags().String("config-key", "levelsync:config", "Redis key holding the configuration")
	runCmd.Flags().Bool("simulate", false, "Use in-memory sources driven from stdin")
	runCmd.Flags().BoolP("verbose", "v", false, "Log at debug level")
	runCmd.Flags().Bool("no-banner", false, "Do not print the banner")

	// 'run' is the default command.
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}

func run(ctx context.Context, opts runOptions) error {
	con := newConsole(os.Stdout)
	if !opts.noBanner {
		con.banner()
	}

	cfg, warnings, err := levelsync.LoadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config %s unusable, using defaults: %v\n", opts.configPath, err)
	}

	logger, closer, err := logging.Open(logging.Options{
		Enabled: cfg.Logging.Enabled || opts.verbose,
		Verbose: cfg.Logging.Verbose || opts.verbose,
		File:    cfg.Logging.LogFile,
	})
	if err != nil {
		logger.Warn("log file unavailable, logging to console only", "error", err)
	}
	defer closer.Close() //nolint:errcheck // best effort on exit
	for _, w := range warnings {
		logger.Warn("config field reset to default", "error", w)
	}

	metrics := prometheus.New()
	rt := levelsync.Runtime{
		Logger:    logger,
		Metrics:   metrics,
		Presenter: levelsync.Presenters{con, levelsync.SignalPresenter{}},
	}
	hookSignals(con, opts.verbose)
	defer capitan.Shutdown()

	var sim *simulator
	factory := systemSources(logger)
	if opts.simulate {
		sim = newSimulator()
		factory = sim.sources
	}

	session := levelsync.NewSession(cfg, factory, rt).
		Loader(func() (levelsync.Config, error) {
			cfg, warnings, err := levelsync.LoadConfig(opts.configPath)
			for _, w := range warnings {
				logger.Warn("config field reset to default", "error", w)
			}
			return cfg, err
		})

	// The reloader applies its initial value before the session starts, so
	// that first apply only stores the configuration.
	if err := watchConfig(ctx, opts, session, metrics, logger); err != nil {
		return err
	}

	if err := session.Start(ctx); err != nil {
		return err
	}
	defer session.Stop(context.Background()) //nolint:errcheck // always nil

	addr := opts.statusAddr
	if addr == "" {
		addr = session.Config().Status.Addr
	}
	if addr != "" {
		h := statushttp.NewHandler(session,
			statushttp.WithMetrics(metrics.Handler()),
			statushttp.WithLogger(logger),
		)
		go func() {
			if err := statushttp.Serve(ctx, addr, h, logger); err != nil {
				logger.Error("status server failed", "addr", addr, "error", err)
			}
		}()
	}

	if sim != nil {
		go sim.repl(ctx, os.Stdin, con, session)
	}

	<-ctx.Done()
	con.Println("Shutting down...")
	return nil
}

// systemSources builds the Windows endpoint and Voicemeeter sources.
func systemSources(logger *slog.Logger) levelsync.SourceFactory {
	return func(cfg levelsync.Config) (levelsync.Source, levelsync.Source, error) {
		remote := voicemeeter.Open(cfg.Voicemeeter.DLLPath)
		target := voicemeeter.New(remote, cfg.Settings.Channels(), voicemeeter.WithLogger(logger))
		return endpoint.New(), target, nil
	}
}

// watchConfig starts a Reloader for the file or Redis key when requested.
func watchConfig(ctx context.Context, opts runOptions, session *levelsync.Session, metrics levelsync.MetricsProvider, logger *slog.Logger) error {
	var (
		watcher levelsync.Watcher
		codec   levelsync.Codec = levelsync.CodecFor(opts.configPath)
	)
	switch {
	case opts.redisURL != "":
		ropts, err := redis.ParseURL(opts.redisURL)
		if err != nil {
			return fmt.Errorf("parse --config-redis: %w", err)
		}
		watcher = rediswatch.New(redis.NewClient(ropts), opts.redisKey)
		codec = levelsync.YAMLCodec{}
	case opts.watchConfig:
		watcher = file.New(opts.configPath)
	default:
		return nil
	}

	reloader := levelsync.NewReloader(watcher,
		func(ctx context.Context, _, curr levelsync.Config) error {
			return session.Apply(ctx, curr)
		},
		levelsync.WithFilter(func(_ context.Context, req *levelsync.Request) bool {
			return req.Changed()
		}),
		levelsync.WithTimeout(applyTimeout),
		levelsync.WithBackoff(3, time.Second),
	).
		Codec(codec).
		Metrics(metrics).
		Logger(logger).
		ErrorHistorySize(8)

	if err := reloader.Start(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		// The reloader keeps watching; the session runs on the loaded file.
		logger.Warn("initial config from watcher rejected", "error", err)
	}
	return nil
}

// hookSignals prints propagations and config events on the console.
func hookSignals(con *console, verbose bool) {
	capitan.Hook(levelsync.ConfigApplied, func(_ context.Context, _ *capitan.Event) {
		con.Println("Configuration applied")
	})
	capitan.Hook(levelsync.ConfigApplyFailed, func(_ context.Context, e *capitan.Event) {
		msg, _ := levelsync.KeyError.From(e)
		con.Println("Configuration rejected:", msg)
	})
	if !verbose {
		return
	}
	capitan.Hook(levelsync.LevelPropagated, func(_ context.Context, e *capitan.Event) {
		name, _ := levelsync.KeySource.From(e)
		from, _ := levelsync.KeyFrom.From(e)
		to, _ := levelsync.KeyTo.From(e)
		con.Println(fmt.Sprintf("  %s: %s -> %s", name, from, to))
	})
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"

	"github.com/reelink/reelink/internal/ambiguous"
	"github.com/reelink/reelink/internal/catalog"
	"github.com/reelink/reelink/internal/config"
	"github.com/reelink/reelink/internal/database"
	"github.com/reelink/reelink/internal/logger"
	"github.com/reelink/reelink/internal/mediainfo"
	"github.com/reelink/reelink/internal/metadata/tmdb"
	"github.com/reelink/reelink/internal/reconcile"
	"github.com/reelink/reelink/internal/resolver"
	"github.com/reelink/reelink/internal/scheduler"
	"github.com/reelink/reelink/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	once := flag.Bool("once", false, "Run a single scan pass and exit")
	full := flag.Bool("full", false, "Make scan passes full (revisit processed folders)")
	resolve := flag.Bool("resolve", false, "Resolve pending ambiguous matches and exit")
	auto := flag.Bool("auto", false, "With -resolve: accept the first candidate without prompting")
	deprecate := flag.String("deprecate", "", "Mark a source root deprecated and exit")
	reactivate := flag.String("reactivate", "", "Mark a source root active again and exit")
	roots := flag.Bool("roots", false, "List active source roots and exit")
	flag.Parse()

	// .env is a convenience for development; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	st := store.New(db.Conn(), log.Logger)
	client := tmdb.NewClient(cfg.TMDB, log.Logger)
	res := resolver.New(client, st, cfg.Resolver.CacheSize, log.Logger)
	prober := mediainfo.NewProber(cfg.Probe.FFprobePath, log.Logger)

	rec := reconcile.New(st, res, prober, reconcile.Layout{
		SourceDir:    cfg.Library.SourceDir,
		TVDestDir:    cfg.Library.TVDestDir,
		MovieDestDir: cfg.Library.MovieDestDir,
	}, log.Logger)
	scanner := reconcile.NewScanner(st, rec, cfg.Library.SourceDir, log.Logger)
	syncer := catalog.NewSyncer(st, client, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prompter := ambiguous.NewConsolePrompter(os.Stdin, os.Stdout)
	workflow := ambiguous.NewWorkflow(st, res, rec, prompter, log.Logger)

	switch {
	case *deprecate != "":
		if err := st.MarkRootDeprecated(ctx, *deprecate); err != nil {
			log.Fatal().Err(err).Str("root", *deprecate).Msg("Failed to deprecate root")
		}
		log.Info().Str("root", *deprecate).Msg("Root deprecated")
		return

	case *reactivate != "":
		if err := st.MarkRootActive(ctx, *reactivate); err != nil {
			log.Fatal().Err(err).Str("root", *reactivate).Msg("Failed to reactivate root")
		}
		log.Info().Str("root", *reactivate).Msg("Root reactivated")
		return

	case *roots:
		active, err := st.ActiveRoots(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list roots")
		}
		printRoots(active)
		return

	case *resolve:
		if err := workflow.Run(ctx, *auto); err != nil {
			log.Fatal().Err(err).Msg("Resolution workflow failed")
		}
		return

	case *once:
		if err := scanner.Pass(ctx, !*full); err != nil {
			log.Fatal().Err(err).Msg("Scan pass failed")
		}
		return
	}

	runDaemon(ctx, cfg, log, scanner, syncer, workflow, *full)
}

// runDaemon schedules the recurring scan, catalog-sync, and optional
// auto-resolution tasks and blocks until interrupted.
func runDaemon(ctx context.Context, cfg *config.Config, log *logger.Logger, scanner *reconcile.Scanner, syncer *catalog.Syncer, workflow *ambiguous.Workflow, alwaysFull bool) {
	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}

	tasks := []scheduler.TaskConfig{
		{
			ID:          "scan",
			Name:        "Library scan",
			Description: "Quick scan of the source tree",
			Interval:    time.Duration(cfg.Scan.IntervalSeconds) * time.Second,
			RunOnStart:  true,
			Func: func(ctx context.Context) error {
				return scanner.Pass(ctx, !alwaysFull)
			},
		},
		{
			ID:          "full-scan",
			Name:        "Full library scan",
			Description: "Full scan revisiting processed folders",
			Interval:    time.Duration(cfg.Scan.FullIntervalMin) * time.Minute,
			Func: func(ctx context.Context) error {
				return scanner.Pass(ctx, false)
			},
		},
		{
			ID:          "catalog-sync",
			Name:        "Catalog sync",
			Description: "Refresh cached titles from the metadata source",
			Interval:    time.Duration(cfg.Scan.CatalogSyncIntervalMin) * time.Minute,
			RunOnStart:  true,
			Func:        syncer.Refresh,
		},
	}
	if cfg.Resolver.AutoResolve {
		tasks = append(tasks, scheduler.TaskConfig{
			ID:          "auto-resolve",
			Name:        "Auto resolution",
			Description: "Accept the first candidate of every pending ambiguous match",
			Interval:    time.Duration(cfg.Scan.FullIntervalMin) * time.Minute,
			Func: func(ctx context.Context) error {
				return workflow.Run(ctx, true)
			},
		})
	}
	for _, task := range tasks {
		if err := sched.RegisterTask(task); err != nil {
			log.Fatal().Err(err).Str("task", task.ID).Msg("Failed to register task")
		}
	}

	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	log.Info().
		Str("source", cfg.Library.SourceDir).
		Int("intervalSeconds", cfg.Scan.IntervalSeconds).
		Msg("Daemon started")

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("Scheduler shutdown failed")
	}
}

func printRoots(roots []string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Active Root"})
	for i, root := range roots {
		t.AppendRow(table.Row{i + 1, root})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

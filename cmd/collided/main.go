package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/collision/internal/config"
	"github.com/l1jgo/collision/internal/data"
	"github.com/l1jgo/collision/internal/persist"
	"github.com/l1jgo/collision/internal/scripting"
	"github.com/l1jgo/collision/internal/sim"
	"github.com/l1jgo/collision/internal/system"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(run string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             collided  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      spatial grid · tiered collision      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mrun:\033[0m %s\n\n", run)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/collided.toml"
	if p := os.Getenv("COLLIDE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Stats.RunName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Optional stats database
	var sink system.StatsSink = system.LogSink{Log: log}
	var finish func()
	if cfg.Database.Enabled {
		printSection("database")
		dbCtx, dbCancel := context.WithTimeout(ctx, 30*time.Second)
		defer dbCancel()

		db, err := persist.NewDB(dbCtx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		version, err := persist.RunMigrations(dbCtx, db.Pool)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printStat("schema version", int(version))

		repo := persist.NewStatsRepo(db)
		runID, err := repo.BeginRun(dbCtx, persist.RunInfo{
			Name:     cfg.Stats.RunName,
			CellSize: cfg.Grid.CellSize,
			Workers:  cfg.Parallel.Workers,
		})
		if err != nil {
			return fmt.Errorf("begin run: %w", err)
		}
		sink = sim.RunSink{Repo: repo, RunID: runID}
		finish = func() {
			fctx, fcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer fcancel()
			if err := repo.FinishRun(fctx, runID); err != nil {
				log.Warn("finish run", zap.Int64("run", runID), zap.Error(err))
			}
		}
		fmt.Println()
	}

	// 4. Data and scripts
	printSection("data")
	rules, err := data.LoadCollisionMatrix(cfg.Data.CollisionMatrix)
	if err != nil {
		return fmt.Errorf("load collision matrix: %w", err)
	}
	printStat("collision rules", len(rules))

	var spawnList *data.SpawnList
	if cfg.Simulation.Scenario == "spawn_list" {
		spawnList, err = data.LoadSpawnList(cfg.Data.SpawnList)
		if err != nil {
			return fmt.Errorf("load spawn list: %w", err)
		}
		printStat("spawn entries", len(spawnList.Spawns))
	}

	var scripts *scripting.Engine
	if cfg.Scripting.Enabled {
		scripts, err = scripting.NewEngine(cfg.Scripting.ScriptDir, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer scripts.Close()
		printOK("Lua scripts loaded")
	}
	fmt.Println()

	// 5. Build the world
	printSection("world")
	s, err := sim.New(ctx, cfg, log, sim.Options{Scripts: scripts, Sink: sink, Rules: rules})
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	n, err := s.Populate(spawnList)
	if err != nil {
		s.Close()
		return fmt.Errorf("populate: %w", err)
	}
	printStat("bodies", n)
	printStat("systems", s.Runner.Len())
	if s.Workers != nil {
		printStat("workers", s.Workers.Workers())
	}
	fmt.Println()

	// 6. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	printSection("running")
	printReady(fmt.Sprintf("scenario %s", cfg.Simulation.Scenario))
	printReady(fmt.Sprintf("tick %s", cfg.Simulation.TickRate))
	fmt.Println()

	stop := func(reason string) {
		s.Close()
		if finish != nil {
			finish()
		}
		log.Info("simulation stopped", zap.String("reason", reason), zap.Uint64("ticks", s.Runner.Ticks()))
	}

	for {
		select {
		case <-ticker.C:
			s.Tick(cfg.Simulation.TickRate)
			if cfg.Simulation.MaxTicks > 0 && s.Runner.Ticks() >= cfg.Simulation.MaxTicks {
				stop("max ticks")
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			cancel()
			stop("signal")
			return nil
		}
	}
}

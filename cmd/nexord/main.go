package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantumnex/nexord/internal/agent"
	"github.com/quantumnex/nexord/internal/config"
	"github.com/quantumnex/nexord/internal/coordination"
	"github.com/quantumnex/nexord/internal/executor"
	"github.com/quantumnex/nexord/internal/health"
	"github.com/quantumnex/nexord/internal/natsbus"
	"github.com/quantumnex/nexord/internal/orchestrator"
	"github.com/quantumnex/nexord/internal/scheduler"
	"github.com/quantumnex/nexord/internal/store"
	"github.com/quantumnex/nexord/internal/trust"
	"github.com/quantumnex/nexord/internal/web"
)

var version = "dev"

// pruners fans the monitor's prune tick out to every rolling history.
type pruners []health.Pruner

func (p pruners) Prune(now time.Time) {
	for _, x := range p {
		x.Prune(now)
	}
}

type historyPruner struct {
	store     *store.Store
	retention time.Duration
}

func (h historyPruner) Prune(now time.Time) {
	retention := h.retention
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	if err := h.store.PruneTaskHistory(now.Add(-retention)); err != nil {
		slog.Error("failed to prune task history", "error", err)
	}
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("nexord %s\n", version)
	case "daemon":
		if err := runDaemon(); err != nil {
			slog.Error("daemon failed", "error", err)
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: nexord <command>\n\nCommands:\n  daemon     Start the Nexord orchestration daemon\n  version    Print version\n")
}

func runDaemon() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("starting nexord daemon", "version", version, "mode", cfg.Orchestrator.Mode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SQLite store
	db, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()
	slog.Info("store initialized", "path", cfg.Store.Path)

	// Embedded NATS
	bus, err := natsbus.New(cfg.NATS)
	if err != nil {
		return fmt.Errorf("init nats: %w", err)
	}
	defer bus.Close()
	slog.Info("nats started", "port", bus.Port())

	events, err := natsbus.NewClient(bus)
	if err != nil {
		return fmt.Errorf("connect nats client: %w", err)
	}
	defer events.Close()

	// Trust ledger and agent registry
	ledger := trust.NewLedger()
	reg := agent.NewRegistry(cfg.Limits, ledger)
	for _, def := range cfg.Agents {
		id, err := reg.Create(def.Type, def.Capabilities)
		if err != nil {
			return fmt.Errorf("create agent %q: %w", def.Type, err)
		}
		slog.Info("agent registered", "id", id, "type", def.Type)
	}

	// Orchestrator with the simulated executor
	exec := executor.NewSimulated(cfg.Orchestrator.Seed, 0.9)
	orch, err := orchestrator.New(reg, ledger, exec, db, events, cfg.Orchestrator)
	if err != nil {
		return fmt.Errorf("init orchestrator: %w", err)
	}
	defer orch.Shutdown()

	// Coordinator
	provider := coordination.NewSimulatedProvider(cfg.Orchestrator.Seed, 2*time.Second)
	coord := coordination.NewCoordinator(reg, provider, db, events,
		cfg.Coordination.Window, cfg.Coordination.MaxHistory, cfg.Coordination.Retention)

	// Health monitor
	mon := health.NewMonitor(reg, orch, cfg.Health)
	mon.SetPruner(pruners{coord, historyPruner{db, cfg.Coordination.Retention}})
	mon.SetEvents(events)
	if err := mon.SubscribeHeartbeats(events); err != nil {
		return fmt.Errorf("subscribe heartbeats: %w", err)
	}
	go mon.Start(ctx)

	// Scheduler
	sched := scheduler.New(db, orch, cfg.Scheduler)
	go sched.Start(ctx)

	// Web admin surface
	if cfg.Web.Enabled {
		srv := web.NewServer(db, events, orch, reg, coord, sched, cfg.Web, version)
		go func() {
			if err := srv.Start(ctx); err != nil {
				slog.Error("web server error", "error", err)
			}
		}()
		slog.Info("web server started", "port", cfg.Web.Port)
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig)
	cancel()

	return nil
}

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/reflex/internal/behavior"
	"github.com/dohr-michael/reflex/internal/config"
	"github.com/dohr-michael/reflex/internal/events"
	"github.com/dohr-michael/reflex/internal/gateway"
	"github.com/dohr-michael/reflex/internal/heartbeat"
	"github.com/dohr-michael/reflex/internal/journal"
	"github.com/dohr-michael/reflex/internal/sim"
	"github.com/dohr-michael/reflex/internal/storage"
)

// NewRunCommand returns the run subcommand.
func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Start the reflex daemon: world, controller and gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
			&cli.StringFlag{
				Name:  "scenario",
				Usage: "Scenario YAML path",
			},
		},
		Action: runDaemon,
	}
}

func runDaemon(_ context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Warn("config not found, using defaults", "path", configPath, "error", err)
		cfg = config.Default()
	}
	setupLogging(cmd, cfg.Events.LogLevel)

	// CLI flags override config
	if cmd.IsSet("host") {
		cfg.Gateway.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Gateway.Port = cmd.Int("port")
	}
	if cmd.IsSet("scenario") {
		cfg.World.Scenario = cmd.String("scenario")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Event bus
	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()

	// World from scenario
	scenario, err := sim.LoadScenario(cfg.World.Scenario)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	w, err := sim.New(sim.Config{Scenario: scenario, Bus: bus, Seed: cfg.World.Seed})
	if err != nil {
		return fmt.Errorf("init world: %w", err)
	}
	skills := sim.NewSkillSet(w, sim.SkillsConfig{Speed: cfg.World.Speed})

	// Outcome journal
	store, err := journal.Open(resolvePath(cfg.Journal.Path))
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	// Executor runs actions in the world sandbox and records outcomes
	executor, err := behavior.NewExecutor(behavior.ExecutorConfig{
		Runner:  sim.NewRunner(w),
		Bus:     bus,
		Journal: store,
	})
	if err != nil {
		return fmt.Errorf("init executor: %w", err)
	}

	registry, err := behavior.BuiltinRegistry(builtinConfig(cfg.Modes), w)
	if err != nil {
		return fmt.Errorf("init modes: %w", err)
	}

	ctrl, err := behavior.New(behavior.ControllerConfig{
		Registry:  registry,
		Agent:     w,
		Sensor:    w,
		Skills:    skills,
		Executor:  executor,
		Bus:       bus,
		Interval:  cfg.TickInterval.Duration(),
		PauseWarn: cfg.PauseWarn.Duration(),
	})
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}

	// On-disk event log
	eventLog, err := storage.NewEventLog(resolvePath(cfg.EventLog.Path), cfg.EventLog.MaxSizeMB, bus)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer eventLog.Close()

	// Gateway server
	server, err := gateway.NewServer(gateway.ServerConfig{
		Bus:        bus,
		Controller: ctrl,
		Tasks:      w,
		Journal:    store,
		Host:       cfg.Gateway.Host,
		Port:       cfg.Gateway.Port,
	})
	if err != nil {
		return fmt.Errorf("init gateway: %w", err)
	}

	// Heartbeat file for `reflex status`
	hb := heartbeat.NewWriter(resolvePath(cfg.Heartbeat.Path), cfg.Heartbeat.Interval.Duration(),
		func() (uint64, string) {
			return ctrl.Ticks(), ctrl.ActiveMode()
		})
	hb.Start()
	defer hb.Stop()

	// World clock
	go stepLoop(ctx, w, cfg.World.StepInterval.Duration())

	// Tick loop
	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("start controller: %w", err)
	}
	defer ctrl.Stop()

	slog.Info("reflex running",
		"scenario", scenario.Name,
		"modes", registry.Len(),
		"tick", cfg.TickInterval.Duration())

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for signal or error
	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// setupLogging configures slog from the config level; --debug wins.
func setupLogging(cmd *cli.Command, level string) {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if cmd.Bool("debug") {
		lvl = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// stepLoop advances the world clock until ctx is done.
func stepLoop(ctx context.Context, w *sim.World, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			w.Step(now.Sub(last))
			last = now
		}
	}
}

// resolvePath anchors relative data paths under the reflex home directory.
func resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(config.ReflexPath(), p)
}

// builtinConfig maps the file config onto the mode set's tuning knobs.
func builtinConfig(mc config.ModesConfig) behavior.BuiltinConfig {
	return behavior.BuiltinConfig{
		SelfPreservation: behavior.SelfPreservationConfig{
			HazardKinds: mc.SelfPreservation.HazardKinds,
			Radius:      mc.SelfPreservation.Radius,
			EscapeDist:  mc.SelfPreservation.EscapeDist,
			Timeout:     mc.SelfPreservation.Timeout.Duration(),
		},
		Unstuck: behavior.UnstuckConfig{
			Epsilon: mc.Unstuck.Epsilon,
			Window:  mc.Unstuck.Window.Duration(),
			Timeout: mc.Unstuck.Timeout.Duration(),
		},
		Cowardice: behavior.CowardiceConfig{
			Patterns:  mc.Cowardice.Patterns,
			Radius:    mc.Cowardice.Radius,
			MinHealth: mc.Cowardice.MinHealth,
			Timeout:   mc.Cowardice.Timeout.Duration(),
		},
		SelfDefense: behavior.SelfDefenseConfig{
			Patterns: mc.SelfDefense.Patterns,
			Radius:   mc.SelfDefense.Radius,
			Timeout:  mc.SelfDefense.Timeout.Duration(),
		},
		Hunting: behavior.HuntingConfig{
			Patterns: mc.Hunting.Patterns,
			Radius:   mc.Hunting.Radius,
			Timeout:  mc.Hunting.Timeout.Duration(),
		},
		ItemCollecting: behavior.ItemCollectingConfig{
			Patterns: mc.ItemCollecting.Patterns,
			Radius:   mc.ItemCollecting.Radius,
			Dwell:    mc.ItemCollecting.Dwell.Duration(),
			Timeout:  mc.ItemCollecting.Timeout.Duration(),
		},
		TorchPlacing: behavior.TorchPlacingConfig{
			Radius:   mc.TorchPlacing.Radius,
			Interval: mc.TorchPlacing.Interval.Duration(),
			Timeout:  mc.TorchPlacing.Timeout.Duration(),
		},
		IdleStaring: behavior.IdleStaringConfig{
			Radius:       mc.IdleStaring.Radius,
			SwitchChance: mc.IdleStaring.SwitchChance,
			MinDwell:     mc.IdleStaring.MinDwell.Duration(),
			MaxDwell:     mc.IdleStaring.MaxDwell.Duration(),
			Seed:         mc.IdleStaring.Seed,
		},
		Enabled: mc.Enabled,
	}
}

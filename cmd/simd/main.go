// cmd/simd/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/opd-ai/go-broadphase/pkg/config"
	"github.com/opd-ai/go-broadphase/pkg/event"
	"github.com/opd-ai/go-broadphase/pkg/health"
	"github.com/opd-ai/go-broadphase/pkg/inspect"
	"github.com/opd-ai/go-broadphase/pkg/logging"
	"github.com/opd-ai/go-broadphase/pkg/scene"
	"github.com/opd-ai/go-broadphase/pkg/simulation"
	"github.com/opd-ai/go-broadphase/pkg/validation"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "config.json", "Path to configuration file (.json, .yaml or .yml)")
	createDefault := flag.Bool("default", false, "Create default configuration file")
	preset := flag.String("preset", "", "World preset to apply over the configuration")
	scenePath := flag.String("scene", "", "Scene file to load into the world")
	flag.Parse()

	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", *configPath,
		)
		return
	}

	simConfig, err := loadConfig(*configPath, *preset, logger)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err,
			"config_path", *configPath,
		)
		os.Exit(1)
	}

	env, err := config.LoadConfigFromEnv()
	if err != nil {
		logger.Error(ctx, "Failed to read environment configuration", err)
		os.Exit(1)
	}

	world := simulation.NewWorld(simConfig)
	world.SetLogger(logger.Component("simulation"))

	if *scenePath != "" {
		sc, err := scene.Load(*scenePath)
		if err != nil {
			logger.Error(ctx, "Failed to load scene", err, "scene_path", *scenePath)
			os.Exit(1)
		}
		ids, err := sc.Apply(world)
		if err != nil {
			logger.Error(ctx, "Failed to apply scene", err, "scene", sc.Name)
			os.Exit(1)
		}
		logger.Info(ctx, "Scene loaded", "scene", sc.Name, "bodies", len(ids))
	}

	world.EventBus.Subscribe(event.PoolOverflow, func(e event.Event) {
		if ov, ok := e.(*event.PoolOverflowEvent); ok {
			logger.Warn(ctx, "Quadtree node pool overflowed",
				"group", ov.Group,
				"overflow_nodes", ov.Stats.Overflow,
				"streak", ov.Stats.OverflowStreak,
			)
		}
	})

	var inspector *inspect.Server
	if simConfig.Inspector.Enabled {
		inspector = inspect.NewServer(world, simConfig.Inspector)
		inspector.SetLogger(logger.Component("inspect"))
		inspector.SetBreakerSettings(inspect.BreakerSettingsFromEnv(env))
		inspector.SetWriteTimeout(env.WriteTimeout)

		addr := net.JoinHostPort(simConfig.Inspector.Address, strconv.Itoa(simConfig.Inspector.Port))
		if err := inspector.Start(addr); err != nil {
			logger.Error(ctx, "Failed to start inspector", err, "address", addr)
			os.Exit(1)
		}
		logger.Info(ctx, "Inspector listening",
			"address", inspector.ListenerAddress(),
			"max_clients", simConfig.Inspector.MaxClients,
		)
	}

	healthChecker := health.NewHealthChecker()
	healthChecker.AddCheck(health.NewSimulationHealthCheck(world.Running))
	healthChecker.AddCheck(health.NewPoolHealthCheck(world.AllGroupStats, simConfig.Health.OverflowStreakLimit))
	healthChecker.AddCheck(health.NewMemoryHealthCheck(int64(env.MaxMemoryMB), nil))
	if inspector != nil {
		healthChecker.AddCheck(health.NewInspectorHealthCheck(inspector.ListenerAddress))
	}

	healthServer := &http.Server{
		Addr:         ":" + strconv.Itoa(simConfig.Health.Port),
		Handler:      healthChecker.Handler(),
		ReadTimeout:  env.ReadTimeout,
		WriteTimeout: env.WriteTimeout,
	}

	go func() {
		logger.Info(ctx, "Starting health check server",
			"port", simConfig.Health.Port,
		)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Health check server failed", err)
		}
	}()

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting simulation",
		"time_step", simConfig.TimeStep,
		"groups", len(simConfig.Groups),
		"bodies", world.BodyCount(),
	)
	if err := world.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(ctx, "Simulation stopped unexpectedly", err)
	}

	logger.Info(ctx, "Shutting down", "tick", world.Tick())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.ShutdownTimeout)
	defer cancel()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Health check server shutdown failed", err)
	}
	if inspector != nil {
		if err := inspector.Close(); err != nil {
			logger.Error(ctx, "Inspector shutdown failed", err)
		}
	}
}

// loadConfig reads path, or the defaults when it does not exist, then applies
// the preset and BROADPHASE_* overrides and validates the result.
func loadConfig(path, preset string, logger *logging.Logger) (*config.SimulationConfig, error) {
	var cfg *config.SimulationConfig

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info(context.Background(), "Configuration file not found, using default configuration",
			"config_path", path,
		)
		cfg = config.DefaultConfig()
	} else {
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	if preset != "" {
		if err := config.ApplyPreset(cfg, preset); err != nil {
			return nil, err
		}
	}
	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	if err := validation.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Package app wires the monitoring subsystems together for the serve
// and top commands.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mlrig/hwmon/internal/config"
	"github.com/mlrig/hwmon/internal/domain"
	"github.com/mlrig/hwmon/internal/envcheck"
	"github.com/mlrig/hwmon/internal/hub"
	"github.com/mlrig/hwmon/internal/inventory"
	"github.com/mlrig/hwmon/internal/probe"
	"github.com/mlrig/hwmon/internal/publisher"
	"github.com/mlrig/hwmon/internal/sampler"
	"github.com/mlrig/hwmon/internal/server"
	"github.com/mlrig/hwmon/internal/storage"
	"github.com/mlrig/hwmon/internal/tui"
)

const shutdownTimeout = 5 * time.Second

// App owns the sampling pipeline and the surfaces attached to it.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	sampler *sampler.Sampler
	hub     *hub.Hub
	gpu     *probe.GPUProbe
	checker *envcheck.Checker
	server  *server.Server
	pub     *publisher.Publisher
	store   *storage.Store
}

// New creates and wires all subsystems. The GPU probe is shared between
// the sampler and the inventory endpoint so NVML is initialized once.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	if cfg.AgentID == "" {
		id, err := store.AgentID()
		if err != nil {
			return nil, fmt.Errorf("agent id: %w", err)
		}
		cfg.AgentID = id
	}

	probes := []probe.Probe{
		probe.NewCPUProbe(),
		probe.NewMemoryProbe(),
		probe.NewDiskProbe(),
		probe.NewNetworkProbe(),
	}
	var gpu *probe.GPUProbe
	if !cfg.DisableGPU {
		gpu = probe.NewGPUProbe()
		probes = append(probes, gpu)
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		sampler: sampler.New(cfg.Interval, probes, logger),
		hub:     hub.New(cfg.ClientBuffer, cfg.MaxMissedTicks, logger),
		gpu:     gpu,
		checker: envcheck.NewChecker(envcheck.NewCommander(), logger),
		store:   store,
	}

	api := server.NewAPI(a.sampler, a.hub, a.collectInventory, store.LoadInventory, a.checker.Run, config.Version, logger)
	a.server = server.NewServer(cfg.Addr(), api, logger)

	if cfg.CollectorURL != "" {
		a.pub = publisher.New(cfg.CollectorURL, cfg.CollectorKey, cfg.AgentID, logger)
	}

	return a, nil
}

func (a *App) collectInventory(ctx context.Context) domain.Inventory {
	if a.gpu == nil {
		return inventory.Collect(ctx, nil)
	}
	return inventory.Collect(ctx, a.gpu)
}

// Serve runs the full pipeline: sampler, fan-out hub, HTTP server and
// the optional remote publisher. It blocks until the context is
// cancelled or the server fails.
func (a *App) Serve(ctx context.Context) error {
	a.sampler.Notify(a.hub.Publish)
	go a.sampler.Run(ctx)

	// Record the hardware state at startup so it is inspectable later
	// even if the machine changes or goes down.
	go func() {
		inv := a.collectInventory(ctx)
		if err := a.store.SaveInventory(inv); err != nil {
			a.logger.Warn("failed to persist inventory", "err", err)
		}
	}()

	if a.pub != nil {
		go a.pub.Run(ctx, a.hub.Subscribe())
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Run()
	}()

	a.logger.Info("agent ready",
		"version", config.Version,
		"agent_id", a.cfg.AgentID,
		"addr", a.cfg.Addr(),
		"interval", a.cfg.Interval.String(),
	)

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
		return a.shutdown()
	case err := <-errCh:
		a.close()
		return fmt.Errorf("http server: %w", err)
	}
}

// Top runs the sampler with the terminal view attached and no network
// surfaces.
func (a *App) Top(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.close()

	go a.sampler.Run(ctx)
	return tui.Run(ctx, a.sampler)
}

// Checker exposes the environment validation suite for the check
// command.
func (a *App) Checker() *envcheck.Checker { return a.checker }

// Inventory collects the hardware catalogue for the inventory command.
func (a *App) Inventory(ctx context.Context) domain.Inventory {
	return a.collectInventory(ctx)
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(ctx)
	a.close()
	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (a *App) close() {
	a.hub.Close()
	if a.gpu != nil {
		a.gpu.Close()
	}
}

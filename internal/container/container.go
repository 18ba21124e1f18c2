package container

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"gosynth/adapters/excel"
	"gosynth/adapters/memory"
	"gosynth/adapters/postgres"
	"gosynth/adapters/report"
	"gosynth/adapters/rng"
	"gosynth/adapters/scoring/heuristic"
	"gosynth/adapters/stats/engine"
	"gosynth/app"
	"gosynth/internal"
	"gosynth/internal/config"
	"gosynth/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Ports (adapter layer)
	RNG         ports.RNGPort
	Scorer      ports.ResponseScorer
	Diagnostics ports.DiagnosticsPort
	Ledger      ports.RunLedgerPort

	// Application services
	Simulation *app.SimulationService

	// Exporters
	ExcelWriter *excel.SummaryWriter
	Reporter    *report.Renderer
}

// New creates a dependency injection container wired against the in-memory
// run ledger. Call InitWithDatabase to switch persistence to postgres.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: internal.NewDefaultLogger(),
	}

	c.initAdapters()
	c.Ledger = memory.NewAdapter()
	c.buildServices()

	return c, nil
}

// InitWithDatabase swaps the run ledger onto a postgres connection and
// rebuilds the services that depend on it
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	// Test database connection
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	ledger := postgres.NewRunLedger(db)
	if err := ledger.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize run ledger: %w", err)
	}
	c.Ledger = ledger
	c.buildServices()

	log.Printf("Container initialized with postgres run ledger")
	return nil
}

// initAdapters wires the driven adapters behind their ports
func (c *Container) initAdapters() {
	c.RNG = rng.NewAdapter()
	c.Scorer = heuristic.NewScorer()
	c.Diagnostics = engine.NewEngine(engine.Config{
		DeadVarianceSD: c.Config.Diagnostics.DeadVarianceSD,
		WeakEffectD:    c.Config.Diagnostics.WeakEffectD,
		PowerAlpha:     c.Config.Diagnostics.PowerAlpha,
		PowerTarget:    c.Config.Diagnostics.PowerTarget,
	})
	c.ExcelWriter = excel.NewSummaryWriter()
	c.Reporter = report.NewRenderer()
}

// buildServices constructs the application services on the current ports
func (c *Container) buildServices() {
	c.Simulation = app.NewSimulationService(app.SimulationDeps{
		RNG:         c.RNG,
		Scorer:      c.Scorer,
		Diagnostics: c.Diagnostics,
		Ledger:      c.Ledger,
		Logger:      c.Logger.Named("simulation"),
	}, app.SimulationOptions{
		Workers:         c.Config.Simulation.Workers,
		SampleResponses: c.Config.Simulation.SampleResponses,
	})
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

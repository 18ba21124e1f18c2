package testkit

import (
	"gosynth/adapters/memory"
	"gosynth/adapters/rng"
	"gosynth/adapters/scoring/heuristic"
	"gosynth/adapters/stats/engine"
	"gosynth/app"
	"gosynth/internal"
	"gosynth/ports"
)

// TestKit provides wired adapters and fixtures for simulator tests
type TestKit struct {
	ledger *memory.Adapter
}

// NewTestKit creates a test kit with a fresh in-memory ledger
func NewTestKit() *TestKit {
	return &TestKit{ledger: memory.NewAdapter()}
}

// RNGAdapter returns the deterministic stream factory
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return rng.NewAdapter()
}

// Scorer returns the heuristic response scorer
func (t *TestKit) Scorer() ports.ResponseScorer {
	return heuristic.NewScorer()
}

// Diagnostics returns a diagnostics engine with default thresholds
func (t *TestKit) Diagnostics() ports.DiagnosticsPort {
	return engine.NewEngine(engine.DefaultConfig())
}

// Ledger returns the shared in-memory run ledger
func (t *TestKit) Ledger() ports.RunLedgerPort {
	return t.ledger
}

// SimulationService returns a fully wired service backed by the kit's
// adapters, logging errors only
func (t *TestKit) SimulationService(opts app.SimulationOptions) *app.SimulationService {
	return app.NewSimulationService(app.SimulationDeps{
		RNG:         t.RNGAdapter(),
		Scorer:      t.Scorer(),
		Diagnostics: t.Diagnostics(),
		Ledger:      t.ledger,
		Logger:      internal.NewLogger(internal.LogLevelError),
	}, opts)
}

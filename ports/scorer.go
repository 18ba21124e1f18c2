package ports

import (
	"context"
	"math/rand"

	"gosynth/domain/persona"
	"gosynth/domain/simulation"
	"gosynth/domain/study"
)

// ResponseScorer computes one synthetic response per (persona, stimulus)
// pair: a score for every measure plus one free-text answer. The context
// lets a future model-backed scorer make real out-of-process calls without
// changing the orchestrator's loop structure; the heuristic scorer is pure
// in-memory arithmetic.
type ResponseScorer interface {
	// SimulateResponse scores every measure for one persona/stimulus pair.
	// All randomness must come from the supplied stream so runs stay
	// reproducible and per-participant streams can execute in parallel.
	SimulateResponse(ctx context.Context, p persona.Persona, stimulus study.StimulusItem, measures []study.Measure, rng *rand.Rand) (simulation.SyntheticResponse, error)

	// Mode names the scoring strategy (e.g. "independent") for audit trails
	Mode() string
}

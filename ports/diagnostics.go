package ports

import (
	"context"

	"gosynth/domain/simulation"
	"gosynth/domain/study"
)

// DiagnosticsPort analyzes a simulated participant set for design quality
// issues: per-condition descriptives, dead variables, weak effects, and
// pairwise effect-size estimates. Implementations must be total over valid
// input: an empty participant set yields empty aggregates, never an error.
type DiagnosticsPort interface {
	ComputeDiagnostics(ctx context.Context, participants []simulation.SyntheticParticipant, design *study.ExperimentDesign) (simulation.Diagnostics, error)
}

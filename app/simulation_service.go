package app

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"gosynth/domain/core"
	"gosynth/domain/persona"
	"gosynth/domain/simulation"
	"gosynth/domain/study"
	"gosynth/internal"
	"gosynth/internal/errors"
	"gosynth/ports"
)

// Stream names for seed derivation. Changing these changes every run's
// draws, so they are fixed identifiers, not display strings.
const (
	stagePersonas   = "personas"
	stageAssignment = "assignment"
	stageScoring    = "scoring"
	stageSampling   = "sampling"

	keyPersonaPool = "pool"
	keyConditions  = "conditions"
	keyResponses   = "responses"
)

// SimulationService orchestrates one simulation run: persona generation,
// condition assignment, response scoring, diagnostics, and the summary
type SimulationService struct {
	rng         ports.RNGPort
	scorer      ports.ResponseScorer
	diagnostics ports.DiagnosticsPort
	ledger      ports.RunLedgerWriterPort
	logger      *internal.Logger
	opts        SimulationOptions
}

// SimulationDeps bundles the ports the service needs
type SimulationDeps struct {
	RNG         ports.RNGPort
	Scorer      ports.ResponseScorer
	Diagnostics ports.DiagnosticsPort
	Ledger      ports.RunLedgerWriterPort // optional, nil disables persistence
	Logger      *internal.Logger
}

// SimulationOptions tunes a run without touching its semantics. Worker count
// never changes output: participant streams derive from the base seed, not
// from execution order.
type SimulationOptions struct {
	Workers         int // parallel participant scoring, 1 = sequential
	SampleResponses int // free-text sample cap carried into the summary
}

// DefaultSimulationOptions returns sequential scoring with the standard
// sample cap
func DefaultSimulationOptions() SimulationOptions {
	return SimulationOptions{Workers: 1, SampleResponses: 10}
}

// RunRequest defines the inputs for one deterministic simulation run
type RunRequest struct {
	Design  *study.ExperimentDesign
	Stimuli []study.StimulusItem
	Seed    int64
	RunID   core.RunID // optional, generated if empty
}

// NewSimulationService creates a simulation service
func NewSimulationService(deps SimulationDeps, opts SimulationOptions) *SimulationService {
	if deps.Logger == nil {
		deps.Logger = internal.DefaultLogger
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.SampleResponses < 0 {
		opts.SampleResponses = 0
	}
	return &SimulationService{
		rng:         deps.RNG,
		scorer:      deps.Scorer,
		diagnostics: deps.Diagnostics,
		ledger:      deps.Ledger,
		logger:      deps.Logger,
		opts:        opts,
	}
}

// Simulate executes a full run. The same request with the same seed always
// produces a byte-identical summary.
func (s *SimulationService) Simulate(ctx context.Context, req RunRequest) (*simulation.RunResult, error) {
	startedAt := core.Now()

	if req.Design == nil {
		return nil, errors.WithCode(errors.CodeValidationError, core.ErrDesignMissing)
	}
	if len(req.Stimuli) == 0 {
		return nil, errors.WithCode(errors.CodeValidationError, core.ErrNoStimuli)
	}

	runID := req.RunID
	if runID == "" {
		runID = core.RunID(core.NewID())
	}

	design := req.Design
	population := design.PlannedPopulation()
	audit := make([]simulation.AuditEntry, 0, 4)

	s.logger.Info("Starting run %s: %d participants, %d stimuli, seed %d",
		runID, population, len(req.Stimuli), req.Seed)

	// Stage 1: persona pool
	personaStream, err := s.rng.Stream(ctx, stagePersonas, keyPersonaPool, req.Seed)
	if err != nil {
		return nil, errors.SimulationFailed("persona generation", err)
	}
	personas := persona.NewGenerator(personaStream).Generate(population, design)
	audit = append(audit, simulation.NewAudit(simulation.AuditInfo,
		fmt.Sprintf("Generated %d persona templates", len(personas))))

	// Stage 2: condition assignment. Between-subjects draws one condition per
	// participant on a dedicated stream; within and mixed designs expose every
	// participant to all stimuli.
	assignments := make([]core.ConditionID, population)
	if design.DesignType == study.DesignBetweenSubjects {
		assignStream, err := s.rng.Stream(ctx, stageAssignment, keyConditions, req.Seed)
		if err != nil {
			return nil, errors.SimulationFailed("condition assignment", err)
		}
		for i := range assignments {
			assignments[i] = design.Conditions[assignStream.Intn(len(design.Conditions))].ID
		}
	}

	// Stage 3: score every participant
	participants, err := s.scoreParticipants(ctx, req, personas, assignments)
	if err != nil {
		return nil, errors.SimulationFailed("response scoring", err)
	}
	audit = append(audit, simulation.NewAudit(simulation.AuditInfo,
		fmt.Sprintf("Simulated %d participants", len(participants))))

	// Stage 4: diagnostics
	diag, err := s.diagnostics.ComputeDiagnostics(ctx, participants, design)
	if err != nil {
		return nil, errors.SimulationFailed("diagnostics", err)
	}

	// Stage 5: summary and fingerprint
	summary, err := s.buildSummary(ctx, req.Seed, participants, diag)
	if err != nil {
		return nil, errors.SimulationFailed("summary assembly", err)
	}
	fingerprint, err := summary.Fingerprint()
	if err != nil {
		return nil, errors.SimulationFailed("summary assembly", err)
	}

	audit = append(audit, simulation.NewAudit(simulation.AuditInfo,
		fmt.Sprintf("Simulation complete: %d dead vars, %d weak effects detected",
			len(summary.DeadVars), len(summary.WeakEffects)),
	).WithDetails(map[string]interface{}{
		"fingerprint":  fingerprint.String(),
		"scoring_mode": s.scorer.Mode(),
	}))

	result := &simulation.RunResult{
		RunID:        runID,
		Seed:         req.Seed,
		Population:   population,
		DesignType:   design.DesignType,
		ScoringMode:  s.scorer.Mode(),
		Participants: participants,
		Diagnostics:  diag,
		Summary:      summary,
		Fingerprint:  core.Hash(fingerprint),
		Audit:        audit,
		StartedAt:    startedAt,
		CompletedAt:  core.Now(),
	}

	if s.ledger != nil {
		if err := s.ledger.StoreRun(ctx, result); err != nil {
			return nil, errors.Wrap(err, "failed to store run in ledger")
		}
	}

	s.logger.Info("Run %s complete: %d dead vars, %d weak effects, fingerprint %s",
		runID, len(summary.DeadVars), len(summary.WeakEffects), shortHash(result.Fingerprint))

	return result, nil
}

// scoreParticipants runs the scoring loop, sequentially or fanned out under
// a weighted semaphore
func (s *SimulationService) scoreParticipants(ctx context.Context, req RunRequest, personas []persona.Persona, assignments []core.ConditionID) ([]simulation.SyntheticParticipant, error) {
	participants := make([]simulation.SyntheticParticipant, len(personas))

	if s.opts.Workers <= 1 {
		for i := range personas {
			p, err := s.scoreOne(ctx, req, i, personas[i], assignments[i])
			if err != nil {
				return nil, err
			}
			participants[i] = p
		}
		return participants, nil
	}

	sem := semaphore.NewWeighted(int64(s.opts.Workers))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := range personas {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)

			p, err := s.scoreOne(ctx, req, i, personas[i], assignments[i])
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			participants[i] = p
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return participants, nil
}

// scoreOne simulates one participant on its own derived stream
func (s *SimulationService) scoreOne(ctx context.Context, req RunRequest, index int, p persona.Persona, assigned core.ConditionID) (simulation.SyntheticParticipant, error) {
	id := core.ParticipantIDAt(index)

	stream, err := s.rng.Stream(ctx, stageScoring, id.String(), req.Seed)
	if err != nil {
		return simulation.SyntheticParticipant{}, err
	}

	stimuli := req.Stimuli
	if req.Design.DesignType == study.DesignBetweenSubjects {
		stimuli = study.StimuliForCondition(req.Stimuli, assigned)
	}

	responses := make([]simulation.SyntheticResponse, 0, len(stimuli))
	for _, stim := range stimuli {
		resp, err := s.scorer.SimulateResponse(ctx, p, stim, req.Design.Measures, stream)
		if err != nil {
			return simulation.SyntheticParticipant{}, fmt.Errorf("scoring stimulus %s for %s: %w", stim.ID, id, err)
		}
		responses = append(responses, resp)
	}

	return simulation.SyntheticParticipant{
		ID:                id,
		Persona:           p,
		AssignedCondition: assigned,
		Responses:         responses,
	}, nil
}

// buildSummary projects diagnostics into the downstream artifact and draws
// the free-text sample
func (s *SimulationService) buildSummary(ctx context.Context, seed int64, participants []simulation.SyntheticParticipant, diag simulation.Diagnostics) (simulation.Summary, error) {
	summary := simulation.NewSummary()
	summary.DVSummary = diag.ConditionStats
	summary.DeadVars = append(summary.DeadVars, diag.DeadVariables...)
	for _, weak := range diag.WeakEffects {
		summary.WeakEffects = append(summary.WeakEffects, weak.Describe())
	}

	texts := make([]string, 0)
	for _, p := range participants {
		for _, r := range p.Responses {
			if r.OpenText != "" {
				texts = append(texts, r.OpenText)
			}
		}
	}

	if len(texts) > s.opts.SampleResponses {
		stream, err := s.rng.Stream(ctx, stageSampling, keyResponses, seed)
		if err != nil {
			return simulation.Summary{}, err
		}
		sampled := make([]string, 0, s.opts.SampleResponses)
		for _, idx := range stream.Perm(len(texts))[:s.opts.SampleResponses] {
			sampled = append(sampled, texts[idx])
		}
		summary.SampleResponses = sampled
	} else {
		summary.SampleResponses = append(summary.SampleResponses, texts...)
	}

	return summary, nil
}

// shortHash abbreviates a fingerprint for log lines
func shortHash(h core.Hash) string {
	s := h.String()
	if len(s) > 12 {
		return s[:12]
	}
	return s
}

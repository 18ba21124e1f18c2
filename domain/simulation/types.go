package simulation

import (
	"fmt"

	"gosynth/domain/core"
	"gosynth/domain/persona"
	"gosynth/domain/study"
)

// ============================================================================
// SIMULATED RESPONSES
// ============================================================================

// Likert score bounds for every simulated outcome measure
const (
	ScoreMin      = 1.0
	ScoreMax      = 7.0
	ScoreMidpoint = 4.0
)

// SyntheticResponse is one simulated reaction to one stimulus: a score per
// outcome measure plus an optional free-text answer
type SyntheticResponse struct {
	StimulusID  core.StimulusID    `json:"stimulus_id"`
	ConditionID core.ConditionID   `json:"condition_id"`
	DVScores    map[string]float64 `json:"dv_scores"`
	OpenText    string             `json:"open_text,omitempty"`
}

// SyntheticParticipant pairs a persona with its ordered responses for one run
type SyntheticParticipant struct {
	ID                core.ParticipantID  `json:"id"`
	Persona           persona.Persona     `json:"persona"`
	AssignedCondition core.ConditionID    `json:"assigned_condition,omitempty"`
	Responses         []SyntheticResponse `json:"responses"`
}

// ============================================================================
// DIAGNOSTICS OUTPUT
// ============================================================================

// ConditionCell holds the descriptive statistics for one measure under one
// condition. SD is the sample standard deviation, defined as 0 for n < 2.
type ConditionCell struct {
	Mean float64 `json:"mean"`
	SD   float64 `json:"sd"`
	N    int     `json:"n"`
}

// ConditionStats maps measure label -> condition id -> descriptives
type ConditionStats map[string]map[string]ConditionCell

// EffectMagnitude labels the absolute size of a standardized effect
type EffectMagnitude string

const (
	MagnitudeNegligible EffectMagnitude = "negligible"
	MagnitudeSmall      EffectMagnitude = "small"
	MagnitudeMedium     EffectMagnitude = "medium"
	MagnitudeLarge      EffectMagnitude = "large"
)

// EffectSizeRecord is one pairwise condition comparison for one measure.
// Power and RequiredN are detectability planning estimates, not inferential
// statistics.
type EffectSizeRecord struct {
	Measure    string           `json:"dv"`
	Condition1 core.ConditionID `json:"condition1"`
	Condition2 core.ConditionID `json:"condition2"`
	CohensD    float64          `json:"cohens_d"`
	Magnitude  EffectMagnitude  `json:"interpretation"`
	MeanDiff   float64          `json:"mean_diff"`
	Power      float64          `json:"power,omitempty"`
	RequiredN  int              `json:"required_n,omitempty"`
}

// WeakEffect flags a condition pair whose effect magnitude falls below the
// usability threshold
type WeakEffect struct {
	Measure    string           `json:"dv"`
	Condition1 core.ConditionID `json:"condition1"`
	Condition2 core.ConditionID `json:"condition2"`
	CohensD    float64          `json:"cohens_d"`
	Message    string           `json:"message"`
}

// Describe renders the human-readable warning naming both conditions and the
// measure
func (w WeakEffect) Describe() string {
	return fmt.Sprintf("%s vs %s on %s (d=%.3f)", w.Condition1, w.Condition2, w.Measure, w.CohensD)
}

// Diagnostics is the full analysis of a simulated participant set
type Diagnostics struct {
	ConditionStats ConditionStats     `json:"condition_means"`
	DeadVariables  []string           `json:"dead_variables"`
	WeakEffects    []WeakEffect       `json:"weak_effects"`
	EffectSizes    []EffectSizeRecord `json:"effect_estimates"`
}

// NewDiagnostics creates an empty diagnostics result
func NewDiagnostics() Diagnostics {
	return Diagnostics{
		ConditionStats: ConditionStats{},
		DeadVariables:  []string{},
		WeakEffects:    []WeakEffect{},
		EffectSizes:    []EffectSizeRecord{},
	}
}

// ============================================================================
// RUN SUMMARY (the artifact persisted to project state)
// ============================================================================

// Summary is the downstream-facing simulation artifact: descriptives per
// measure and condition, dead-variable flags, weak-effect warnings, and a
// bounded sample of free-text responses
type Summary struct {
	DVSummary       ConditionStats `json:"dv_summary"`
	DeadVars        []string       `json:"dead_vars"`
	WeakEffects     []string       `json:"weak_effects"`
	SampleResponses []string       `json:"sample_responses"`
}

// NewSummary creates an empty summary with all collections initialized
func NewSummary() Summary {
	return Summary{
		DVSummary:       ConditionStats{},
		DeadVars:        []string{},
		WeakEffects:     []string{},
		SampleResponses: []string{},
	}
}

// Fingerprint hashes the canonical JSON of the summary. Two runs with the
// same seed and inputs produce equal fingerprints.
func (s Summary) Fingerprint() (core.SummaryFingerprint, error) {
	return core.ComputeFingerprint(s)
}

// RunResult is everything a completed simulation run produced. Only the
// Summary travels into downstream project state; the rest feeds exporters
// and the run ledger.
type RunResult struct {
	RunID        core.RunID             `json:"run_id"`
	Seed         int64                  `json:"seed"`
	Population   int                    `json:"population"`
	DesignType   study.DesignType       `json:"design_type"`
	ScoringMode  string                 `json:"scoring_mode"`
	Participants []SyntheticParticipant `json:"participants,omitempty"`
	Diagnostics  Diagnostics            `json:"diagnostics"`
	Summary      Summary                `json:"summary"`
	Fingerprint  core.Hash              `json:"fingerprint"`
	Audit        []AuditEntry           `json:"audit"`
	StartedAt    core.Timestamp         `json:"started_at"`
	CompletedAt  core.Timestamp         `json:"completed_at"`
}

// ============================================================================
// AUDIT TRAIL
// ============================================================================

// AuditLevel is the severity of an audit entry
type AuditLevel string

const (
	AuditInfo    AuditLevel = "info"
	AuditWarning AuditLevel = "warning"
	AuditError   AuditLevel = "error"
)

// AuditEntry records one workflow event for downstream review
type AuditEntry struct {
	Message   string                 `json:"message"`
	Level     AuditLevel             `json:"level"`
	Location  string                 `json:"location,omitempty"`
	Timestamp core.Timestamp         `json:"timestamp"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// NewAudit creates an audit entry stamped with the current time
func NewAudit(level AuditLevel, message string) AuditEntry {
	return AuditEntry{
		Message:   message,
		Level:     level,
		Timestamp: core.Now(),
	}
}

// WithLocation returns a copy of the entry pointing at a project-state path
func (e AuditEntry) WithLocation(location string) AuditEntry {
	e.Location = location
	return e
}

// WithDetails returns a copy of the entry carrying a structured detail map
func (e AuditEntry) WithDetails(details map[string]interface{}) AuditEntry {
	e.Details = details
	return e
}

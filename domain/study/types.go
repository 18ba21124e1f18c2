package study

import (
	"gosynth/domain/core"
)

// ============================================================================
// EXPERIMENT DESIGN (read-only input from the design collaborator)
// ============================================================================

// DesignType defines how participants are assigned to conditions
type DesignType string

const (
	DesignBetweenSubjects DesignType = "between_subjects"
	DesignWithinSubjects  DesignType = "within_subjects"
	DesignMixed           DesignType = "mixed"
)

// Condition is one arm of the manipulated independent variable
type Condition struct {
	ID                      core.ConditionID `json:"id"`
	Label                   string           `json:"label"`
	ManipulationDescription string           `json:"manipulation_description,omitempty"`
}

// Measure is a named outcome variable collected from participants
type Measure struct {
	ID         core.MeasureID `json:"id"`
	Label      string         `json:"label"`
	Scale      string         `json:"scale,omitempty"`
	TimePoints []string       `json:"time_points,omitempty"`
}

// SampleSizePlan carries the per-condition participant range planned upstream
type SampleSizePlan struct {
	AssumedEffectSize string `json:"assumed_effect_size,omitempty"`
	PerConditionMin   int    `json:"per_condition_min,omitempty"`
	PerConditionMax   int    `json:"per_condition_max,omitempty"`
}

// HasRange reports whether the plan carries a usable per-condition range
func (p *SampleSizePlan) HasRange() bool {
	return p != nil && p.PerConditionMax > 0
}

// Midpoint returns the integer midpoint of the per-condition range
func (p *SampleSizePlan) Midpoint() int {
	return (p.PerConditionMin + p.PerConditionMax) / 2
}

// ExperimentDesign is the finalized design the simulator consumes
type ExperimentDesign struct {
	ID             core.ID         `json:"id"`
	DesignType     DesignType      `json:"design_type"`
	Conditions     []Condition     `json:"conditions"`
	Measures       []Measure       `json:"measures"`
	SampleSizePlan *SampleSizePlan `json:"sample_size_plan,omitempty"`
	ConfoundNotes  []string        `json:"confound_notes,omitempty"`
	MethodsDraft   string          `json:"methods_draft,omitempty"`
}

// DefaultPerCondition is the fallback population size per condition when the
// design carries no sample-size plan.
const DefaultPerCondition = 50

// PlannedPopulation determines the total population size for a simulation run:
// the midpoint of the per-condition range times the number of conditions when
// a plan exists, otherwise DefaultPerCondition per condition.
func (d *ExperimentDesign) PlannedPopulation() int {
	if d.SampleSizePlan.HasRange() {
		return d.SampleSizePlan.Midpoint() * len(d.Conditions)
	}
	return DefaultPerCondition * len(d.Conditions)
}

// PerConditionTarget returns the planned per-condition group size
func (d *ExperimentDesign) PerConditionTarget() int {
	if d.SampleSizePlan.HasRange() {
		return d.SampleSizePlan.Midpoint()
	}
	return DefaultPerCondition
}

// ConditionByID looks up a condition by its id
func (d *ExperimentDesign) ConditionByID(id core.ConditionID) (Condition, bool) {
	for _, c := range d.Conditions {
		if c.ID == id {
			return c, true
		}
	}
	return Condition{}, false
}

// ConditionIDs returns the condition ids in design order
func (d *ExperimentDesign) ConditionIDs() []core.ConditionID {
	ids := make([]core.ConditionID, 0, len(d.Conditions))
	for _, c := range d.Conditions {
		ids = append(ids, c.ID)
	}
	return ids
}

// MeasureLabels returns the measure labels in design order
func (d *ExperimentDesign) MeasureLabels() []string {
	labels := make([]string, 0, len(d.Measures))
	for _, m := range d.Measures {
		labels = append(labels, m.Label)
	}
	return labels
}

// Validate checks the structural minimums a usable design carries. These are
// audit-level findings for the workflow driver; the simulator itself only
// requires the design to be present.
func (d *ExperimentDesign) Validate() error {
	if len(d.Conditions) < 2 {
		return core.ErrTooFewConditions
	}
	if len(d.Measures) == 0 {
		return core.ErrNoMeasures
	}
	return nil
}

// ============================================================================
// STIMULI (read-only input from the stimulus collaborator)
// ============================================================================

// Valence classifies the emotional direction of a stimulus
type Valence string

const (
	ValencePositive Valence = "positive"
	ValenceNegative Valence = "negative"
	ValenceNeutral  Valence = "neutral"
	ValenceMixed    Valence = "mixed"
)

// Intensity classifies how strongly a stimulus manipulates
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// UnknownCondition groups responses whose stimulus carries no assigned
// condition id. Scoring degrades to this bucket instead of failing.
const UnknownCondition core.ConditionID = "unknown"

// StimulusMetadata carries the per-item manipulation attributes
type StimulusMetadata struct {
	Valence           Valence          `json:"valence,omitempty"`
	RelationshipType  string           `json:"relationship_type,omitempty"`
	Intensity         Intensity        `json:"intensity,omitempty"`
	AmbiguityLevel    string           `json:"ambiguity_level,omitempty"`
	AssignedCondition core.ConditionID `json:"assigned_condition,omitempty"`
}

// Condition returns the assigned condition id, degrading to UnknownCondition
// when the stimulus was never assigned.
func (m StimulusMetadata) Condition() core.ConditionID {
	if m.AssignedCondition == "" {
		return UnknownCondition
	}
	return m.AssignedCondition
}

// StimulusVariant is an alternate rendering of a stimulus item
type StimulusVariant struct {
	ID          string `json:"id"`
	VariantType string `json:"variant_type"`
	Text        string `json:"text"`
}

// StimulusItem is the concrete material a participant is exposed to
type StimulusItem struct {
	ID       core.StimulusID   `json:"id"`
	Text     string            `json:"text"`
	Language string            `json:"language,omitempty"`
	Metadata StimulusMetadata  `json:"metadata"`
	Variants []StimulusVariant `json:"variants,omitempty"`
}

// StimuliForCondition filters stimuli down to one condition's items,
// preserving input order.
func StimuliForCondition(stimuli []StimulusItem, condition core.ConditionID) []StimulusItem {
	matched := make([]StimulusItem, 0, len(stimuli))
	for _, s := range stimuli {
		if s.Metadata.AssignedCondition == condition {
			matched = append(matched, s)
		}
	}
	return matched
}

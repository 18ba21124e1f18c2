package engine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"gosynth/domain/core"
	"gosynth/domain/simulation"
	"gosynth/domain/study"
)

// Config holds the screening thresholds and planning targets the engine
// applies to simulated results
type Config struct {
	DeadVarianceSD float64 // pooled SD below this marks a measure as dead
	WeakEffectD    float64 // |Cohen's d| below this flags a weak manipulation
	PowerAlpha     float64 // two-sided alpha for detectability estimates
	PowerTarget    float64 // target power for required-N estimates
}

// DefaultConfig returns the standard screening thresholds
func DefaultConfig() Config {
	return Config{
		DeadVarianceSD: 0.3,
		WeakEffectD:    0.3,
		PowerAlpha:     0.05,
		PowerTarget:    0.80,
	}
}

// Engine analyzes a simulated participant set for design quality issues:
// per-condition descriptives, dead variables, weak manipulations, and
// pairwise effect-size estimates
type Engine struct {
	cfg Config
}

// NewEngine creates a diagnostics engine with the given thresholds
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// conditionScores maps condition id -> measure label -> raw scores
type conditionScores map[string]map[string][]float64

// ComputeDiagnostics runs the full diagnostic pipeline. An empty participant
// set yields empty aggregates, never an error.
func (e *Engine) ComputeDiagnostics(ctx context.Context, participants []simulation.SyntheticParticipant, design *study.ExperimentDesign) (simulation.Diagnostics, error) {
	diag := simulation.NewDiagnostics()

	data := aggregateByCondition(participants)
	conditions := orderedConditions(design, data)
	measures := orderedMeasures(design, data)

	diag.ConditionStats = conditionStats(data, conditions, measures)
	diag.DeadVariables = e.deadVariables(data, conditions, measures)
	diag.WeakEffects = e.weakEffects(data, conditions, measures)
	diag.EffectSizes = e.effectSizes(data, diag.ConditionStats, conditions, measures, design)

	return diag, nil
}

// aggregateByCondition groups every score by the condition the response was
// recorded under. Responses without an assignment land in the unknown bucket
// via their own condition id.
func aggregateByCondition(participants []simulation.SyntheticParticipant) conditionScores {
	data := conditionScores{}
	for _, p := range participants {
		for _, r := range p.Responses {
			cond := string(r.ConditionID)
			if data[cond] == nil {
				data[cond] = map[string][]float64{}
			}
			for label, score := range r.DVScores {
				data[cond][label] = append(data[cond][label], score)
			}
		}
	}
	return data
}

// orderedConditions lists condition ids with data in a stable order: design
// order first, then any extra ids seen only in responses, sorted.
func orderedConditions(design *study.ExperimentDesign, data conditionScores) []string {
	seen := make(map[string]bool, len(data))
	ordered := make([]string, 0, len(data))
	for _, id := range design.ConditionIDs() {
		cond := string(id)
		if _, ok := data[cond]; ok && !seen[cond] {
			ordered = append(ordered, cond)
			seen[cond] = true
		}
	}

	extras := make([]string, 0)
	for cond := range data {
		if !seen[cond] {
			extras = append(extras, cond)
		}
	}
	sort.Strings(extras)

	return append(ordered, extras...)
}

// orderedMeasures lists measure labels with data in a stable order: design
// order first, then any stray labels sorted
func orderedMeasures(design *study.ExperimentDesign, data conditionScores) []string {
	present := map[string]bool{}
	for _, byMeasure := range data {
		for label := range byMeasure {
			present[label] = true
		}
	}

	seen := make(map[string]bool, len(present))
	ordered := make([]string, 0, len(present))
	for _, label := range design.MeasureLabels() {
		if present[label] && !seen[label] {
			ordered = append(ordered, label)
			seen[label] = true
		}
	}

	extras := make([]string, 0)
	for label := range present {
		if !seen[label] {
			extras = append(extras, label)
		}
	}
	sort.Strings(extras)

	return append(ordered, extras...)
}

// conditionStats computes the descriptive table: measure -> condition ->
// {mean, sd, n}. Conditions without scores for a measure are omitted.
func conditionStats(data conditionScores, conditions, measures []string) simulation.ConditionStats {
	table := simulation.ConditionStats{}
	for _, label := range measures {
		for _, cond := range conditions {
			scores := data[cond][label]
			if len(scores) == 0 {
				continue
			}

			mean, _ := stats.Mean(scores)
			sd := 0.0
			if len(scores) > 1 {
				sd, _ = stats.StandardDeviationSample(scores)
			}

			if table[label] == nil {
				table[label] = map[string]simulation.ConditionCell{}
			}
			table[label][cond] = simulation.ConditionCell{
				Mean: roundTo(mean, 2),
				SD:   roundTo(sd, 2),
				N:    len(scores),
			}
		}
	}
	return table
}

// deadVariables flags measures whose scores, pooled across all conditions,
// barely vary. A measure needs at least two observations to be judged.
func (e *Engine) deadVariables(data conditionScores, conditions, measures []string) []string {
	dead := []string{}
	for _, label := range measures {
		pooled := make([]float64, 0)
		for _, cond := range conditions {
			pooled = append(pooled, data[cond][label]...)
		}
		if len(pooled) < 2 {
			continue
		}

		sd, _ := stats.StandardDeviationSample(pooled)
		if sd < e.cfg.DeadVarianceSD {
			dead = append(dead, label)
		}
	}
	return dead
}

// weakEffects compares every condition pair on every measure and flags the
// pairs whose standardized difference falls below the usability threshold
func (e *Engine) weakEffects(data conditionScores, conditions, measures []string) []simulation.WeakEffect {
	weak := []simulation.WeakEffect{}
	for _, label := range measures {
		for i := 0; i < len(conditions); i++ {
			for j := i + 1; j < len(conditions); j++ {
				scores1 := data[conditions[i]][label]
				scores2 := data[conditions[j]][label]
				if len(scores1) == 0 || len(scores2) == 0 {
					continue
				}

				d := cohensD(scores1, scores2)
				if math.Abs(d) < e.cfg.WeakEffectD {
					weak = append(weak, simulation.WeakEffect{
						Measure:    label,
						Condition1: core.ConditionID(conditions[i]),
						Condition2: core.ConditionID(conditions[j]),
						CohensD:    roundTo(d, 3),
						Message:    fmt.Sprintf("Weak effect between %s and %s on %s", conditions[i], conditions[j], label),
					})
				}
			}
		}
	}
	return weak
}

// effectSizes estimates the standardized effect for every condition pair on
// every measure, with a size label and detectability planning figures
func (e *Engine) effectSizes(data conditionScores, table simulation.ConditionStats, conditions, measures []string, design *study.ExperimentDesign) []simulation.EffectSizeRecord {
	groupN := design.PerConditionTarget()

	records := []simulation.EffectSizeRecord{}
	for _, label := range measures {
		cells := table[label]
		for i := 0; i < len(conditions); i++ {
			for j := i + 1; j < len(conditions); j++ {
				cond1 := conditions[i]
				cond2 := conditions[j]
				scores1 := data[cond1][label]
				scores2 := data[cond2][label]
				if len(scores1) == 0 || len(scores2) == 0 {
					continue
				}

				d := cohensD(scores1, scores2)
				records = append(records, simulation.EffectSizeRecord{
					Measure:    label,
					Condition1: core.ConditionID(cond1),
					Condition2: core.ConditionID(cond2),
					CohensD:    roundTo(d, 3),
					Magnitude:  interpretMagnitude(d),
					MeanDiff:   roundTo(cells[cond1].Mean-cells[cond2].Mean, 2),
					Power:      roundTo(e.powerForEffect(d, groupN), 3),
					RequiredN:  e.requiredPerGroup(d),
				})
			}
		}
	}
	return records
}

// interpretMagnitude maps |d| onto the conventional size labels
func interpretMagnitude(d float64) simulation.EffectMagnitude {
	abs := math.Abs(d)
	switch {
	case abs < 0.2:
		return simulation.MagnitudeNegligible
	case abs < 0.5:
		return simulation.MagnitudeSmall
	case abs < 0.8:
		return simulation.MagnitudeMedium
	default:
		return simulation.MagnitudeLarge
	}
}

// cohensD computes the pooled-SD standardized mean difference. Pairs where
// either group has fewer than two observations, or where the pooled variance
// is zero, yield 0.
func cohensD(scores1, scores2 []float64) float64 {
	if len(scores1) < 2 || len(scores2) < 2 {
		return 0.0
	}

	mean1, _ := stats.Mean(scores1)
	mean2, _ := stats.Mean(scores2)
	var1, _ := stats.SampleVariance(scores1)
	var2, _ := stats.SampleVariance(scores2)

	n1 := float64(len(scores1))
	n2 := float64(len(scores2))
	pooledSD := math.Sqrt(((n1-1)*var1 + (n2-1)*var2) / (n1 + n2 - 2))
	if pooledSD == 0 {
		return 0.0
	}

	return (mean1 - mean2) / pooledSD
}

// roundTo rounds to a fixed number of decimal places
func roundTo(x float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(x*p) / p
}

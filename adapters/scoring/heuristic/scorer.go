package heuristic

import (
	"context"
	"math"
	"math/rand"
	"strings"

	"gosynth/domain/persona"
	"gosynth/domain/simulation"
	"gosynth/domain/study"
)

// ModeIndependent tags the scoring strategy: measures within one response
// share the same persona/stimulus inputs but carry no correlation structure
// beyond that. A future correlated strategy would register its own tag.
const ModeIndependent = "independent"

// Scoring adjustments applied around the Likert midpoint
const (
	negativeValenceWeight  = 2.0 // scaled by neuroticism/100
	anxiousReactivityBoost = 0.8
	positiveValenceRelief  = 0.5
	secureStyleRelief      = 0.5
	highCriticismPenalty   = 0.7
	lowCriticismRelief     = 0.5
	noiseSD                = 0.5
)

// Scorer simulates participant responses with trait-keyed arithmetic rules.
// It is deliberately not a psychological model: scores exist to exercise a
// design's statistical structure, not to imitate humans.
type Scorer struct{}

// NewScorer creates a new heuristic response scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Mode names the scoring strategy for audit trails
func (s *Scorer) Mode() string {
	return ModeIndependent
}

// SimulateResponse produces one response: a score per measure plus free text.
// Scoring never fails; unknown valence or intensity values degrade to the
// neutral/medium branch.
func (s *Scorer) SimulateResponse(ctx context.Context, p persona.Persona, stimulus study.StimulusItem, measures []study.Measure, rng *rand.Rand) (simulation.SyntheticResponse, error) {
	scores := make(map[string]float64, len(measures))
	for _, measure := range measures {
		scores[measure.Label] = s.scoreMeasure(p, stimulus, measure, rng)
	}

	return simulation.SyntheticResponse{
		StimulusID:  stimulus.ID,
		ConditionID: stimulus.Metadata.Condition(),
		DVScores:    scores,
		OpenText:    s.generateOpenText(p, stimulus, rng),
	}, nil
}

// scoreMeasure runs the six-step Likert procedure for one measure:
// start at the midpoint, shift by valence and attachment style, rescale the
// deviation by stimulus intensity, shift self-criticism-keyed measures, add
// gaussian noise, clamp to [1,7].
func (s *Scorer) scoreMeasure(p persona.Persona, stimulus study.StimulusItem, measure study.Measure, rng *rand.Rand) float64 {
	neuroticism := p.Traits.Neuroticism / 100

	score := simulation.ScoreMidpoint

	switch stimulus.Metadata.Valence {
	case study.ValenceNegative:
		score += neuroticism * negativeValenceWeight
		if p.AttachmentStyle == persona.StyleAnxious {
			score += anxiousReactivityBoost
		}
	case study.ValencePositive:
		score -= positiveValenceRelief
		if p.AttachmentStyle == persona.StyleSecure {
			score -= secureStyleRelief
		}
	}

	score = simulation.ScoreMidpoint + (score-simulation.ScoreMidpoint)*intensityFactor(stimulus.Metadata.Intensity)

	if selfCriticismKeyed(measure.Label) {
		switch p.SelfCriticism {
		case persona.CriticismHigh:
			score += highCriticismPenalty
		case persona.CriticismLow:
			score -= lowCriticismRelief
		}
	}

	score += rng.NormFloat64() * noiseSD

	return math.Max(simulation.ScoreMin, math.Min(simulation.ScoreMax, score))
}

// intensityFactor rescales the deviation from the midpoint. Unknown
// intensity values behave as medium.
func intensityFactor(intensity study.Intensity) float64 {
	switch intensity {
	case study.IntensityLow:
		return 0.5
	case study.IntensityHigh:
		return 1.5
	default:
		return 1.0
	}
}

// selfCriticismKeyed reports whether a measure label is sensitive to the
// persona's self-criticism level
func selfCriticismKeyed(label string) bool {
	lower := strings.ToLower(label)
	return strings.Contains(lower, "anxiety") || strings.Contains(lower, "stress")
}

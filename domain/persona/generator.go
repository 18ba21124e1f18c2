package persona

import (
	"math/rand"

	"gosynth/domain/study"
)

// Trait baseline draw range before attachment-style offsets are applied
const (
	traitBaseMin = 30.0
	traitBaseMax = 70.0
)

// Self-criticism is drawn conditionally on neuroticism around these cuts
const (
	neuroticismHighCut = 60.0
	neuroticismLowCut  = 40.0
)

// Generator produces a population of participant profiles. All randomness
// flows through the injected source, so a fixed seed reproduces the exact
// same population.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a persona generator over the given random source
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate returns exactly n personas. Attachment styles come from a pool
// pre-filled to an even split across the four styles, so category counts
// never differ by more than one regardless of n. The design is accepted for
// context and reserved for future design-aware profile shaping.
func (g *Generator) Generate(n int, design *study.ExperimentDesign) []Persona {
	if n <= 0 {
		return []Persona{}
	}

	pool := g.attachmentPool(n)

	personas := make([]Persona, 0, n)
	for i := 0; i < n; i++ {
		personas = append(personas, g.generateOne(pool[i]))
	}
	return personas
}

// attachmentPool builds a shuffled pool of n styles with an even base split.
// Remainder slots take distinct styles, keeping per-style counts within one
// of each other.
func (g *Generator) attachmentPool(n int) []AttachmentStyle {
	styles := AllAttachmentStyles()

	pool := make([]AttachmentStyle, 0, n)
	perStyle := n / len(styles)
	for _, style := range styles {
		for i := 0; i < perStyle; i++ {
			pool = append(pool, style)
		}
	}

	extras := append([]AttachmentStyle(nil), styles...)
	g.rng.Shuffle(len(extras), func(i, j int) { extras[i], extras[j] = extras[j], extras[i] })
	for i := 0; len(pool) < n; i++ {
		pool = append(pool, extras[i])
	}

	g.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool
}

// generateOne builds a single persona with traits coherent with its style
func (g *Generator) generateOne(style AttachmentStyle) Persona {
	traits := g.generateTraits(style)

	age := 18 + g.rng.Intn(48) // 18-65
	gender := pick(g.rng, []string{"male", "female", "non-binary"})

	return Persona{
		AttachmentStyle: style,
		SelfCriticism:   g.drawSelfCriticism(traits.Neuroticism),
		Culture:         pick(g.rng, AllCultures()),
		Traits:          traits,
		Demographics: map[string]interface{}{
			"age":    age,
			"gender": gender,
		},
		OtherTraits: map[string]interface{}{
			"age":                 age,
			"gender":              gender,
			"education_level":     pick(g.rng, []string{"high_school", "undergraduate", "graduate", "postgraduate"}),
			"relationship_status": pick(g.rng, []string{"single", "dating", "committed", "married"}),
			"stress_level":        g.uniform(1, 7),
			"social_support":      g.uniform(1, 7),
		},
	}
}

// generateTraits draws each Big Five trait uniformly in the baseline range,
// then applies small style-keyed offsets before clamping to the 0-100 scale
func (g *Generator) generateTraits(style AttachmentStyle) TraitProfile {
	traits := TraitProfile{
		Openness:          g.uniform(traitBaseMin, traitBaseMax),
		Conscientiousness: g.uniform(traitBaseMin, traitBaseMax),
		Extraversion:      g.uniform(traitBaseMin, traitBaseMax),
		Agreeableness:     g.uniform(traitBaseMin, traitBaseMax),
		Neuroticism:       g.uniform(traitBaseMin, traitBaseMax),
	}

	switch style {
	case StyleAnxious:
		traits.Neuroticism += 15
		traits.Extraversion -= 10
	case StyleAvoidant:
		traits.Openness -= 10
		traits.Agreeableness -= 10
	case StyleSecure:
		traits.Agreeableness += 10
		traits.Neuroticism -= 10
	}

	return traits.Clamped()
}

// drawSelfCriticism correlates, but does not determinize, self-criticism
// with neuroticism
func (g *Generator) drawSelfCriticism(neuroticism float64) SelfCriticismLevel {
	switch {
	case neuroticism > neuroticismHighCut:
		return pick(g.rng, []SelfCriticismLevel{CriticismMedium, CriticismHigh})
	case neuroticism < neuroticismLowCut:
		return pick(g.rng, []SelfCriticismLevel{CriticismLow, CriticismMedium})
	default:
		return pick(g.rng, AllSelfCriticismLevels())
	}
}

func (g *Generator) uniform(min, max float64) float64 {
	return min + g.rng.Float64()*(max-min)
}

func pick[T any](rng *rand.Rand, options []T) T {
	return options[rng.Intn(len(options))]
}

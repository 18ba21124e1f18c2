package persona

import "math"

// ============================================================================
// PARTICIPANT PROFILE MODEL
// ============================================================================

// AttachmentStyle is the categorical attachment profile of a participant
type AttachmentStyle string

const (
	StyleSecure          AttachmentStyle = "secure"
	StyleAnxious         AttachmentStyle = "anxious"
	StyleAvoidant        AttachmentStyle = "avoidant"
	StyleFearfulAvoidant AttachmentStyle = "fearful-avoidant"
)

// AllAttachmentStyles returns the styles in canonical order
func AllAttachmentStyles() []AttachmentStyle {
	return []AttachmentStyle{StyleSecure, StyleAnxious, StyleAvoidant, StyleFearfulAvoidant}
}

// SelfCriticismLevel is the categorical self-criticism disposition
type SelfCriticismLevel string

const (
	CriticismLow    SelfCriticismLevel = "low"
	CriticismMedium SelfCriticismLevel = "medium"
	CriticismHigh   SelfCriticismLevel = "high"
)

// AllSelfCriticismLevels returns the levels in canonical order
func AllSelfCriticismLevels() []SelfCriticismLevel {
	return []SelfCriticismLevel{CriticismLow, CriticismMedium, CriticismHigh}
}

// Culture is the cultural orientation category
type Culture string

const (
	CultureIndividualistic Culture = "individualistic"
	CultureCollectivistic  Culture = "collectivistic"
	CultureMixed           Culture = "mixed"
)

// AllCultures returns the orientation categories in canonical order
func AllCultures() []Culture {
	return []Culture{CultureIndividualistic, CultureCollectivistic, CultureMixed}
}

// Trait score bounds (0-100 scale)
const (
	TraitMin = 0.0
	TraitMax = 100.0
)

// TraitProfile holds the Big Five personality trait scores on a 0-100 scale
type TraitProfile struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}

// Clamped returns the profile with every trait forced into [TraitMin, TraitMax]
func (t TraitProfile) Clamped() TraitProfile {
	return TraitProfile{
		Openness:          clampTrait(t.Openness),
		Conscientiousness: clampTrait(t.Conscientiousness),
		Extraversion:      clampTrait(t.Extraversion),
		Agreeableness:     clampTrait(t.Agreeableness),
		Neuroticism:       clampTrait(t.Neuroticism),
	}
}

// InRange reports whether every trait lies inside the declared scale
func (t TraitProfile) InRange() bool {
	for _, v := range []float64{t.Openness, t.Conscientiousness, t.Extraversion, t.Agreeableness, t.Neuroticism} {
		if v < TraitMin || v > TraitMax {
			return false
		}
	}
	return true
}

func clampTrait(v float64) float64 {
	return math.Max(TraitMin, math.Min(TraitMax, v))
}

// Persona is a simulated participant profile. Created once per run by the
// Generator and immutable thereafter.
type Persona struct {
	AttachmentStyle AttachmentStyle        `json:"attachment_style"`
	SelfCriticism   SelfCriticismLevel     `json:"self_criticism"`
	Culture         Culture                `json:"culture"`
	Traits          TraitProfile           `json:"personality_traits"`
	Demographics    map[string]interface{} `json:"demographic_info,omitempty"`
	OtherTraits     map[string]interface{} `json:"other_traits,omitempty"`
}

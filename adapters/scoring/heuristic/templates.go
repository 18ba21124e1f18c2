package heuristic

import (
	"math/rand"
	"strings"

	"gosynth/domain/persona"
	"gosynth/domain/study"
)

// Open-text generation is explicitly flavor text for manual inspection, not
// a scored output. Templates are keyed by attachment style; {emotion} and
// {action} slots are filled per response.

var styleTemplates = map[persona.AttachmentStyle][]string{
	persona.StyleAnxious: {
		"This situation really worries me. I feel {emotion} and can't stop thinking about what might go wrong.",
		"I'm feeling quite {emotion} about this. I keep replaying the scenario in my mind.",
		"This makes me feel {emotion}. I would probably seek reassurance from others.",
	},
	persona.StyleAvoidant: {
		"I don't think this would affect me much. I prefer to handle things independently.",
		"This situation is {emotion}, but I would likely distance myself emotionally.",
		"I would try not to dwell on this. It's better to stay self-reliant.",
	},
	persona.StyleSecure: {
		"This situation feels {emotion}, but I think I could manage it with support if needed.",
		"I feel {emotion} about this, and I would communicate my feelings openly.",
		"This makes me feel {emotion}, but I'm confident I can cope with it.",
	},
	persona.StyleFearfulAvoidant: {
		"This situation is confusing. Part of me wants to {action}, but another part wants to withdraw.",
		"I feel {emotion} and uncertain about how to respond. I might alternate between seeking help and avoiding it.",
		"This creates mixed feelings. I'm both {emotion} and hesitant to engage fully.",
	},
}

var emotionVocabulary = map[study.Valence][]string{
	study.ValenceNegative: {"anxious", "stressed", "uncomfortable", "worried", "upset"},
	study.ValencePositive: {"happy", "content", "relieved", "pleased", "calm"},
	study.ValenceNeutral:  {"neutral", "uncertain", "okay", "mixed"},
	study.ValenceMixed:    {"conflicted", "ambivalent", "uncertain", "torn"},
}

var actionWords = []string{"reach out", "connect", "engage", "respond"}

var elaborations = []string{
	" I think this relates to past experiences.",
	" This reminds me of similar situations.",
	" I would want to understand the deeper meaning.",
}

// High-openness personas elaborate half the time
const (
	opennessElaborationCut = 60.0
	elaborationChance      = 0.5
)

// generateOpenText renders a styled template with an emotion word matched to
// the stimulus valence. Unknown styles fall back to secure templates and
// unknown valences to the neutral vocabulary.
func (s *Scorer) generateOpenText(p persona.Persona, stimulus study.StimulusItem, rng *rand.Rand) string {
	templates, ok := styleTemplates[p.AttachmentStyle]
	if !ok {
		templates = styleTemplates[persona.StyleSecure]
	}
	template := templates[rng.Intn(len(templates))]

	vocabulary, ok := emotionVocabulary[stimulus.Metadata.Valence]
	if !ok {
		vocabulary = emotionVocabulary[study.ValenceNeutral]
	}
	emotion := vocabulary[rng.Intn(len(vocabulary))]
	action := actionWords[rng.Intn(len(actionWords))]

	response := strings.ReplaceAll(template, "{emotion}", emotion)
	response = strings.ReplaceAll(response, "{action}", action)

	if p.Traits.Openness > opennessElaborationCut && rng.Float64() > elaborationChance {
		response += elaborations[rng.Intn(len(elaborations))]
	}

	return response
}

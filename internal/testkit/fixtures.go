package testkit

import (
	"fmt"

	"gosynth/domain/core"
	"gosynth/domain/study"
)

// Condition ids used across fixtures
const (
	CondThreat  core.ConditionID = "cond_threat"
	CondSupport core.ConditionID = "cond_support"
)

// AttachmentDesign returns a two-condition between-subjects design with the
// standard outcome measures
func AttachmentDesign() *study.ExperimentDesign {
	return &study.ExperimentDesign{
		ID:         core.ID("design_attachment"),
		DesignType: study.DesignBetweenSubjects,
		Conditions: []study.Condition{
			{ID: CondThreat, Label: "Relational threat", ManipulationDescription: "Partner unresponsiveness scenario"},
			{ID: CondSupport, Label: "Supportive contact", ManipulationDescription: "Partner encouragement scenario"},
		},
		Measures: []study.Measure{
			{ID: "m_anxiety", Label: "Anxiety", Scale: "likert_7", TimePoints: []string{"post"}},
			{ID: "m_avoid", Label: "Avoidance Intent", Scale: "likert_7", TimePoints: []string{"post"}},
		},
	}
}

// DesignWithPlan clones the standard design with an explicit assignment type
// and per-condition range
func DesignWithPlan(designType study.DesignType, min, max int) *study.ExperimentDesign {
	design := AttachmentDesign()
	design.DesignType = designType
	design.SampleSizePlan = &study.SampleSizePlan{
		AssumedEffectSize: "medium",
		PerConditionMin:   min,
		PerConditionMax:   max,
	}
	return design
}

// ContrastStimuli returns one strongly negative item for the threat condition
// and one mildly positive item for the support condition
func ContrastStimuli() []study.StimulusItem {
	return []study.StimulusItem{
		{
			ID:       "stim_threat",
			Text:     "Your partner has not replied to your message since yesterday.",
			Language: "en",
			Metadata: study.StimulusMetadata{
				Valence:           study.ValenceNegative,
				RelationshipType:  "romantic",
				Intensity:         study.IntensityHigh,
				AmbiguityLevel:    "high",
				AssignedCondition: CondThreat,
			},
		},
		{
			ID:       "stim_support",
			Text:     "Your partner sends you an encouraging message before your presentation.",
			Language: "en",
			Metadata: study.StimulusMetadata{
				Valence:           study.ValencePositive,
				RelationshipType:  "romantic",
				Intensity:         study.IntensityLow,
				AmbiguityLevel:    "low",
				AssignedCondition: CondSupport,
			},
		},
	}
}

// UnassignedStimulus returns a neutral item that never went through condition
// assignment, for unknown-bucket behavior
func UnassignedStimulus() study.StimulusItem {
	return study.StimulusItem{
		ID:       "stim_unassigned",
		Text:     "You notice a message from an old friend you have not spoken to in a while.",
		Language: "en",
		Metadata: study.StimulusMetadata{
			Valence:          study.ValenceNeutral,
			RelationshipType: "friendship",
			Intensity:        study.IntensityMedium,
			AmbiguityLevel:   "medium",
		},
	}
}

// StimuliPerCondition returns n numbered items per design condition,
// alternating the contrast pattern of ContrastStimuli
func StimuliPerCondition(design *study.ExperimentDesign, n int) []study.StimulusItem {
	contrast := ContrastStimuli()
	stimuli := make([]study.StimulusItem, 0, n*len(design.Conditions))
	for ci, cond := range design.Conditions {
		template := contrast[ci%len(contrast)]
		for i := 0; i < n; i++ {
			item := template
			item.ID = core.StimulusID(fmt.Sprintf("stim_%s_%03d", cond.ID, i+1))
			item.Metadata.AssignedCondition = cond.ID
			stimuli = append(stimuli, item)
		}
	}
	return stimuli
}

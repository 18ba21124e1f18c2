package excel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gosynth/domain/core"
	"gosynth/domain/simulation"
	"gosynth/domain/study"
)

func exportableRun() *simulation.RunResult {
	summary := simulation.NewSummary()
	summary.DVSummary = simulation.ConditionStats{
		"Anxiety": {
			"cond_support": {Mean: 3.5, SD: 0.5, N: 30},
			"cond_threat":  {Mean: 5.5, SD: 0.5, N: 30},
		},
	}
	summary.DeadVars = append(summary.DeadVars, "Mood")
	summary.WeakEffects = append(summary.WeakEffects, "cond_a vs cond_b on Mood (d=0.100)")
	summary.SampleResponses = append(summary.SampleResponses, "I feel worried about this.")

	diag := simulation.NewDiagnostics()
	diag.ConditionStats = summary.DVSummary
	diag.DeadVariables = append(diag.DeadVariables, "Mood")
	diag.WeakEffects = append(diag.WeakEffects, simulation.WeakEffect{
		Measure:    "Mood",
		Condition1: "cond_a",
		Condition2: "cond_b",
		CohensD:    0.1,
		Message:    "Weak effect between cond_a and cond_b on Mood",
	})
	diag.EffectSizes = append(diag.EffectSizes, simulation.EffectSizeRecord{
		Measure:    "Anxiety",
		Condition1: "cond_threat",
		Condition2: "cond_support",
		CohensD:    2.5,
		Magnitude:  simulation.MagnitudeLarge,
		MeanDiff:   2.0,
		Power:      0.999,
		RequiredN:  4,
	})

	return &simulation.RunResult{
		RunID:       core.RunID("run_export_test"),
		Seed:        42,
		Population:  60,
		DesignType:  study.DesignBetweenSubjects,
		ScoringMode: "independent",
		Diagnostics: diag,
		Summary:     summary,
		Fingerprint: core.Hash("abc123"),
		StartedAt:   core.Now(),
		CompletedAt: core.Now(),
	}
}

func TestSummaryWriterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")

	err := NewSummaryWriter().Write(exportableRun(), path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	for _, want := range []string{sheetRunInfo, sheetConditions, sheetEffects, sheetFlags, sheetResponses} {
		assert.Contains(t, sheets, want)
	}

	runID, err := f.GetCellValue(sheetRunInfo, "B1")
	require.NoError(t, err)
	assert.Equal(t, "run_export_test", runID)

	// Condition rows are sorted by measure then condition, support before threat
	measure, _ := f.GetCellValue(sheetConditions, "A2")
	condition, _ := f.GetCellValue(sheetConditions, "B2")
	mean, _ := f.GetCellValue(sheetConditions, "C2")
	assert.Equal(t, "Anxiety", measure)
	assert.Equal(t, "cond_support", condition)
	assert.Equal(t, "3.5", mean)

	d, _ := f.GetCellValue(sheetEffects, "D2")
	magnitude, _ := f.GetCellValue(sheetEffects, "E2")
	assert.Equal(t, "2.5", d)
	assert.Equal(t, "large", magnitude)

	flag, _ := f.GetCellValue(sheetFlags, "A2")
	detail, _ := f.GetCellValue(sheetFlags, "B2")
	assert.Equal(t, "dead variable", flag)
	assert.Equal(t, "Mood", detail)

	response, _ := f.GetCellValue(sheetResponses, "B2")
	assert.Equal(t, "I feel worried about this.", response)
}

func TestSummaryWriterEmptyRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")

	result := &simulation.RunResult{
		RunID:       core.RunID("run_empty"),
		DesignType:  study.DesignWithinSubjects,
		Diagnostics: simulation.NewDiagnostics(),
		Summary:     simulation.NewSummary(),
		StartedAt:   core.Now(),
		CompletedAt: core.Now(),
	}
	require.NoError(t, NewSummaryWriter().Write(result, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetConditions)
	require.NoError(t, err)
	assert.Len(t, rows, 1) // header only
}

package excel

import (
	"fmt"
	"sort"

	"gosynth/domain/simulation"

	"github.com/xuri/excelize/v2"
)

// Sheet names in the exported workbook
const (
	sheetRunInfo    = "Run Info"
	sheetConditions = "Condition Means"
	sheetEffects    = "Effect Sizes"
	sheetFlags      = "Diagnostics Flags"
	sheetResponses  = "Sample Responses"
)

// SummaryWriter renders a completed run into a reviewable workbook
type SummaryWriter struct{}

// NewSummaryWriter creates a new workbook writer
func NewSummaryWriter() *SummaryWriter {
	return &SummaryWriter{}
}

// Write renders the run into an xlsx file at the given path
func (w *SummaryWriter) Write(result *simulation.RunResult, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := w.writeRunInfo(f, result); err != nil {
		return err
	}
	if err := w.writeConditionMeans(f, result, headerStyle); err != nil {
		return err
	}
	if err := w.writeEffectSizes(f, result, headerStyle); err != nil {
		return err
	}
	if err := w.writeFlags(f, result, headerStyle); err != nil {
		return err
	}
	if err := w.writeResponses(f, result, headerStyle); err != nil {
		return err
	}

	index, err := f.GetSheetIndex(sheetRunInfo)
	if err != nil {
		return fmt.Errorf("failed to locate run info sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook to %s: %w", path, err)
	}
	return nil
}

// writeRunInfo fills the default sheet with run metadata key/value rows
func (w *SummaryWriter) writeRunInfo(f *excelize.File, result *simulation.RunResult) error {
	if err := f.SetSheetName("Sheet1", sheetRunInfo); err != nil {
		return fmt.Errorf("failed to rename run info sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Run ID", string(result.RunID)},
		{"Seed", result.Seed},
		{"Population", result.Population},
		{"Design Type", string(result.DesignType)},
		{"Scoring Mode", result.ScoringMode},
		{"Fingerprint", result.Fingerprint.String()},
		{"Dead Variables", len(result.Summary.DeadVars)},
		{"Weak Effects", len(result.Summary.WeakEffects)},
		{"Started At", result.StartedAt.String()},
		{"Completed At", result.CompletedAt.String()},
	}
	for i, row := range rows {
		if err := setRow(f, sheetRunInfo, i+1, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheetRunInfo, "A", "A", 18); err != nil {
		return fmt.Errorf("failed to size run info columns: %w", err)
	}
	return f.SetColWidth(sheetRunInfo, "B", "B", 70)
}

// writeConditionMeans renders the descriptive statistics grid, measures and
// conditions in sorted order
func (w *SummaryWriter) writeConditionMeans(f *excelize.File, result *simulation.RunResult, headerStyle int) error {
	if _, err := f.NewSheet(sheetConditions); err != nil {
		return fmt.Errorf("failed to create condition sheet: %w", err)
	}

	if err := setRow(f, sheetConditions, 1, []interface{}{"Measure", "Condition", "Mean", "SD", "N"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetConditions, "A1", "E1", headerStyle); err != nil {
		return fmt.Errorf("failed to style condition header: %w", err)
	}

	row := 2
	for _, measure := range sortedKeys(result.Diagnostics.ConditionStats) {
		cells := result.Diagnostics.ConditionStats[measure]
		for _, condition := range sortedKeys(cells) {
			cell := cells[condition]
			err := setRow(f, sheetConditions, row, []interface{}{measure, condition, cell.Mean, cell.SD, cell.N})
			if err != nil {
				return err
			}
			row++
		}
	}

	return f.SetColWidth(sheetConditions, "A", "B", 24)
}

// writeEffectSizes renders the pairwise effect records in engine order
func (w *SummaryWriter) writeEffectSizes(f *excelize.File, result *simulation.RunResult, headerStyle int) error {
	if _, err := f.NewSheet(sheetEffects); err != nil {
		return fmt.Errorf("failed to create effect sheet: %w", err)
	}

	header := []interface{}{"Measure", "Condition 1", "Condition 2", "Cohen's d", "Magnitude", "Mean Diff", "Power", "Required N"}
	if err := setRow(f, sheetEffects, 1, header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetEffects, "A1", "H1", headerStyle); err != nil {
		return fmt.Errorf("failed to style effect header: %w", err)
	}

	for i, rec := range result.Diagnostics.EffectSizes {
		row := []interface{}{
			rec.Measure,
			string(rec.Condition1),
			string(rec.Condition2),
			rec.CohensD,
			string(rec.Magnitude),
			rec.MeanDiff,
			rec.Power,
			rec.RequiredN,
		}
		if err := setRow(f, sheetEffects, i+2, row); err != nil {
			return err
		}
	}

	return f.SetColWidth(sheetEffects, "A", "C", 24)
}

// writeFlags renders dead variables and weak-effect warnings on one sheet
func (w *SummaryWriter) writeFlags(f *excelize.File, result *simulation.RunResult, headerStyle int) error {
	if _, err := f.NewSheet(sheetFlags); err != nil {
		return fmt.Errorf("failed to create flags sheet: %w", err)
	}

	if err := setRow(f, sheetFlags, 1, []interface{}{"Flag", "Detail"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetFlags, "A1", "B1", headerStyle); err != nil {
		return fmt.Errorf("failed to style flags header: %w", err)
	}

	row := 2
	for _, dead := range result.Diagnostics.DeadVariables {
		if err := setRow(f, sheetFlags, row, []interface{}{"dead variable", dead}); err != nil {
			return err
		}
		row++
	}
	for _, weak := range result.Diagnostics.WeakEffects {
		if err := setRow(f, sheetFlags, row, []interface{}{"weak effect", weak.Message}); err != nil {
			return err
		}
		row++
	}

	if err := f.SetColWidth(sheetFlags, "A", "A", 16); err != nil {
		return fmt.Errorf("failed to size flags columns: %w", err)
	}
	return f.SetColWidth(sheetFlags, "B", "B", 70)
}

// writeResponses renders the sampled free-text answers
func (w *SummaryWriter) writeResponses(f *excelize.File, result *simulation.RunResult, headerStyle int) error {
	if _, err := f.NewSheet(sheetResponses); err != nil {
		return fmt.Errorf("failed to create responses sheet: %w", err)
	}

	if err := setRow(f, sheetResponses, 1, []interface{}{"#", "Response"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetResponses, "A1", "B1", headerStyle); err != nil {
		return fmt.Errorf("failed to style responses header: %w", err)
	}

	for i, text := range result.Summary.SampleResponses {
		if err := setRow(f, sheetResponses, i+2, []interface{}{i + 1, text}); err != nil {
			return err
		}
	}

	return f.SetColWidth(sheetResponses, "B", "B", 90)
}

// setRow writes one row of values starting at column A
func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, value := range values {
		cellRef, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to resolve cell %d,%d: %w", col+1, row, err)
		}
		if err := f.SetCellValue(sheet, cellRef, value); err != nil {
			return fmt.Errorf("failed to write cell %s on %s: %w", cellRef, sheet, err)
		}
	}
	return nil
}

// sortedKeys returns map keys in stable order for deterministic sheets
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

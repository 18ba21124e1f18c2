package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gosynth/domain/simulation"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Renderer produces human-readable run reports in markdown or HTML
type Renderer struct{}

// NewRenderer creates a new report renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// WriteFile renders the run to the given path, choosing the format from the
// file extension: .html/.htm produce a standalone page, everything else
// produces markdown.
func (r *Renderer) WriteFile(result *simulation.RunResult, path string) error {
	var content []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		content = r.HTML(result)
	default:
		content = r.Markdown(result)
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}

// HTML renders the run report as a standalone HTML page
func (r *Renderer) HTML(result *simulation.RunResult) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(r.Markdown(result))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: fmt.Sprintf("Simulation Run %s", result.RunID),
	})
	return markdown.Render(doc, renderer)
}

// Markdown renders the run report as markdown
func (r *Renderer) Markdown(result *simulation.RunResult) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Simulation Run %s\n\n", result.RunID)
	fmt.Fprintf(&b, "- **Design**: %s\n", result.DesignType)
	fmt.Fprintf(&b, "- **Population**: %d participants\n", result.Population)
	fmt.Fprintf(&b, "- **Seed**: %d\n", result.Seed)
	fmt.Fprintf(&b, "- **Scoring mode**: %s\n", result.ScoringMode)
	fmt.Fprintf(&b, "- **Fingerprint**: `%s`\n", result.Fingerprint)
	fmt.Fprintf(&b, "- **Started**: %s\n", result.StartedAt)
	fmt.Fprintf(&b, "- **Completed**: %s\n\n", result.CompletedAt)

	r.writeConditionMeans(&b, result)
	r.writeEffectSizes(&b, result)
	r.writeFlags(&b, result)
	r.writeResponses(&b, result)
	r.writeAudit(&b, result)

	return []byte(b.String())
}

func (r *Renderer) writeConditionMeans(b *strings.Builder, result *simulation.RunResult) {
	b.WriteString("## Condition Means\n\n")
	if len(result.Diagnostics.ConditionStats) == 0 {
		b.WriteString("No condition statistics recorded.\n\n")
		return
	}

	b.WriteString("| Measure | Condition | Mean | SD | N |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, measure := range sortedKeys(result.Diagnostics.ConditionStats) {
		cells := result.Diagnostics.ConditionStats[measure]
		for _, condition := range sortedKeys(cells) {
			cell := cells[condition]
			fmt.Fprintf(b, "| %s | %s | %.2f | %.2f | %d |\n", measure, condition, cell.Mean, cell.SD, cell.N)
		}
	}
	b.WriteString("\n")
}

func (r *Renderer) writeEffectSizes(b *strings.Builder, result *simulation.RunResult) {
	b.WriteString("## Effect Sizes\n\n")
	if len(result.Diagnostics.EffectSizes) == 0 {
		b.WriteString("No pairwise comparisons available.\n\n")
		return
	}

	b.WriteString("| Measure | Comparison | Cohen's d | Magnitude | Mean Diff | Power | Required N |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, rec := range result.Diagnostics.EffectSizes {
		fmt.Fprintf(b, "| %s | %s vs %s | %.3f | %s | %.2f | %.3f | %d |\n",
			rec.Measure, rec.Condition1, rec.Condition2, rec.CohensD, rec.Magnitude,
			rec.MeanDiff, rec.Power, rec.RequiredN)
	}
	b.WriteString("\n")
}

func (r *Renderer) writeFlags(b *strings.Builder, result *simulation.RunResult) {
	b.WriteString("## Diagnostics Flags\n\n")

	b.WriteString("### Dead variables\n\n")
	if len(result.Diagnostics.DeadVariables) == 0 {
		b.WriteString("None detected.\n\n")
	} else {
		for _, dead := range result.Diagnostics.DeadVariables {
			fmt.Fprintf(b, "- %s\n", dead)
		}
		b.WriteString("\n")
	}

	b.WriteString("### Weak effects\n\n")
	if len(result.Diagnostics.WeakEffects) == 0 {
		b.WriteString("None detected.\n\n")
	} else {
		for _, weak := range result.Diagnostics.WeakEffects {
			fmt.Fprintf(b, "- %s\n", weak.Message)
		}
		b.WriteString("\n")
	}
}

func (r *Renderer) writeResponses(b *strings.Builder, result *simulation.RunResult) {
	b.WriteString("## Sample Responses\n\n")
	if len(result.Summary.SampleResponses) == 0 {
		b.WriteString("No free-text responses sampled.\n\n")
		return
	}

	for i, text := range result.Summary.SampleResponses {
		fmt.Fprintf(b, "%d. %s\n", i+1, text)
	}
	b.WriteString("\n")
}

func (r *Renderer) writeAudit(b *strings.Builder, result *simulation.RunResult) {
	b.WriteString("## Audit Trail\n\n")
	if len(result.Audit) == 0 {
		b.WriteString("No audit entries recorded.\n")
		return
	}

	for _, entry := range result.Audit {
		fmt.Fprintf(b, "- `%s` %s\n", entry.Level, entry.Message)
	}
}

// sortedKeys returns map keys in stable order so reports are reproducible
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

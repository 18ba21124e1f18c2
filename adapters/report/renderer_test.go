package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gosynth/domain/core"
	"gosynth/domain/simulation"
	"gosynth/domain/study"
)

func reportableRun() *simulation.RunResult {
	summary := simulation.NewSummary()
	summary.SampleResponses = append(summary.SampleResponses, "I keep thinking something is wrong.")

	diag := simulation.NewDiagnostics()
	diag.ConditionStats = simulation.ConditionStats{
		"Anxiety": {
			"cond_support": {Mean: 3.52, SD: 0.48, N: 30},
			"cond_threat":  {Mean: 5.47, SD: 0.61, N: 30},
		},
	}
	diag.EffectSizes = append(diag.EffectSizes, simulation.EffectSizeRecord{
		Measure:    "Anxiety",
		Condition1: "cond_threat",
		Condition2: "cond_support",
		CohensD:    3.551,
		Magnitude:  simulation.MagnitudeLarge,
		MeanDiff:   1.95,
		Power:      1.0,
		RequiredN:  3,
	})

	return &simulation.RunResult{
		RunID:       core.RunID("run_report"),
		Seed:        42,
		Population:  60,
		DesignType:  study.DesignBetweenSubjects,
		ScoringMode: "independent",
		Diagnostics: diag,
		Summary:     summary,
		Fingerprint: core.Hash("feedface"),
		Audit: []simulation.AuditEntry{
			simulation.NewAudit(simulation.AuditInfo, "Generated 60 persona templates"),
		},
		StartedAt:   core.Now(),
		CompletedAt: core.Now(),
	}
}

func TestMarkdownReport(t *testing.T) {
	md := string(NewRenderer().Markdown(reportableRun()))

	for _, want := range []string{
		"# Simulation Run run_report",
		"| Anxiety | cond_support | 3.52 | 0.48 | 30 |",
		"| Anxiety | cond_threat | 5.47 | 0.61 | 30 |",
		"| Anxiety | cond_threat vs cond_support | 3.551 | large | 1.95 | 1.000 | 3 |",
		"None detected.",
		"1. I keep thinking something is wrong.",
		"Generated 60 persona templates",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown report missing %q", want)
		}
	}

	// Support sorts before threat, so the support row must come first
	supportIdx := strings.Index(md, "cond_support | 3.52")
	threatIdx := strings.Index(md, "cond_threat | 5.47")
	if supportIdx == -1 || threatIdx == -1 || supportIdx > threatIdx {
		t.Error("condition rows out of order")
	}
}

func TestHTMLReport(t *testing.T) {
	page := string(NewRenderer().HTML(reportableRun()))

	for _, want := range []string{
		"<html>",
		"<title>Simulation Run run_report</title>",
		"<table>",
		"cond_threat",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("html report missing %q", want)
		}
	}
}

func TestWriteFileFormats(t *testing.T) {
	dir := t.TempDir()
	result := reportableRun()
	renderer := NewRenderer()

	mdPath := filepath.Join(dir, "report.md")
	if err := renderer.WriteFile(result, mdPath); err != nil {
		t.Fatalf("failed to write markdown report: %v", err)
	}
	mdContent, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("failed to read markdown report: %v", err)
	}
	if !strings.HasPrefix(string(mdContent), "# Simulation Run") {
		t.Error("markdown file does not start with the report heading")
	}

	htmlPath := filepath.Join(dir, "report.html")
	if err := renderer.WriteFile(result, htmlPath); err != nil {
		t.Fatalf("failed to write html report: %v", err)
	}
	htmlContent, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("failed to read html report: %v", err)
	}
	if !strings.Contains(string(htmlContent), "<table>") {
		t.Error("html file missing rendered table")
	}
}

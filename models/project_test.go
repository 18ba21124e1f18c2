package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gosynth/domain/core"
	"gosynth/domain/simulation"
	"gosynth/domain/study"
)

func validProjectState() *ProjectState {
	state := NewProjectState("proj_attachment_01")
	state.RQ = map[string]interface{}{
		"question":   "Does attachment anxiety amplify threat appraisal?",
		"population": "adults in committed relationships",
	}
	state.Design = &study.ExperimentDesign{
		ID:         "design_attachment",
		DesignType: study.DesignBetweenSubjects,
		Conditions: []study.Condition{
			{ID: "cond_threat", Label: "Threat prime", ManipulationDescription: "Partner ambiguity vignette"},
			{ID: "cond_support", Label: "Support prime", ManipulationDescription: "Partner reassurance vignette"},
		},
		Measures: []study.Measure{
			{ID: "anxiety", Label: "Anxiety", Scale: "1-7 Likert", TimePoints: []string{"post"}},
		},
		SampleSizePlan: &study.SampleSizePlan{
			AssumedEffectSize: "medium",
			PerConditionMin:   20,
			PerConditionMax:   40,
		},
	}
	state.Stimuli = []study.StimulusItem{
		{
			ID:   "stim_threat_1",
			Text: "Your partner has not replied to your message all day.",
			Metadata: study.StimulusMetadata{
				Valence:           study.ValenceNegative,
				Intensity:         study.IntensityHigh,
				AssignedCondition: "cond_threat",
			},
		},
		{
			ID:   "stim_support_1",
			Text: "Your partner sends a note saying they are thinking of you.",
			Metadata: study.StimulusMetadata{
				Valence:           study.ValencePositive,
				Intensity:         study.IntensityMedium,
				AssignedCondition: "cond_support",
			},
		},
	}
	return state
}

func TestProjectState_Validate(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*ProjectState)
		wantCount    int
		wantLevel    simulation.AuditLevel
		wantLocation string
	}{
		{
			name:      "Valid project",
			mutate:    func(p *ProjectState) {},
			wantCount: 0,
		},
		{
			name:         "Missing design",
			mutate:       func(p *ProjectState) { p.Design = nil },
			wantCount:    1,
			wantLevel:    simulation.AuditError,
			wantLocation: "design",
		},
		{
			name: "Too few conditions",
			mutate: func(p *ProjectState) {
				p.Design.Conditions = p.Design.Conditions[:1]
				p.Stimuli = p.Stimuli[:1]
			},
			wantCount:    1,
			wantLevel:    simulation.AuditError,
			wantLocation: "design.conditions",
		},
		{
			name:         "Design without measures",
			mutate:       func(p *ProjectState) { p.Design.Measures = nil },
			wantCount:    1,
			wantLevel:    simulation.AuditError,
			wantLocation: "design.measures",
		},
		{
			name:         "No stimuli",
			mutate:       func(p *ProjectState) { p.Stimuli = nil },
			wantCount:    1,
			wantLevel:    simulation.AuditError,
			wantLocation: "stimuli",
		},
		{
			name: "Unassigned stimulus",
			mutate: func(p *ProjectState) {
				p.Stimuli[0].Metadata.AssignedCondition = ""
			},
			wantCount:    1,
			wantLevel:    simulation.AuditWarning,
			wantLocation: "stimuli.metadata.assigned_condition",
		},
		{
			name: "Stimulus references unknown condition",
			mutate: func(p *ProjectState) {
				p.Stimuli[0].Metadata.AssignedCondition = "cond_ghost"
			},
			wantCount:    1,
			wantLevel:    simulation.AuditWarning,
			wantLocation: "stimuli.metadata.assigned_condition",
		},
		{
			name: "Dead variables flagged",
			mutate: func(p *ProjectState) {
				summary := simulation.NewSummary()
				summary.DeadVars = []string{"Mood"}
				p.Simulation = &summary
			},
			wantCount:    1,
			wantLevel:    simulation.AuditWarning,
			wantLocation: "simulation.dead_vars",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := validProjectState()
			tt.mutate(state)

			findings := state.Validate()

			if len(findings) != tt.wantCount {
				t.Fatalf("Expected %d findings for %s, got %d: %v", tt.wantCount, tt.name, len(findings), findings)
			}
			if tt.wantCount == 0 {
				return
			}
			if findings[0].Level != tt.wantLevel {
				t.Errorf("Expected level %s, got %s", tt.wantLevel, findings[0].Level)
			}
			if findings[0].Location != tt.wantLocation {
				t.Errorf("Expected location %s, got %s", tt.wantLocation, findings[0].Location)
			}
		})
	}
}

func TestProjectState_ValidateDeadVarDetails(t *testing.T) {
	state := validProjectState()
	summary := simulation.NewSummary()
	summary.DeadVars = []string{"Mood", "Trust"}
	state.Simulation = &summary

	findings := state.Validate()
	if len(findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d", len(findings))
	}
	if findings[0].Details == nil {
		t.Fatal("Expected dead-var finding to carry details")
	}
	if _, ok := findings[0].Details["dead_vars"]; !ok {
		t.Error("Expected details to list the dead variables")
	}
}

func TestHasBlockingFindings(t *testing.T) {
	tests := []struct {
		name     string
		findings []simulation.AuditEntry
		want     bool
	}{
		{
			name:     "No findings",
			findings: nil,
			want:     false,
		},
		{
			name: "Warnings only",
			findings: []simulation.AuditEntry{
				simulation.NewAudit(simulation.AuditWarning, "stimulus unassigned"),
			},
			want: false,
		},
		{
			name: "Error present",
			findings: []simulation.AuditEntry{
				simulation.NewAudit(simulation.AuditWarning, "stimulus unassigned"),
				simulation.NewAudit(simulation.AuditError, "design missing"),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasBlockingFindings(tt.findings); got != tt.want {
				t.Errorf("Expected %v for %s, got %v", tt.want, tt.name, got)
			}
		})
	}
}

func TestProjectState_ApplyRunResult(t *testing.T) {
	state := validProjectState()
	state.AuditLog = append(state.AuditLog,
		simulation.NewAudit(simulation.AuditInfo, "Design module complete"))

	summary := simulation.NewSummary()
	summary.DVSummary["Anxiety"] = map[string]simulation.ConditionCell{
		"cond_threat":  {Mean: 5.4, SD: 0.6, N: 30},
		"cond_support": {Mean: 3.2, SD: 0.5, N: 30},
	}
	result := &simulation.RunResult{
		RunID:      core.RunID("run_apply_test"),
		Population: 60,
		Summary:    summary,
		Audit: []simulation.AuditEntry{
			simulation.NewAudit(simulation.AuditInfo, "Generated 60 persona templates"),
			simulation.NewAudit(simulation.AuditInfo, "Simulated 60 participants"),
		},
	}

	state.ApplyRunResult(result)

	if state.Simulation == nil {
		t.Fatal("Expected simulation summary to be stored")
	}
	if got := state.Simulation.DVSummary["Anxiety"]["cond_threat"].Mean; got != 5.4 {
		t.Errorf("Expected stored threat mean 5.4, got %f", got)
	}
	if len(state.AuditLog) != 3 {
		t.Fatalf("Expected 3 audit entries after apply, got %d", len(state.AuditLog))
	}
	if state.AuditLog[0].Message != "Design module complete" {
		t.Errorf("Expected existing audit entries to stay first, got %s", state.AuditLog[0].Message)
	}
	if state.AuditLog[2].Message != "Simulated 60 participants" {
		t.Errorf("Expected run audit appended in order, got %s", state.AuditLog[2].Message)
	}
}

func TestProjectState_RecordFailure(t *testing.T) {
	state := validProjectState()

	state.RecordFailure(fmt.Errorf("scoring backend offline"))

	if len(state.AuditLog) != 1 {
		t.Fatalf("Expected 1 audit entry, got %d", len(state.AuditLog))
	}
	entry := state.AuditLog[0]
	if entry.Level != simulation.AuditError {
		t.Errorf("Expected error level, got %s", entry.Level)
	}
	if entry.Message != "Simulation module error: scoring backend offline" {
		t.Errorf("Unexpected failure message: %s", entry.Message)
	}
}

func TestProjectState_YAMLRoundTrip(t *testing.T) {
	state := validProjectState()
	summary := simulation.NewSummary()
	summary.DVSummary["Anxiety"] = map[string]simulation.ConditionCell{
		"cond_threat": {Mean: 5.5, SD: 0.5, N: 30},
	}
	summary.DeadVars = []string{"Mood"}
	summary.SampleResponses = []string{"This reminds me of my own relationship."}
	state.Simulation = &summary
	state.AuditLog = append(state.AuditLog,
		simulation.NewAudit(simulation.AuditInfo, "Simulated 60 participants").
			WithLocation("simulation").
			WithDetails(map[string]interface{}{"population": 60}))
	state.CheckpointID = "chk_0042"

	path := filepath.Join(t.TempDir(), "project.yaml")
	if err := state.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	for _, key := range []string{"project_id:", "design_type:", "assigned_condition:", "dv_summary:", "audit_log:"} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("Expected yaml output to contain key %q", key)
		}
	}

	loaded, err := LoadProjectState(path)
	if err != nil {
		t.Fatalf("LoadProjectState failed: %v", err)
	}
	if loaded.ProjectID != state.ProjectID {
		t.Errorf("Expected project id %s, got %s", state.ProjectID, loaded.ProjectID)
	}
	if loaded.RQ["question"] != state.RQ["question"] {
		t.Errorf("Expected research question to survive, got %v", loaded.RQ["question"])
	}
	if loaded.Design == nil || len(loaded.Design.Conditions) != 2 {
		t.Fatalf("Expected design with 2 conditions, got %+v", loaded.Design)
	}
	if loaded.Design.Conditions[0].ID != "cond_threat" {
		t.Errorf("Expected first condition cond_threat, got %s", loaded.Design.Conditions[0].ID)
	}
	if loaded.Design.SampleSizePlan == nil || loaded.Design.SampleSizePlan.Midpoint() != 30 {
		t.Errorf("Expected sample size plan midpoint 30, got %+v", loaded.Design.SampleSizePlan)
	}
	if len(loaded.Stimuli) != 2 {
		t.Fatalf("Expected 2 stimuli, got %d", len(loaded.Stimuli))
	}
	if loaded.Stimuli[1].Metadata.AssignedCondition != "cond_support" {
		t.Errorf("Expected stimulus assignment to survive, got %s", loaded.Stimuli[1].Metadata.AssignedCondition)
	}
	if loaded.Simulation == nil {
		t.Fatal("Expected simulation summary to survive")
	}
	if got := loaded.Simulation.DVSummary["Anxiety"]["cond_threat"].Mean; got != 5.5 {
		t.Errorf("Expected threat mean 5.5, got %f", got)
	}
	if len(loaded.Simulation.DeadVars) != 1 || loaded.Simulation.DeadVars[0] != "Mood" {
		t.Errorf("Expected dead vars to survive, got %v", loaded.Simulation.DeadVars)
	}
	if len(loaded.AuditLog) != 1 {
		t.Fatalf("Expected 1 audit entry, got %d", len(loaded.AuditLog))
	}
	if loaded.AuditLog[0].Location != "simulation" {
		t.Errorf("Expected audit location to survive, got %s", loaded.AuditLog[0].Location)
	}
	if loaded.CheckpointID != "chk_0042" {
		t.Errorf("Expected checkpoint id to survive, got %s", loaded.CheckpointID)
	}
}

func TestProjectState_JSONRoundTrip(t *testing.T) {
	state := validProjectState()
	path := filepath.Join(t.TempDir(), "project.json")

	if err := state.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := LoadProjectState(path)
	if err != nil {
		t.Fatalf("LoadProjectState failed: %v", err)
	}

	if loaded.ProjectID != state.ProjectID {
		t.Errorf("Expected project id %s, got %s", state.ProjectID, loaded.ProjectID)
	}
	if loaded.Design.DesignType != study.DesignBetweenSubjects {
		t.Errorf("Expected between_subjects design, got %s", loaded.Design.DesignType)
	}
	if loaded.AuditLog == nil {
		t.Error("Expected audit log to be initialized on load")
	}
}

func TestLoadProjectState_Errors(t *testing.T) {
	if _, err := LoadProjectState(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(bad, []byte("{{{not yaml"), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	if _, err := LoadProjectState(bad); err == nil {
		t.Error("Expected error for malformed yaml")
	}
}

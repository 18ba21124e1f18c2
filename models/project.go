package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"gosynth/domain/simulation"
	"gosynth/domain/study"
)

// ProjectState is the workflow document the external driver passes between
// modules. The simulator reads design and stimuli, writes the simulation
// summary, and appends to the audit log; upstream artifacts (research
// question, concepts, hypotheses) pass through untouched.
type ProjectState struct {
	ProjectID    string                   `json:"project_id"`
	RQ           map[string]interface{}   `json:"rq,omitempty"`
	Concepts     []map[string]interface{} `json:"concepts,omitempty"`
	Hypotheses   []map[string]interface{} `json:"hypotheses,omitempty"`
	Design       *study.ExperimentDesign  `json:"design,omitempty"`
	Stimuli      []study.StimulusItem     `json:"stimuli,omitempty"`
	Simulation   *simulation.Summary      `json:"simulation,omitempty"`
	AuditLog     []simulation.AuditEntry  `json:"audit_log"`
	CheckpointID string                   `json:"checkpoint_id,omitempty"`
}

// NewProjectState creates an empty project document
func NewProjectState(projectID string) *ProjectState {
	return &ProjectState{
		ProjectID: projectID,
		AuditLog:  []simulation.AuditEntry{},
	}
}

// LoadProjectState reads a project document from a YAML or JSON file,
// switching on the file extension
func LoadProjectState(path string) (*ProjectState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file %s: %w", path, err)
	}

	if isYAMLPath(path) {
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse project file %s: %w", path, err)
		}
	}

	var state ProjectState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse project file %s: %w", path, err)
	}
	if state.AuditLog == nil {
		state.AuditLog = []simulation.AuditEntry{}
	}
	return &state, nil
}

// Save writes the project document back to disk in the format the path's
// extension names
func (p *ProjectState) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project state: %w", err)
	}

	if isYAMLPath(path) {
		data, err = jsonToYAML(data)
		if err != nil {
			return fmt.Errorf("failed to render project state as yaml: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write project file %s: %w", path, err)
	}
	return nil
}

// ApplyRunResult stores a completed run in the project: the summary becomes
// the simulation artifact and the run's audit entries join the project log
func (p *ProjectState) ApplyRunResult(result *simulation.RunResult) {
	summary := result.Summary
	p.Simulation = &summary
	p.AuditLog = append(p.AuditLog, result.Audit...)
}

// RecordFailure appends the module-error audit entry the workflow driver
// expects when a run fails
func (p *ProjectState) RecordFailure(err error) {
	p.AuditLog = append(p.AuditLog, simulation.NewAudit(simulation.AuditError,
		fmt.Sprintf("Simulation module error: %s", err)))
}

// Validate checks the project document for the findings the review workflow
// surfaces before and after a simulation run. Findings are returned, not
// appended, so callers decide what enters the audit log.
func (p *ProjectState) Validate() []simulation.AuditEntry {
	findings := make([]simulation.AuditEntry, 0)

	if p.Design == nil {
		findings = append(findings, simulation.NewAudit(simulation.AuditError,
			"No experimental design found. Run design module first.").WithLocation("design"))
	} else {
		if len(p.Design.Conditions) < 2 {
			findings = append(findings, simulation.NewAudit(simulation.AuditError,
				"Design must include at least two conditions").WithLocation("design.conditions"))
		}
		if len(p.Design.Measures) == 0 {
			findings = append(findings, simulation.NewAudit(simulation.AuditError,
				"Design must define at least one outcome measure").WithLocation("design.measures"))
		}
	}

	if len(p.Stimuli) == 0 {
		findings = append(findings, simulation.NewAudit(simulation.AuditError,
			"No stimuli found. Run stimulus module first.").WithLocation("stimuli"))
	} else {
		for _, stim := range p.Stimuli {
			if stim.Metadata.AssignedCondition == "" {
				findings = append(findings, simulation.NewAudit(simulation.AuditWarning,
					fmt.Sprintf("Stimulus %s has no assigned condition", stim.ID)).
					WithLocation("stimuli.metadata.assigned_condition"))
				continue
			}
			if p.Design != nil {
				if _, ok := p.Design.ConditionByID(stim.Metadata.AssignedCondition); !ok {
					findings = append(findings, simulation.NewAudit(simulation.AuditWarning,
						fmt.Sprintf("Stimulus %s references unknown condition %s",
							stim.ID, stim.Metadata.AssignedCondition)).
						WithLocation("stimuli.metadata.assigned_condition"))
				}
			}
		}
	}

	if p.Simulation != nil && len(p.Simulation.DeadVars) > 0 {
		findings = append(findings, simulation.NewAudit(simulation.AuditWarning,
			fmt.Sprintf("Simulation flagged %d dead variables", len(p.Simulation.DeadVars))).
			WithLocation("simulation.dead_vars").
			WithDetails(map[string]interface{}{"dead_vars": p.Simulation.DeadVars}))
	}

	return findings
}

// HasBlockingFindings reports whether any validation finding is an error
func HasBlockingFindings(findings []simulation.AuditEntry) bool {
	for _, f := range findings {
		if f.Level == simulation.AuditError {
			return true
		}
	}
	return false
}

// isYAMLPath reports whether the path names a YAML document. JSON is the
// only other supported format.
func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// yamlToJSON rebuilds a YAML document as JSON so the json-tagged state
// structs can decode it
func yamlToJSON(data []byte) ([]byte, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

// jsonToYAML renders marshaled JSON as a YAML document
func jsonToYAML(data []byte) ([]byte, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return yaml.Marshal(raw)
}

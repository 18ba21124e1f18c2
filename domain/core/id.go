package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	ProjectID     ID
	RunID         ID
	ParticipantID ID
	ConditionID   ID
	MeasureID     ID
	StimulusID    ID
)

// String conversions for domain IDs
func (id ProjectID) String() string     { return ID(id).String() }
func (id RunID) String() string         { return ID(id).String() }
func (id ParticipantID) String() string { return ID(id).String() }
func (id ConditionID) String() string   { return ID(id).String() }
func (id MeasureID) String() string     { return ID(id).String() }
func (id StimulusID) String() string    { return ID(id).String() }

// ParseProjectID parses a string into ProjectID
func ParseProjectID(s string) (ProjectID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("project ID cannot be empty")
	}
	return ProjectID(s), nil
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParseConditionID parses a string into ConditionID
func ParseConditionID(s string) (ConditionID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("condition ID cannot be empty")
	}
	return ConditionID(s), nil
}

// ParseMeasureID parses a string into MeasureID
func ParseMeasureID(s string) (MeasureID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("measure ID cannot be empty")
	}
	return MeasureID(s), nil
}

// ParticipantIDAt builds the deterministic identifier for the participant at
// the given position in a generated population (1-based numbering).
func ParticipantIDAt(index int) ParticipantID {
	return ParticipantID(fmt.Sprintf("persona_%04d", index+1))
}

package validation

import (
	"strings"

	"aigate/internal/errors"
	"aigate/internal/trend"
)

// Stage is the furthest gate stage a dataset reached
type Stage string

const (
	StageSchema   Stage = "schema"
	StageSemantic Stage = "semantic"
	StageBusiness Stage = "business"
	StagePassed   Stage = "passed"
)

// Verdict is the gate decision for one candidate dataset
type Verdict struct {
	Stage                Stage    `json:"stage"`
	Passed               bool     `json:"passed"`
	SchemaValid          bool     `json:"schemaValid"`
	SemanticValid        bool     `json:"semanticValid"`
	BusinessValid        bool     `json:"businessValid"`
	Warnings             []string `json:"warnings"`
	Errors               []string `json:"errors"`
	RequiresConfirmation bool     `json:"requiresConfirmation"`
	CanRender            bool     `json:"canRender"`
	// Confirmed is set once the user has acknowledged the confirmation warnings
	Confirmed bool `json:"confirmed,omitempty"`
	// Direction is the trend the narrative was checked against
	Direction trend.Direction `json:"direction,omitempty"`
}

// StageResult is the outcome of a single stage
type StageResult struct {
	Valid                bool
	Errors               []string
	Warnings             []string
	RequiresConfirmation bool
}

func (v *Verdict) finalize() {
	v.Passed = v.SchemaValid && v.SemanticValid && v.BusinessValid
	// narrative problems never block the data; pending confirmation always does, even when
	// every stage passed, so the data is never rendered before the user acknowledges it
	v.CanRender = v.SchemaValid && v.SemanticValid && (!v.RequiresConfirmation || v.Confirmed)
	if v.Warnings == nil {
		v.Warnings = []string{}
	}
	if v.Errors == nil {
		v.Errors = []string{}
	}
}

// Err returns the fatal failure of a verdict: STRUCTURAL_ERROR when the schema stage
// rejected the dataset, SEMANTIC_ERROR when the semantic stage did. Warnings are never fatal.
func (v Verdict) Err() error {
	switch {
	case !v.SchemaValid:
		return errors.Structural(strings.Join(v.Errors, "; "))
	case !v.SemanticValid:
		return errors.Semantic(strings.Join(v.Errors, "; "))
	default:
		return nil
	}
}

// Confirm applies the user's acknowledgement of the confirmation warnings
func Confirm(v Verdict) Verdict {
	if !v.RequiresConfirmation {
		return v
	}
	v.Confirmed = true
	v.finalize()
	return v
}

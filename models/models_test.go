package models

import (
	"testing"
)

func TestDecisionLog_Validate(t *testing.T) {
	tests := []struct {
		name        string
		log         DecisionLog
		expectError bool
	}{
		{
			name:        "Valid decision",
			log:         DecisionLog{Module: ModuleChart, Errors: `[]`, Warnings: `["Zero value at \"Jan\" (point 1)"]`, ResponseTimeMs: 12},
			expectError: false,
		},
		{
			name:        "Valid - unknown module is still stored",
			log:         DecisionLog{Module: "forecast", Errors: `["no data"]`, Warnings: `[]`},
			expectError: false,
		},
		{
			name:        "Invalid - missing module",
			log:         DecisionLog{Errors: `[]`, Warnings: `[]`},
			expectError: true,
		},
		{
			name:        "Invalid - negative response time",
			log:         DecisionLog{Module: ModuleChat, Errors: `[]`, Warnings: `[]`, ResponseTimeMs: -1},
			expectError: true,
		},
		{
			name:        "Invalid - errors not JSON",
			log:         DecisionLog{Module: ModuleChat, Errors: `no data`, Warnings: `[]`},
			expectError: true,
		},
		{
			name:        "Invalid - warnings empty string",
			log:         DecisionLog{Module: ModuleReport, Errors: `[]`, Warnings: ``},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.log.Validate()

			if tt.expectError && err == nil {
				t.Errorf("Expected error for %s, got nil", tt.name)
			}

			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error for %s: %v", tt.name, err)
			}
		})
	}
}

func TestIsKnownModule(t *testing.T) {
	for _, module := range []string{ModuleChat, ModuleChart, ModuleReport, ModuleLetter, ModuleInsight} {
		if !IsKnownModule(module) {
			t.Errorf("Expected %q to be a known module", module)
		}
	}
	if IsKnownModule("forecast") {
		t.Errorf("Expected forecast to be unknown")
	}
}

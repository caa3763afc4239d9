package version

import (
	"testing"

	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckEngineConstraint(t *testing.T) {
	tests := []struct {
		name          string
		binary        string
		constraint    string
		expectError   bool
		errorContains string
	}{
		{
			name:       "empty constraint",
			binary:     "0.3.1",
			constraint: "",
		},
		{
			name:       "lower bound satisfied",
			binary:     "0.3.1",
			constraint: ">= 0.3",
		},
		{
			name:       "v prefix stripped",
			binary:     "v0.3.1",
			constraint: ">= 0.3, < 0.4",
		},
		{
			name:       "caret range",
			binary:     "1.4.0",
			constraint: "^1.2",
		},
		{
			name:          "tilde range violated",
			binary:        "0.3.1",
			constraint:    "~0.2",
			expectError:   true,
			errorContains: "does not satisfy",
		},
		{
			name:          "upper bound violated",
			binary:        "2.0.0",
			constraint:    "< 2",
			expectError:   true,
			errorContains: "does not satisfy",
		},
		{
			name:       "development build",
			binary:     "main",
			constraint: "^9",
		},
		{
			name:          "malformed constraint",
			binary:        "0.3.1",
			constraint:    "not a range",
			expectError:   true,
			errorContains: "invalid engine constraint",
		},
		{
			name:          "malformed binary version",
			binary:        "nightly",
			constraint:    ">= 0.1",
			expectError:   true,
			errorContains: "invalid binary version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckEngineConstraint(tt.binary, tt.constraint)

			if !tt.expectError {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestCheckEngineConstraintCodes(t *testing.T) {
	err := CheckEngineConstraint("0.1.0", ">= 0.2")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
}

package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationReportAnySingleFailure(t *testing.T) {
	for _, failing := range RequiredChecks {
		t.Run(failing, func(t *testing.T) {
			r := NewValidationReport()
			for _, name := range RequiredChecks {
				r.Require(name, name != failing, "broken")
			}

			assert.False(t, r.OK)
			assert.Equal(t, []string{failing}, r.FailedChecks())
			require.Len(t, r.Errors, 1)
			assert.True(t, strings.HasPrefix(r.Errors[0], failing+":"))

			err := r.Err("instance")
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Contains(t, err.Error(), failing)
		})
	}
}

func TestValidationReportAdvisoryNeverBlocks(t *testing.T) {
	r := NewValidationReport()
	r.Require(CheckMainClass, true, "")
	r.Advise(CheckPathLength, false, "path is %d chars", 300)
	r.Advise(CheckLogsDir, false, "missing")

	assert.True(t, r.OK)
	assert.Len(t, r.Warnings, 2)
	assert.Nil(t, r.Err("x"))
}

func TestValidationReportFirstFailureSticks(t *testing.T) {
	r := NewValidationReport()
	r.Require(CheckClasspathEntries, false, "a")
	r.Require(CheckClasspathEntries, true, "")
	assert.False(t, r.Checks[CheckClasspathEntries])
	assert.False(t, r.OK)
}

func TestRepairModes(t *testing.T) {
	for _, m := range RepairModes {
		got, err := ParseRepairMode(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseRepairMode("nuke")
	assert.Error(t, err)
	assert.False(t, RepairVerifyOnly.Mutates())
	assert.True(t, RepairSmart.Mutates())

	r := NewRepairReport(RepairFull)
	r.Fixed["mods"] = 2
	r.Fixed["libraries"] = 3
	assert.Equal(t, 5, r.TotalFixed())
}

func TestErrorTaxonomy(t *testing.T) {
	base := fmt.Errorf("connection refused")
	err := NewError(KindNetwork, "download", "https://example.invalid/x.jar", base).
		WithHint("check your connection").
		WithArtifacts("/tmp/a.log")
	wrapped := fmt.Errorf("bootstrap: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNetwork))
	assert.False(t, errors.Is(wrapped, ErrIntegrity))
	assert.True(t, errors.Is(wrapped, base))
	assert.Equal(t, KindNetwork, KindOf(wrapped))
	assert.Equal(t, ErrorKind(""), KindOf(base))

	text := Describe(wrapped)
	assert.Contains(t, text, "download https://example.invalid/x.jar: connection refused")
	assert.Contains(t, text, "hint: check your connection")
	assert.Contains(t, text, "see: /tmp/a.log")

	assert.False(t, CrashUnknown.IsLoaderFailure())
	assert.True(t, CrashCorruptJar.IsLoaderFailure())
}

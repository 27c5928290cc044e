package cmdshared

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leocov-dev/launchwiz/core"
)

func TestPromptYesNo(t *testing.T) {
	viper.Set("non-interactive", false)
	t.Cleanup(func() { viper.Set("non-interactive", false) })

	cases := map[string]bool{
		"n\n":   false,
		"No\n":  false,
		"y\n":   true,
		"\n":    true,
		"":      true,
		"yes\n": true,
	}
	for in, want := range cases {
		got, err := promptYesNo(strings.NewReader(in), "? ")
		require.NoError(t, err)
		assert.Equal(t, want, got, "%q", in)
	}

	viper.Set("non-interactive", true)
	got, err := promptYesNo(strings.NewReader("n\n"), "? ")
	require.NoError(t, err)
	assert.True(t, got)
}

func TestChooseRepairModeNonInteractive(t *testing.T) {
	viper.Set("non-interactive", true)
	t.Cleanup(func() { viper.Set("non-interactive", false) })

	mode, err := ChooseRepairMode()
	require.NoError(t, err)
	assert.Equal(t, core.RepairSmart, mode)
	for _, m := range core.RepairModes {
		assert.NotEmpty(t, repairModeHelp[m], m)
	}
}

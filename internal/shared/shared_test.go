package shared

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanName(t *testing.T) {
	cases := map[string]string{
		"ModEarlyBootIncompatibility": "Mod Early Boot Incompatibility",
		"CorruptJar":                  "Corrupt Jar",
		"reinstall-loader":            "Reinstall Loader",
		"verify-only":                 "Verify Only",
	}
	for in, want := range cases {
		assert.Equal(t, want, HumanName(in), in)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/games/mc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "games", "mc"), got)

	got, err = ExpandPath("relative")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))

	got, err = ExpandPath("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

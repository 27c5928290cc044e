package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugifyName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Basic lowercase conversion",
			input: "Hello World",
			want:  "hello-world",
		},
		{
			name:  "Remove parentheses and content inside",
			input: "Survival (Fabric)",
			want:  "survival",
		},
		{
			name:  "Remove suffix after hyphen-space",
			input: "Skyblock - Season 2",
			want:  "skyblock",
		},
		{
			name:  "Replace non-alphanumeric with hyphens",
			input: "All the Mods! 9",
			want:  "all-the-mods-9",
		},
		{
			name:  "Collapse multiple hyphens",
			input: "Hello---World",
			want:  "hello-world",
		},
		{
			name:  "Remove leading and trailing hyphens",
			input: "-hello-world-",
			want:  "hello-world",
		},
		{
			name:  "Empty string",
			input: "",
			want:  "",
		},
		{
			name:  "Only special characters",
			input: "!@#$%^&*",
			want:  "",
		},
		{
			name:  "Keep dots in versions",
			input: "Create 1.20.1",
			want:  "create-1.20.1",
		},
		{
			name:  "Trim edge separators",
			input: "_private.",
			want:  "private",
		},
		{
			name:  "Cap the length",
			input: strings.Repeat("a", 70),
			want:  strings.Repeat("a", MaxSlugLength),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SlugifyName(tt.input))
		})
	}
}

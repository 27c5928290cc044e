package core

import (
	"regexp"
	"strings"
)

// MaxSlugLength bounds instance ids so they stay usable as directory names.
const MaxSlugLength = 64

var (
	slugBrackets   = regexp.MustCompile(`\(.*\)`)
	slugSuffix     = regexp.MustCompile(` - .+`)
	slugInvalid    = regexp.MustCompile(`[^a-z\d._]`)
	slugDashes     = regexp.MustCompile(`-+`)
	slugEdgeDashes = regexp.MustCompile(`^[-._]+|[-._]+$`)
)

// SlugifyName turns a display name such as "Skyblock (1.20) - Season 2" into
// an instance id ("skyblock"). It returns "" when nothing usable is left.
func SlugifyName(name string) string {
	slug := strings.ToLower(name)
	slug = slugBrackets.ReplaceAllString(slug, "")
	slug = slugSuffix.ReplaceAllString(slug, "")
	slug = slugInvalid.ReplaceAllString(slug, "-")
	slug = slugDashes.ReplaceAllString(slug, "-")
	slug = slugEdgeDashes.ReplaceAllString(slug, "")
	if len(slug) > MaxSlugLength {
		slug = slugEdgeDashes.ReplaceAllString(slug[:MaxSlugLength], "")
	}
	return slug
}

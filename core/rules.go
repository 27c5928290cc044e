package core

import (
	"regexp"
	"runtime"
)

// Platform describes the host the rules are evaluated for.
type Platform struct {
	OS       string // windows, osx, linux
	Arch     string // x86, x86_64, arm64
	Version  string // OS version string, matched against rule os.version regexes
	Features map[string]bool
}

func CurrentPlatform() Platform {
	return Platform{
		OS:       MojangOSName(runtime.GOOS),
		Arch:     MojangArch(runtime.GOARCH),
		Features: map[string]bool{},
	}
}

// MojangOSName maps GOOS to the names used in version documents.
func MojangOSName(goos string) string {
	switch goos {
	case "darwin":
		return "osx"
	case "windows":
		return "windows"
	default:
		return "linux"
	}
}

func MojangArch(goarch string) string {
	switch goarch {
	case "386":
		return "x86"
	case "arm64":
		return "arm64"
	case "arm":
		return "arm32"
	default:
		return "x86_64"
	}
}

// Rule is a typed view over one entry of a "rules" list.
type Rule struct {
	Action string `mapstructure:"action"`
	OS     struct {
		Name    string `mapstructure:"name"`
		Arch    string `mapstructure:"arch"`
		Version string `mapstructure:"version"`
	} `mapstructure:"os"`
	Features map[string]bool `mapstructure:"features"`
}

func (r Rule) matches(p Platform) bool {
	if r.OS.Name != "" && r.OS.Name != p.OS {
		return false
	}
	if r.OS.Arch != "" && r.OS.Arch != p.Arch {
		return false
	}
	if r.OS.Version != "" && p.Version != "" {
		re, err := regexp.Compile(r.OS.Version)
		if err == nil && !re.MatchString(p.Version) {
			return false
		}
	}
	for feature, want := range r.Features {
		if p.Features[feature] != want {
			return false
		}
	}
	return true
}

// RulesAllow evaluates a rules list: absent rules allow, otherwise start from
// disallow and let the last matching rule decide.
func RulesAllow(rules []interface{}, p Platform) bool {
	if len(rules) == 0 {
		return true
	}
	allowed := false
	for _, raw := range rules {
		var r Rule
		if err := DecodeValue(raw, &r); err != nil {
			continue
		}
		if r.matches(p) {
			allowed = r.Action == "allow"
		}
	}
	return allowed
}

// ClasspathSeparator is ';' on Windows and ':' elsewhere.
func (p Platform) ClasspathSeparator() string {
	if p.OS == "windows" {
		return ";"
	}
	return ":"
}

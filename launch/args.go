package launch

import (
	"crypto/md5"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/leocov-dev/launchwiz/core"
)

var placeholderPattern = regexp.MustCompile(`\$\{([a-zA-Z0-9_]+)\}`)

// stripped arguments never reach the command line.
var strippedArgs = map[string]bool{"--demo": true}

// argumentEntry is the object form of an arguments list element.
type argumentEntry struct {
	Rules []interface{} `mapstructure:"rules"`
	Value interface{}   `mapstructure:"value"`
}

// collectArguments flattens an arguments list, keeping plain strings and the
// values of objects whose rules allow the platform.
func collectArguments(list []interface{}, p core.Platform) []string {
	var out []string
	for _, raw := range list {
		switch v := raw.(type) {
		case string:
			out = append(out, v)
		case map[string]interface{}:
			var entry argumentEntry
			if err := core.DecodeValue(v, &entry); err != nil {
				continue
			}
			if !core.RulesAllow(entry.Rules, p) {
				continue
			}
			switch value := entry.Value.(type) {
			case string:
				out = append(out, value)
			case []interface{}:
				for _, item := range value {
					if s, ok := item.(string); ok {
						out = append(out, s)
					}
				}
			}
		}
	}
	return out
}

// substitute replaces every ${token}; ok is false when any token has no value.
func substitute(arg string, vars map[string]string) (string, bool) {
	ok := true
	out := placeholderPattern.ReplaceAllStringFunc(arg, func(m string) string {
		name := m[2 : len(m)-1]
		if v, found := vars[name]; found {
			return v
		}
		ok = false
		return m
	})
	return out, ok
}

func isFlag(arg string) bool {
	return strings.HasPrefix(arg, "-")
}

// ExpandArguments substitutes variables into templates. An argument left with
// an unresolved placeholder is dropped together with the flag right before it,
// and --demo is always removed.
func ExpandArguments(templates []string, vars map[string]string) []string {
	out := make([]string, 0, len(templates))
	lastWasFlag := false
	for _, tmpl := range templates {
		if strippedArgs[tmpl] {
			lastWasFlag = false
			continue
		}
		arg, ok := substitute(tmpl, vars)
		if !ok {
			if lastWasFlag && !isFlag(tmpl) {
				out = out[:len(out)-1]
			}
			lastWasFlag = false
			continue
		}
		out = append(out, arg)
		lastWasFlag = isFlag(arg)
	}
	return out
}

// HasPlaceholder reports whether any argument still carries a ${token}.
func HasPlaceholder(args ...string) bool {
	for _, a := range args {
		if placeholderPattern.MatchString(a) {
			return true
		}
	}
	return false
}

// OfflineUUID derives the UUID the game assigns an offline player: a version 3
// UUID over "OfflinePlayer:<name>" without a namespace.
func OfflineUUID(name string) string {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	id, _ := uuid.FromBytes(sum[:])
	return id.String()
}

// normalizeAuth fills the fields an offline launch needs.
func normalizeAuth(auth core.Auth) core.Auth {
	if auth.PlayerName == "" {
		auth.PlayerName = "Player"
	}
	if auth.UUID == "" {
		auth.UUID = OfflineUUID(auth.PlayerName)
	}
	if auth.AccessToken == "" {
		auth.AccessToken = "0"
	}
	if auth.UserType == "" {
		auth.UserType = "legacy"
	}
	return auth
}

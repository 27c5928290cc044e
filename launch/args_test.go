package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leocov-dev/launchwiz/core"
)

func TestExpandArguments(t *testing.T) {
	vars := map[string]string{"auth_player_name": "Steve", "game_directory": "/games/a", "classpath": "a.jar:b.jar"}

	tests := []struct {
		name      string
		templates []string
		want      []string
	}{
		{"substitutes", []string{"--username", "${auth_player_name}", "-cp", "${classpath}"}, []string{"--username", "Steve", "-cp", "a.jar:b.jar"}},
		{"embedded", []string{"-Dgame=${game_directory}/x"}, []string{"-Dgame=/games/a/x"}},
		{"drops unresolved with flag", []string{"--clientId", "${clientid}", "--gameDir", "${game_directory}"}, []string{"--gameDir", "/games/a"}},
		{"drops unresolved flag value pair only", []string{"--a", "--xuid", "${auth_xuid}"}, []string{"--a"}},
		{"drops unresolved standalone", []string{"${quickPlayPath}", "--gameDir", "${game_directory}"}, []string{"--gameDir", "/games/a"}},
		{"unresolved flag keeps value", []string{"-D${unknown}=1", "plain"}, []string{"plain"}},
		{"strips demo", []string{"--demo", "--username", "${auth_player_name}"}, []string{"--username", "Steve"}},
		{"empty", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandArguments(tt.templates, vars))
		})
	}
}

func TestCollectArguments(t *testing.T) {
	list := []interface{}{
		"--plain",
		map[string]interface{}{
			"rules": []interface{}{map[string]interface{}{"action": "allow", "os": map[string]interface{}{"name": "windows"}}},
			"value": "-XX:HeapDumpPath=MojangTricksIntelDriversForPerformance_javaw.exe_minecraft.exe.heapdump",
		},
		map[string]interface{}{
			"rules": []interface{}{map[string]interface{}{"action": "allow", "os": map[string]interface{}{"arch": "x86"}}},
			"value": []interface{}{"-Xss1M"},
		},
		map[string]interface{}{"value": []interface{}{"--a", "--b"}},
		42,
	}
	assert.Equal(t, []string{"--plain", "--a", "--b"}, collectArguments(list, linux()))
	assert.Equal(t, []string{"--plain", "-Xss1M", "--a", "--b"}, collectArguments(list, core.Platform{OS: "linux", Arch: "x86"}))
}

func TestHasPlaceholder(t *testing.T) {
	assert.True(t, HasPlaceholder("a", "${b}"))
	assert.False(t, HasPlaceholder("a", "$b", "{c}"))
	assert.False(t, HasPlaceholder())
}

func TestOfflineUUID(t *testing.T) {
	assert.Equal(t, "b50ad385-829d-3141-a216-7e7d7539ba7f", OfflineUUID("Notch"))
	assert.Equal(t, OfflineUUID("Steve"), OfflineUUID("Steve"))
	assert.NotEqual(t, OfflineUUID("Steve"), OfflineUUID("steve"))
}

func TestNormalizeAuth(t *testing.T) {
	auth := normalizeAuth(core.Auth{})
	assert.Equal(t, core.Auth{PlayerName: "Player", UUID: OfflineUUID("Player"), AccessToken: "0", UserType: "legacy"}, auth)

	given := core.Auth{PlayerName: "Alex", UUID: "u", AccessToken: "t", UserType: "msa"}
	assert.Equal(t, given, normalizeAuth(given))
}

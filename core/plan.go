package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
)

// Auth is supplied by the caller; the engine never talks to an auth provider.
type Auth struct {
	PlayerName  string `json:"playerName"`
	UUID        string `json:"uuid"`
	AccessToken string `json:"accessToken"`
	UserType    string `json:"userType"`
	XUID        string `json:"xuid,omitempty"`
	ClientID    string `json:"clientId,omitempty"`
}

// LaunchPlan is everything needed to start the game, persisted as launch-plan.json.
type LaunchPlan struct {
	InstanceID         string            `json:"instanceId"`
	VersionID          string            `json:"versionId"`
	BaseVersionID      string            `json:"baseVersionId"`
	VersionType        string            `json:"versionType,omitempty"`
	Loader             LoaderKind        `json:"loader"`
	LoaderVersion      string            `json:"loaderVersion,omitempty"`
	JavaPath           string            `json:"javaPath"`
	RequiredJavaMajor  int               `json:"requiredJavaMajor"`
	ResolvedJavaMajor  int               `json:"resolvedJavaMajor"`
	JavaArgs           []string          `json:"javaArgs"`
	MainClass          string            `json:"mainClass"`
	GameArgs           []string          `json:"gameArgs"`
	Classpath          []string          `json:"classpath"`
	ClasspathSeparator string            `json:"classpathSeparator"`
	ClientJar          string            `json:"clientJar"`
	ClientJarSHA1      string            `json:"clientJarSha1,omitempty"`
	GameDir            string            `json:"gameDir"`
	NativesDir         string            `json:"nativesDir"`
	AssetsDir          string            `json:"assetsDir"`
	AssetIndex         string            `json:"assetIndex"`
	LibrariesDir       string            `json:"librariesDir"`
	Auth               Auth              `json:"auth"`
	Env                map[string]string `json:"env,omitempty"`
	InputsHash         string            `json:"inputsHash"`
}

// CommandLine is java + jvm args + main class + game args.
func (p LaunchPlan) CommandLine() []string {
	args := make([]string, 0, len(p.JavaArgs)+len(p.GameArgs)+2)
	args = append(args, p.JavaPath)
	args = append(args, p.JavaArgs...)
	args = append(args, p.MainClass)
	args = append(args, p.GameArgs...)
	return args
}

func (p LaunchPlan) mask(a string) string {
	if p.Auth.AccessToken != "" && strings.Contains(a, p.Auth.AccessToken) {
		return strings.ReplaceAll(a, p.Auth.AccessToken, "********")
	}
	return a
}

// CommandText renders the command line for inspection with the access token masked.
func (p LaunchPlan) CommandText() string {
	parts := p.CommandLine()
	for i, a := range parts {
		a = p.mask(a)
		if strings.ContainsAny(a, " \t\"") {
			a = `"` + strings.ReplaceAll(a, `"`, `\"`) + `"`
		}
		parts[i] = a
	}
	return strings.Join(parts, " ") + "\n"
}

func (p LaunchPlan) ClasspathString() string {
	return strings.Join(p.Classpath, p.ClasspathSeparator)
}

// planLines lists a plan one argument per line with the classpath expanded,
// so a diff points at the entry that changed.
func planLines(p LaunchPlan) []string {
	cp := p.ClasspathString()
	lines := []string{"java " + p.JavaPath + "\n"}
	for _, a := range p.JavaArgs {
		if cp != "" && a == cp {
			for _, entry := range p.Classpath {
				lines = append(lines, "classpath "+entry+"\n")
			}
			continue
		}
		lines = append(lines, "jvm "+p.mask(a)+"\n")
	}
	lines = append(lines, "main "+p.MainClass+"\n")
	for _, a := range p.GameArgs {
		lines = append(lines, "game "+p.mask(a)+"\n")
	}
	return lines
}

// PlanDiff is a unified diff between two plans' command lines, or "" when
// they launch the same command.
func PlanDiff(previous, current LaunchPlan) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        planLines(previous),
		B:        planLines(current),
		FromFile: "previous",
		ToFile:   "current",
		Context:  1,
	})
}

// RuntimeVersionSnapshot ties a plan to the merged document it was built from.
type RuntimeVersionSnapshot struct {
	VersionID     string     `json:"versionId"`
	BaseVersionID string     `json:"baseVersionId"`
	Loader        LoaderKind `json:"loader"`
	LoaderVersion string     `json:"loaderVersion,omitempty"`
	DocumentHash  string     `json:"documentHash"`
	LibraryCount  int        `json:"libraryCount"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// InputsHash fingerprints the configuration a plan depends on; a change forces a rebuild.
func InputsHash(inst Instance, documentHash string, javaPath string, auth Auth) string {
	data, _ := json.Marshal(struct {
		Instance     Instance
		DocumentHash string
		JavaPath     string
		Player       string
		UserType     string
	}{inst, documentHash, javaPath, auth.PlayerName, auth.UserType})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

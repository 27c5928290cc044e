package launch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/fileio"
)

// logTailBytes bounds how much of each run log is scanned.
const logTailBytes = 256 << 10

const maxExcerptLines = 12

type crashPattern struct {
	name  string
	class core.CrashClassification
	expr  *regexp2.Regexp
}

func pattern(name string, class core.CrashClassification, expr string) crashPattern {
	return crashPattern{name: name, class: class, expr: regexp2.MustCompile(expr, regexp2.Multiline)}
}

var crashPatterns = []crashPattern{
	pattern("zip-exception", core.CrashCorruptJar, `java\.util\.zip\.Zip(?:Exception|Error)`),
	pattern("invalid-jarfile", core.CrashCorruptJar, `(?i)invalid or corrupt jarfile`),
	pattern("loc-header", core.CrashCorruptJar, `invalid (?:LOC|CEN) header`),
	pattern("truncated-class", core.CrashCorruptJar, `java\.lang\.ClassFormatError: (?:Truncated|Incompatible magic)`),

	pattern("main-class-missing", core.CrashLoaderProfileMismatch, `Could not find or load main class (?!net\.minecraft\.client\.main\.Main\b)\S+`),
	pattern("loader-class-missing", core.CrashLoaderProfileMismatch,
		`(?:ClassNotFoundException|NoClassDefFoundError): (?=(?:cpw[./]mods|net[./]fabricmc|org[./]quiltmc|net[./]minecraftforge|net[./]neoforged)[./])\S+`),
	pattern("unsupported-class-version", core.CrashLoaderProfileMismatch, `java\.lang\.UnsupportedClassVersionError`),
	pattern("module-resolution", core.CrashLoaderProfileMismatch, `java\.lang\.module\.(?:ResolutionException|FindException)`),
	pattern("minecraft-version-mismatch", core.CrashLoaderProfileMismatch, `(?i)(?<!mod )minecraft version (?:mismatch|is not supported)`),

	pattern("mod-resolution", core.CrashModEarlyBootIncompatibility, `ModResolutionException|Mod resolution failed`),
	pattern("incompatible-mods", core.CrashModEarlyBootIncompatibility, `(?i)incompatible mods? (?:set|found)`),
	pattern("missing-dependencies", core.CrashModEarlyBootIncompatibility, `(?i)missing or unsupported mandatory dependencies`),
	pattern("mixin-failure", core.CrashModEarlyBootIncompatibility, `(?:MixinApplyError|MixinTransformerError|InvalidMixinException)`),
	pattern("mod-loading", core.CrashModEarlyBootIncompatibility, `(?:ModLoadingException|LoadingFailedException|FormattedException)`),
	pattern("duplicate-mods", core.CrashModEarlyBootIncompatibility, `(?i)duplicate mods? (?:found|detected)`),
	pattern("mod-entrypoint", core.CrashModEarlyBootIncompatibility, `(?i)could not execute entrypoint stage '\w+' due to errors, provided by '[^']+'`),
}

var classificationRank = map[core.CrashClassification]int{
	core.CrashCorruptJar:                  3,
	core.CrashLoaderProfileMismatch:       2,
	core.CrashModEarlyBootIncompatibility: 1,
	core.CrashUnknown:                     0,
}

var (
	exceptionLine = regexp.MustCompile(`(?:^|\s)(?:Caused by: )?[\w$.]+(?:Exception|Error|Throwable)\b`)
	frameLine     = regexp.MustCompile(`^\s+at\s`)
	logPrefix     = regexp.MustCompile(`^\s*(?:\[[^\]]*\]\s*)+(?:\w+:\s)?`)
	hexAddress    = regexp.MustCompile(`0x[0-9a-fA-F]+`)
	lineNumber    = regexp.MustCompile(`:\d+\)`)
	lambdaSuffix  = regexp.MustCompile(`\$\$Lambda[$/][\w/$]*`)
	frameOverflow = regexp.MustCompile(`^\.\.\. \d+ more$`)
	moduleVersion = regexp.MustCompile(`@[\w.+-]+/`)
	spaceRun      = regexp.MustCompile(`\s+`)
)

type DiagnoseInput struct {
	Plan     core.LaunchPlan
	ExitCode int
	LogPaths []string
	// MinClientJarSize defaults to DefaultMinClientJarSize.
	MinClientJarSize int64
	Now              time.Time
}

// Diagnose classifies an abnormal exit from the client jar state, the
// main class and loader consistency, and the run logs.
func Diagnose(in DiagnoseInput) core.LoaderCrashDiagnostic {
	if in.MinClientJarSize <= 0 {
		in.MinClientJarSize = DefaultMinClientJarSize
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	plan := in.Plan
	class := core.CrashUnknown
	var matched []string
	raise := func(c core.CrashClassification) {
		if classificationRank[c] > classificationRank[class] {
			class = c
		}
	}

	if err := clientJarIntact(plan, in.MinClientJarSize); err != nil {
		raise(core.CrashCorruptJar)
		matched = append(matched, "client-jar-invalid")
	}
	if plan.MainClass == "" || !plan.Loader.MainClassAccepted(plan.MainClass) {
		raise(core.CrashLoaderProfileMismatch)
		matched = append(matched, "main-class-inconsistent")
	}

	var text strings.Builder
	for _, p := range in.LogPaths {
		text.WriteString(readTail(p, logTailBytes))
		text.WriteString("\n")
	}
	logText := text.String()
	for _, cp := range crashPatterns {
		if ok, err := cp.expr.MatchString(logText); err == nil && ok {
			raise(cp.class)
			matched = append(matched, cp.name)
		}
	}

	diag := core.LoaderCrashDiagnostic{
		Classification:  class,
		MainClass:       plan.MainClass,
		Loader:          plan.Loader,
		Version:         plan.VersionID,
		ExitCode:        in.ExitCode,
		StackExcerpt:    StackExcerpt(logText),
		MatchedPatterns: matched,
		LogPaths:        in.LogPaths,
		Hints:           hintsFor(class, plan),
		CreatedAt:       in.Now.UTC(),
	}
	diag.Fingerprint = Fingerprint(diag)
	return diag
}

func clientJarIntact(plan core.LaunchPlan, minSize int64) error {
	info, err := os.Stat(plan.ClientJar)
	if err != nil {
		return err
	}
	if info.Size() < minSize {
		return fmt.Errorf("client jar is %d bytes", info.Size())
	}
	if err := fileio.ValidateArchive(plan.ClientJar, fileio.ClientMarkers...); err != nil {
		return err
	}
	if plan.ClientJarSHA1 != "" {
		return core.VerifyFile(plan.ClientJar, "sha1", plan.ClientJarSHA1, 0)
	}
	return nil
}

func readTail(path string, limit int64) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	if info, err := f.Stat(); err == nil && info.Size() > limit {
		if _, err := f.Seek(-limit, io.SeekEnd); err != nil {
			return ""
		}
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return ""
	}
	return string(data)
}

// StackExcerpt takes the first exception in a log with its frames, stripped of
// timestamps, thread tags, line numbers and addresses so that the same failure
// on two runs renders identically.
func StackExcerpt(logText string) string {
	lines := strings.Split(strings.ReplaceAll(logText, "\r\n", "\n"), "\n")
	start := -1
	for i, l := range lines {
		if exceptionLine.MatchString(logPrefix.ReplaceAllString(l, "")) {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}
	var out []string
	for _, l := range lines[start:] {
		if len(out) >= maxExcerptLines {
			break
		}
		if len(out) > 0 && !frameLine.MatchString(l) && !strings.Contains(l, "Caused by:") {
			if strings.TrimSpace(l) == "" || !exceptionLine.MatchString(l) {
				break
			}
		}
		if n := normalizeStackLine(l); n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, "\n")
}

func normalizeStackLine(l string) string {
	l = logPrefix.ReplaceAllString(l, "")
	l = hexAddress.ReplaceAllString(l, "0x?")
	l = lineNumber.ReplaceAllString(l, ")")
	l = lambdaSuffix.ReplaceAllString(l, "$$Lambda")
	l = moduleVersion.ReplaceAllString(l, "/")
	l = strings.TrimSpace(spaceRun.ReplaceAllString(l, " "))
	if frameOverflow.MatchString(l) {
		return ""
	}
	return l
}

// Fingerprint identifies a failure by classification, main class, loader,
// version and stack excerpt.
func Fingerprint(d core.LoaderCrashDiagnostic) string {
	key := strings.Join([]string{
		string(d.Classification),
		strings.ToLower(strings.TrimSpace(d.MainClass)),
		string(d.Loader),
		d.Version,
		d.StackExcerpt,
	}, "|")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

func hintsFor(class core.CrashClassification, plan core.LaunchPlan) []string {
	switch class {
	case core.CrashCorruptJar:
		return []string{
			"the client jar or a library is damaged; run repair with --mode full",
			fmt.Sprintf("delete %s to force a fresh download", filepath.Dir(plan.ClientJar)),
		}
	case core.CrashLoaderProfileMismatch:
		return []string{
			fmt.Sprintf("the %s profile does not match Minecraft %s; run repair with --mode reinstall-loader", plan.Loader.FriendlyName(), plan.BaseVersionID),
			fmt.Sprintf("check that Java %d is used", plan.RequiredJavaMajor),
		}
	case core.CrashModEarlyBootIncompatibility:
		return []string{
			"a mod fails during early boot; update or remove recently added mods",
			"run repair with --mode mods-only to move unreadable jars to mods/.disabled",
		}
	}
	return []string{"inspect the run logs listed above"}
}

// WriteDiagnostic persists a diagnostic under dir and returns its path.
func WriteDiagnostic(dir string, d core.LoaderCrashDiagnostic) (string, error) {
	name := fmt.Sprintf("crash-%s-%s.json", d.CreatedAt.UTC().Format("20060102-150405"), d.Fingerprint)
	path := fileio.UniquePath(filepath.Join(dir, name))
	if err := fileio.WriteJSON(path, d); err != nil {
		return "", fmt.Errorf("writing diagnostic: %w", err)
	}
	return path, nil
}

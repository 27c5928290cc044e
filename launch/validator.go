package launch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/fileio"
)

const (
	// DefaultMinClientJarSize rejects truncated or placeholder client jars.
	DefaultMinClientJarSize = 1 << 20

	windowsMaxPath          = 260
	windowsMaxClasspath     = 32 << 10
	defaultMaxClasspath     = 128 << 10
	requiredProcessEnvPATH  = "PATH"
)

type ValidateOptions struct {
	MinClientJarSize int64
	Platform         core.Platform
	// GameVersion is used for mod range checks; the plan's base version when empty.
	GameVersion string
}

// Validate runs every pre-flight check against a plan. It only reads the
// filesystem.
func Validate(paths core.InstancePaths, plan core.LaunchPlan, opts ValidateOptions) *core.ValidationReport {
	if opts.MinClientJarSize <= 0 {
		opts.MinClientJarSize = DefaultMinClientJarSize
	}
	if opts.Platform.OS == "" {
		opts.Platform = core.CurrentPlatform()
	}
	if opts.GameVersion == "" {
		opts.GameVersion = plan.BaseVersionID
	}
	r := core.NewValidationReport()

	r.Require(core.CheckMetadataPresent, fileio.NonEmptyFile(paths.Metadata), "instance metadata %s is missing", paths.Metadata)
	r.Require(core.CheckVersionJSONPresent, fileio.NonEmptyFile(paths.VersionJSON), "version document %s is missing or empty", paths.VersionJSON)

	jarOK := checkClientJar(r, plan, opts.MinClientJarSize)

	r.Require(core.CheckMainClass, plan.MainClass != "" && plan.Loader.MainClassAccepted(plan.MainClass),
		"main class %q is not an entrypoint of %s", plan.MainClass, plan.Loader.FriendlyName())

	checkClasspath(r, plan, jarOK)

	unresolved := HasPlaceholder(plan.JavaArgs...) || HasPlaceholder(plan.GameArgs...) || HasPlaceholder(plan.MainClass)
	r.Require(core.CheckPlaceholdersResolved, !unresolved, "arguments still contain ${...} placeholders")

	r.Require(core.CheckJavaVersion, plan.ResolvedJavaMajor >= plan.RequiredJavaMajor,
		"Java %d resolved but %s needs Java %d", plan.ResolvedJavaMajor, plan.VersionID, plan.RequiredJavaMajor)

	scan := ScanMods(paths.ModsDir(), plan.Loader, opts.GameVersion)
	r.Require(core.CheckModsCompatible, len(scan.Errors) == 0, "%s", strings.Join(scan.Errors, "; "))
	for _, w := range scan.Warnings {
		r.Warn("mods: %s", w)
	}

	checkAdvisories(r, paths, plan, opts.Platform)
	return r
}

func checkClientJar(r *core.ValidationReport, plan core.LaunchPlan, minSize int64) bool {
	info, err := os.Stat(plan.ClientJar)
	present := err == nil && info.Mode().IsRegular() && info.Size() > 0
	r.Require(core.CheckClientJarPresent, present, "client jar %s is missing or empty", plan.ClientJar)
	if !present {
		r.Require(core.CheckClientJarSize, false, "client jar %s is missing", plan.ClientJar)
		r.Require(core.CheckClientJarArchive, false, "client jar %s is missing", plan.ClientJar)
		r.Require(core.CheckClientJarHash, false, "client jar %s is missing", plan.ClientJar)
		return false
	}
	sizeOK := info.Size() >= minSize
	r.Require(core.CheckClientJarSize, sizeOK, "client jar is %d bytes, expected at least %d", info.Size(), minSize)

	archiveErr := fileio.ValidateArchive(plan.ClientJar, fileio.ClientMarkers...)
	r.Require(core.CheckClientJarArchive, archiveErr == nil, "%v", archiveErr)

	hashOK := true
	if plan.ClientJarSHA1 != "" {
		if err := core.VerifyFile(plan.ClientJar, "sha1", plan.ClientJarSHA1, 0); err != nil {
			hashOK = false
			r.Require(core.CheckClientJarHash, false, "%v", err)
		}
	}
	if hashOK {
		r.Require(core.CheckClientJarHash, true, "")
	}
	return sizeOK && archiveErr == nil && hashOK
}

func checkClasspath(r *core.ValidationReport, plan core.LaunchPlan, jarOK bool) {
	var missing []string
	for _, entry := range plan.Classpath {
		if !fileio.NonEmptyFile(entry) {
			missing = append(missing, entry)
		}
	}
	switch {
	case len(plan.Classpath) == 0:
		r.Require(core.CheckClasspathEntries, false, "classpath is empty")
	case len(missing) > 0:
		r.Require(core.CheckClasspathEntries, false, "%d classpath entries are missing or empty, first: %s", len(missing), missing[0])
	default:
		r.Require(core.CheckClasspathEntries, true, "")
	}

	hasClient := len(plan.Classpath) > 0 &&
		filepath.Clean(plan.Classpath[len(plan.Classpath)-1]) == filepath.Clean(plan.ClientJar)
	switch {
	case !hasClient:
		r.Require(core.CheckClasspathClientJar, false, "client jar is not the last classpath entry")
	case !jarOK:
		r.Require(core.CheckClasspathClientJar, false, "client jar on the classpath failed verification")
	default:
		r.Require(core.CheckClasspathClientJar, true, "")
	}

	var absent []string
	for _, group := range plan.Loader.RuntimeMarkers(plan.MainClass) {
		if !classpathHas(plan.Classpath, group.Fragments) {
			absent = append(absent, group.Name)
		}
	}
	r.Require(core.CheckClasspathLoaderRuntime, len(absent) == 0,
		"%s runtime artifacts missing from classpath: %s", plan.Loader.FriendlyName(), strings.Join(absent, ", "))
}

func classpathHas(classpath []string, fragments []string) bool {
	for _, entry := range classpath {
		slashed := filepath.ToSlash(entry)
		for _, f := range fragments {
			if strings.Contains(slashed, f) {
				return true
			}
		}
	}
	return false
}

func checkAdvisories(r *core.ValidationReport, paths core.InstancePaths, plan core.LaunchPlan, p core.Platform) {
	var emptyEnv []string
	for k, v := range plan.Env {
		if strings.TrimSpace(k) == "" || v == "" {
			emptyEnv = append(emptyEnv, k)
		}
	}
	envOK := len(emptyEnv) == 0 && os.Getenv(requiredProcessEnvPATH) != ""
	r.Advise(core.CheckEnvVars, envOK, "environment is incomplete: PATH set=%t, empty plan entries=%v",
		os.Getenv(requiredProcessEnvPATH) != "", emptyEnv)

	info, err := os.Stat(paths.LauncherLogs)
	r.Advise(core.CheckLogsDir, err == nil && info.IsDir(), "launcher log directory %s does not exist yet", paths.LauncherLogs)

	if p.OS == "windows" {
		longest := ""
		for _, entry := range append([]string{plan.ClientJar, plan.NativesDir, plan.GameDir}, plan.Classpath...) {
			if len(entry) > len(longest) {
				longest = entry
			}
		}
		r.Advise(core.CheckPathLength, len(longest) < windowsMaxPath,
			"path %s is %d characters, near the Windows limit of %d", longest, len(longest), windowsMaxPath)
	} else {
		r.Advise(core.CheckPathLength, true, "")
	}

	limit := defaultMaxClasspath
	if p.OS == "windows" {
		limit = windowsMaxClasspath
	}
	cpLen := len(plan.ClasspathString())
	r.Advise(core.CheckClasspathLength, cpLen <= limit, "classpath is %d characters, over %d", cpLen, limit)
}

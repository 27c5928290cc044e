package core

import (
	"fmt"
	"time"
)

// Required validation checks. Any false value blocks launch.
const (
	CheckMetadataPresent        = "metadata_present"
	CheckVersionJSONPresent     = "version_json_present"
	CheckClientJarPresent       = "client_jar_present"
	CheckClientJarSize          = "client_jar_size"
	CheckClientJarArchive       = "client_jar_archive"
	CheckClientJarHash          = "client_jar_hash"
	CheckMainClass              = "main_class"
	CheckClasspathEntries       = "classpath_entries"
	CheckClasspathClientJar     = "classpath_client_jar"
	CheckClasspathLoaderRuntime = "classpath_loader_runtime"
	CheckPlaceholdersResolved   = "placeholders_resolved"
	CheckJavaVersion            = "java_version"
	CheckModsCompatible         = "mods_compatible"
)

// Advisory checks only ever produce warnings.
const (
	CheckEnvVars         = "env_vars"
	CheckLogsDir         = "logs_dir"
	CheckPathLength      = "path_length"
	CheckClasspathLength = "classpath_length"
)

var RequiredChecks = []string{
	CheckMetadataPresent,
	CheckVersionJSONPresent,
	CheckClientJarPresent,
	CheckClientJarSize,
	CheckClientJarArchive,
	CheckClientJarHash,
	CheckMainClass,
	CheckClasspathEntries,
	CheckClasspathClientJar,
	CheckClasspathLoaderRuntime,
	CheckPlaceholdersResolved,
	CheckJavaVersion,
	CheckModsCompatible,
}

type ValidationReport struct {
	OK       bool            `json:"ok"`
	Checks   map[string]bool `json:"checks"`
	Errors   []string        `json:"errors"`
	Warnings []string        `json:"warnings"`
}

func NewValidationReport() *ValidationReport {
	return &ValidationReport{OK: true, Checks: make(map[string]bool)}
}

// Require records a required check. A failure clears OK and adds an error line
// prefixed with the check name.
func (r *ValidationReport) Require(name string, ok bool, format string, args ...interface{}) {
	if prev, seen := r.Checks[name]; seen && !prev {
		return
	}
	r.Checks[name] = ok
	if !ok {
		r.OK = false
		r.Errors = append(r.Errors, name+": "+fmt.Sprintf(format, args...))
	}
}

// Advise records an advisory check; it never affects OK.
func (r *ValidationReport) Advise(name string, ok bool, format string, args ...interface{}) {
	if prev, seen := r.Checks[name]; seen && !prev {
		return
	}
	r.Checks[name] = ok
	if !ok {
		r.Warnings = append(r.Warnings, name+": "+fmt.Sprintf(format, args...))
	}
}

func (r *ValidationReport) Warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// FailedChecks lists required checks that are false, in declaration order.
func (r *ValidationReport) FailedChecks() []string {
	var failed []string
	for _, name := range RequiredChecks {
		if ok, seen := r.Checks[name]; seen && !ok {
			failed = append(failed, name)
		}
	}
	return failed
}

// Err converts a failed report into a ValidationFailure.
func (r *ValidationReport) Err(target string) error {
	if r.OK {
		return nil
	}
	return NewError(KindValidation, "validate", target, fmt.Errorf("failed checks: %v", r.FailedChecks()))
}

type CrashClassification string

const (
	CrashCorruptJar                  CrashClassification = "CorruptJar"
	CrashLoaderProfileMismatch       CrashClassification = "LoaderProfileMismatch"
	CrashModEarlyBootIncompatibility CrashClassification = "ModEarlyBootIncompatibility"
	CrashUnknown                     CrashClassification = "Unknown"
)

// IsLoaderFailure reports whether escalation should treat the crash as recoverable.
func (c CrashClassification) IsLoaderFailure() bool {
	return c != CrashUnknown && c != ""
}

type LoaderCrashDiagnostic struct {
	Classification  CrashClassification `json:"classification"`
	MainClass       string              `json:"mainClass"`
	Loader          LoaderKind          `json:"loader"`
	Version         string              `json:"version"`
	ExitCode        int                 `json:"exitCode"`
	StackExcerpt    string              `json:"stackExcerpt"`
	MatchedPatterns []string            `json:"matchedPatterns"`
	LogPaths        []string            `json:"logPaths"`
	Hints           []string            `json:"hints,omitempty"`
	Fingerprint     string              `json:"fingerprint"`
	CreatedAt       time.Time           `json:"createdAt"`
}

type RepairMode string

const (
	RepairSmart             RepairMode = "smart"
	RepairFull              RepairMode = "full"
	RepairVerifyOnly        RepairMode = "verify-only"
	RepairModsOnly          RepairMode = "mods-only"
	RepairReinstallLoader   RepairMode = "reinstall-loader"
	RepairRepairAndOptimize RepairMode = "repair-and-optimize"
)

var RepairModes = []RepairMode{
	RepairSmart,
	RepairFull,
	RepairVerifyOnly,
	RepairModsOnly,
	RepairReinstallLoader,
	RepairRepairAndOptimize,
}

func ParseRepairMode(s string) (RepairMode, error) {
	for _, m := range RepairModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown repair mode %q", s)
}

// Mutates is false only for verify-only.
func (m RepairMode) Mutates() bool {
	return m != RepairVerifyOnly
}

type RepairReport struct {
	Mode      RepairMode     `json:"mode"`
	Fixed     map[string]int `json:"fixed"`
	Issues    []string       `json:"issues"`
	StateHash string         `json:"stateHash"`
	Drifted   bool           `json:"drifted"`
	Skipped   []string       `json:"skipped,omitempty"`
	Duration  time.Duration  `json:"duration"`
}

func NewRepairReport(mode RepairMode) *RepairReport {
	return &RepairReport{Mode: mode, Fixed: make(map[string]int)}
}

func (r *RepairReport) TotalFixed() int {
	total := 0
	for _, n := range r.Fixed {
		total += n
	}
	return total
}

// StateDocument is written to state.json after each phase.
type StateDocument struct {
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	// PID is the game process while Status is running.
	PID int `json:"pid,omitempty"`
}

const (
	StatusResolving    = "resolving"
	StatusDownloading  = "downloading"
	StatusInstalling   = "installing_loader"
	StatusBuildingPlan = "building_plan"
	StatusValidating   = "validating"
	StatusReady        = "ready"
	StatusLaunching    = "launching"
	StatusRunning      = "running"
	StatusExited       = "exited"
	StatusCrashed      = "crashed"
	StatusRepairing    = "repairing"
	StatusFailed       = "failed"
	StatusReset        = "reset"
)

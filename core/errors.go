package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies engine failures so callers can decide whether to recover.
type ErrorKind string

const (
	KindNetwork         ErrorKind = "network"
	KindIntegrity       ErrorKind = "integrity"
	KindMissingMetadata ErrorKind = "missing-metadata"
	KindLoaderInstall   ErrorKind = "loader-install"
	KindValidation      ErrorKind = "validation"
	KindProcessLaunch   ErrorKind = "process-launch"
	KindRuntimeCrash    ErrorKind = "runtime-crash"
	KindRepair          ErrorKind = "repair"
)

var (
	ErrNetwork         = errors.New("network failure")
	ErrIntegrity       = errors.New("integrity failure")
	ErrMissingMetadata = errors.New("missing metadata")
	ErrLoaderInstall   = errors.New("loader install failure")
	ErrValidation      = errors.New("validation failure")
	ErrProcessLaunch   = errors.New("process launch failure")
	ErrRuntimeCrash    = errors.New("runtime crash")
	ErrRepair          = errors.New("repair failure")

	// ErrInstanceBusy is returned when another runtime-mutating operation holds the instance.
	ErrInstanceBusy = errors.New("instance is busy")
)

var kindSentinels = map[ErrorKind]error{
	KindNetwork:         ErrNetwork,
	KindIntegrity:       ErrIntegrity,
	KindMissingMetadata: ErrMissingMetadata,
	KindLoaderInstall:   ErrLoaderInstall,
	KindValidation:      ErrValidation,
	KindProcessLaunch:   ErrProcessLaunch,
	KindRuntimeCrash:    ErrRuntimeCrash,
	KindRepair:          ErrRepair,
}

// Error carries the operation and the path or URL it was working on.
// Hint and Artifacts are shown to the user when the failure is not recovered.
type Error struct {
	Kind      ErrorKind
	Op        string
	Target    string
	Hint      string
	Artifacts []string
	Err       error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	if e.Target != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Target)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, core.ErrNetwork) match on the kind.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func NewError(kind ErrorKind, op, target string, err error) *Error {
	return &Error{Kind: kind, Op: op, Target: target, Err: err}
}

func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

func (e *Error) WithArtifacts(paths ...string) *Error {
	e.Artifacts = append(e.Artifacts, paths...)
	return e
}

// KindOf returns the kind of the first *Error in the chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Describe renders an error with its hint and artifact list for terminal output.
func Describe(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	var sb strings.Builder
	sb.WriteString(err.Error())
	if e.Hint != "" {
		sb.WriteString(fmt.Sprintf("\nhint: %s", e.Hint))
	}
	for _, a := range e.Artifacts {
		sb.WriteString(fmt.Sprintf("\nsee: %s", a))
	}
	return sb.String()
}

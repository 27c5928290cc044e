package launch

import (
	"fmt"

	"github.com/leocov-dev/launchwiz/core"
)

// MaxLaunches bounds the launches of one session.
const MaxLaunches = 4

type EscalationState int

const (
	StateInitial EscalationState = iota
	StateRebuilt
	StateSafeMode
	StatePurged
	StateExhausted
)

func (s EscalationState) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateRebuilt:
		return "rebuilt"
	case StateSafeMode:
		return "safe-mode"
	case StatePurged:
		return "purged"
	}
	return "exhausted"
}

type Action int

const (
	ActionRebuild Action = iota
	ActionSafeMode
	ActionPurgeRebuild
	ActionFail
	ActionDone
)

func (a Action) String() string {
	switch a {
	case ActionRebuild:
		return "rebuild"
	case ActionSafeMode:
		return "safe-mode"
	case ActionPurgeRebuild:
		return "purge-rebuild"
	case ActionFail:
		return "fail"
	}
	return "done"
}

type EventKind int

const (
	EventValidationFailed EventKind = iota
	EventCrash
	EventStarted
)

type Event struct {
	Kind       EventKind
	Diagnostic *core.LoaderCrashDiagnostic
}

// Decision is what the session does next.
type Decision struct {
	Action Action
	// SafeMode is set when the next launch must run with mods hidden.
	SafeMode bool
	// Classification is the outcome attributed to the session when it ends.
	Classification core.CrashClassification
	Reason         string
}

// Escalation decides how a launch session recovers from failures. States only
// move forward, and every launch counts against MaxLaunches.
type Escalation struct {
	state       EscalationState
	launches    int
	fingerprint string
	safeMode    bool
}

func NewEscalation() *Escalation {
	return &Escalation{state: StateInitial}
}

func (e *Escalation) State() EscalationState { return e.state }

func (e *Escalation) Launches() int { return e.launches }

// SafeMode reports whether the current attempt runs with mods hidden.
func (e *Escalation) SafeMode() bool { return e.safeMode }

func (e *Escalation) fail(class core.CrashClassification, reason string) Decision {
	e.state = StateExhausted
	e.safeMode = false
	return Decision{Action: ActionFail, Classification: class, Reason: reason}
}

// Next consumes one event and returns the action to take.
func (e *Escalation) Next(ev Event) Decision {
	if e.state == StateExhausted {
		return Decision{Action: ActionFail, Reason: "escalation already exhausted"}
	}

	switch ev.Kind {
	case EventValidationFailed:
		if e.state == StateInitial {
			e.state = StateRebuilt
			return Decision{Action: ActionRebuild, Reason: "pre-flight validation failed"}
		}
		return e.fail("", fmt.Sprintf("validation failed again after %s", e.state))

	case EventStarted:
		e.launches++
		d := Decision{Action: ActionDone, Reason: "game started"}
		if e.safeMode {
			d.Classification = core.CrashModEarlyBootIncompatibility
			d.Reason = "game started only with mods hidden"
		}
		e.safeMode = false
		return d
	}

	e.launches++
	var diag core.LoaderCrashDiagnostic
	if ev.Diagnostic != nil {
		diag = *ev.Diagnostic
	}
	class := diag.Classification
	if class == "" {
		class = core.CrashUnknown
	}
	if !class.IsLoaderFailure() {
		return e.fail(class, "crash could not be attributed to the runtime or loader")
	}
	if e.launches >= MaxLaunches {
		return e.fail(class, fmt.Sprintf("%d launches attempted", e.launches))
	}

	switch e.state {
	case StateInitial:
		e.state = StateRebuilt
		e.fingerprint = diag.Fingerprint
		return Decision{Action: ActionRebuild, Classification: class, Reason: "first loader crash"}
	case StateRebuilt:
		if e.fingerprint == "" {
			e.fingerprint = diag.Fingerprint
			return Decision{Action: ActionRebuild, Classification: class, Reason: "first loader crash after rebuild"}
		}
		if diag.Fingerprint != e.fingerprint {
			return e.fail(class, "crash changed after rebuild")
		}
		e.state = StateSafeMode
		e.safeMode = true
		return Decision{Action: ActionSafeMode, SafeMode: true, Classification: class, Reason: "same crash after rebuild"}
	case StateSafeMode:
		e.state = StatePurged
		e.safeMode = false
		return Decision{Action: ActionPurgeRebuild, Classification: class, Reason: "crash persists with mods hidden"}
	}
	return e.fail(class, "crash persists after purging the version tree")
}

package launchwiz

import (
	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/engine"
	"github.com/leocov-dev/launchwiz/launch"
)

type Instance = core.Instance
type LaunchPlan = core.LaunchPlan
type ValidationReport = core.ValidationReport
type RepairReport = core.RepairReport
type RepairMode = core.RepairMode
type CrashDiagnostic = core.LoaderCrashDiagnostic
type Auth = core.Auth
type Process = launch.Process

type BootstrapResult = engine.BootstrapResult
type PreflightResult = engine.PreflightResult
type LaunchOptions = engine.LaunchOptions
type LaunchResult = engine.LaunchResult

var (
	ParseRepairMode = core.ParseRepairMode
	Describe        = core.Describe
	KindOf          = core.KindOf

	ErrInstanceBusy = core.ErrInstanceBusy
	ErrRuntimeCrash = core.ErrRuntimeCrash
	ErrValidation   = core.ErrValidation
)

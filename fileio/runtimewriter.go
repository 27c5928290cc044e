package fileio

import (
	"errors"
	"os"

	"github.com/leocov-dev/launchwiz/core"
)

// WriteRuntime persists the merged document, its snapshot, the plan and the
// rendered command line.
func WriteRuntime(paths core.InstancePaths, doc core.Document, snapshot core.RuntimeVersionSnapshot, plan core.LaunchPlan) error {
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	if err = WriteAtomic(paths.VersionJSON, data); err != nil {
		return err
	}
	if err = WriteJSON(paths.RuntimeState, snapshot); err != nil {
		return err
	}
	if err = WriteJSON(paths.LaunchPlan, plan); err != nil {
		return err
	}
	return WriteAtomic(paths.CommandText, []byte(plan.CommandText()))
}

func LoadPlan(path string) (core.LaunchPlan, error) {
	var plan core.LaunchPlan
	err := ReadJSON(path, &plan)
	return plan, err
}

func LoadSnapshot(path string) (core.RuntimeVersionSnapshot, error) {
	var snapshot core.RuntimeVersionSnapshot
	err := ReadJSON(path, &snapshot)
	return snapshot, err
}

// RemoveRuntime deletes the persisted plan and runtime snapshot; missing files are fine.
func RemoveRuntime(paths core.InstancePaths) error {
	var errs []error
	for _, p := range []string{paths.LaunchPlan, paths.CommandText} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	if err := os.RemoveAll(paths.RuntimeDir); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func WriteInstanceMetadata(paths core.InstancePaths, inst core.Instance) error {
	return WriteJSON(paths.Metadata, inst)
}

func LoadInstanceMetadata(path string) (core.Instance, error) {
	var inst core.Instance
	err := ReadJSON(path, &inst)
	return inst, err
}

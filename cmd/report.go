package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/internal/shared"
)

func printValidation(report *core.ValidationReport) {
	for _, name := range core.RequiredChecks {
		ok, seen := report.Checks[name]
		if !seen {
			continue
		}
		mark := "ok"
		if !ok {
			mark = "FAILED"
		}
		fmt.Printf("  %-26s %s\n", name, mark)
	}
	for _, e := range report.Errors {
		fmt.Println("error:", e)
	}
	for _, w := range report.Warnings {
		fmt.Println("warning:", w)
	}
}

func printRepair(report *core.RepairReport) {
	fmt.Printf("%s repair finished in %s (drifted: %t)\n",
		shared.HumanName(string(report.Mode)), report.Duration.Round(time.Millisecond), report.Drifted)
	probes := make([]string, 0, len(report.Fixed))
	for probe := range report.Fixed {
		probes = append(probes, probe)
	}
	sort.Strings(probes)
	for _, probe := range probes {
		if n := report.Fixed[probe]; n > 0 {
			fmt.Printf("  fixed %d %s\n", n, probe)
		}
	}
	for _, s := range report.Skipped {
		fmt.Println("skipped:", s)
	}
	for _, issue := range report.Issues {
		fmt.Println("issue:", issue)
	}
	if len(report.Issues) == 0 {
		fmt.Println("No issues found")
	}
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		shared.Exitln(err)
	}
}

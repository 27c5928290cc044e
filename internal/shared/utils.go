package shared

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/camelcase"
	"github.com/igorsobreira/titlecase"

	"github.com/leocov-dev/launchwiz/core"
)

// HumanName turns identifiers such as "ModEarlyBootIncompatibility" or
// "reinstall-loader" into "Mod Early Boot Incompatibility" and "Reinstall Loader".
func HumanName(name string) string {
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	var words []string
	for _, field := range strings.Fields(name) {
		words = append(words, camelcase.Split(field)...)
	}
	return titlecase.Title(strings.ToLower(strings.Join(words, " ")))
}

func Exitf(format string, a ...interface{}) {
	fmt.Printf(format, a...)
	os.Exit(1)
}

func Exitln(a ...interface{}) {
	fmt.Println(a...)
	os.Exit(1)
}

// ExitErr prints an error with its hint and artifacts and exits.
func ExitErr(err error) {
	Exitln(core.Describe(err))
}

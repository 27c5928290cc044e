package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/internal/cmdshared"
	"github.com/leocov-dev/launchwiz/internal/shared"
	"github.com/leocov-dev/launchwiz/registry"
)

var instanceCmd = &cobra.Command{
	Use:     "instance",
	Short:   "Manage the registered instances",
	Aliases: []string{"instances", "i"},
}

var instanceAddCmd = &cobra.Command{
	Use:   "add <id|name>",
	Short: "Register a new instance",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		if !registry.ValidID(id) {
			if !viper.IsSet("instance.add.name") {
				viper.Set("instance.add.name", id)
			}
			id = core.SlugifyName(id)
			fmt.Printf("Using instance id %q\n", id)
		}
		gameVersion := viper.GetString("instance.add.version")
		if gameVersion == "" {
			gameVersion = readValue("Minecraft version: ", "")
		}
		loader := viper.GetString("instance.add.loader")
		if loader == "" {
			loader = readValue("Mod loader (vanilla, fabric, quilt, forge, neoforge) [vanilla]: ", "vanilla")
		}
		name := viper.GetString("instance.add.name")
		if name == "" {
			def := shared.HumanName(id)
			name = readValue("Instance name ["+def+"]: ", def)
		}
		javaPath, err := shared.ExpandPath(viper.GetString("instance.add.java-path"))
		if err != nil {
			shared.Exitln(err)
		}
		javaMode := core.JavaMode(viper.GetString("instance.add.java-mode"))
		if javaPath != "" && javaMode == "" {
			javaMode = core.JavaCustom
		}

		inst, err := app.AddInstance(cmd.Context(), core.Instance{
			ID:            id,
			Name:          name,
			GameVersion:   gameVersion,
			Loader:        loader,
			LoaderVersion: viper.GetString("instance.add.loader-version"),
			JavaMode:      javaMode,
			JavaPath:      javaPath,
		})
		if err != nil {
			shared.Exitln(err)
		}
		fmt.Printf("Instance %s added (%s, %s) in %s\n", inst.ID, inst.GameVersion, loaderLabel(inst), inst.Dir)
		fmt.Printf("Run `launchwiz prepare %s` to download it.\n", inst.ID)
	},
}

var instanceListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the registered instances",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		instances, err := app.Instances(cmd.Context())
		if err != nil {
			shared.Exitln(err)
		}
		if len(instances) == 0 {
			fmt.Println("No instances yet, add one with `launchwiz instance add <id>`")
			return
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tVERSION\tLOADER\tJAVA")
		for _, inst := range instances {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", inst.ID, inst.Name, inst.GameVersion, loaderLabel(inst), inst.JavaMode)
		}
		_ = w.Flush()
	},
}

var instanceRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Short:   "Unregister an instance",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		purge := viper.GetBool("instance.remove.purge")
		if purge {
			ok, err := cmdshared.PromptYesNo(fmt.Sprintf("Delete the files of %s, including worlds? [Y/n] ", args[0]))
			if err != nil {
				shared.Exitln(err)
			}
			if !ok {
				fmt.Println("Cancelled!")
				return
			}
		}
		if err := app.RemoveInstance(cmd.Context(), args[0], purge); err != nil {
			shared.Exitln(err)
		}
		fmt.Printf("Instance %s removed\n", args[0])
	},
}

func loaderLabel(inst core.Instance) string {
	kind, err := inst.LoaderKind()
	if err != nil {
		return inst.Loader
	}
	if inst.LoaderVersion == "" || kind == core.LoaderVanilla {
		return kind.FriendlyName()
	}
	return kind.FriendlyName() + " " + inst.LoaderVersion
}

func readValue(prompt string, def string) string {
	fmt.Print(prompt)
	if viper.GetBool("non-interactive") {
		fmt.Printf("%s\n", def)
		return def
	}
	value, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		shared.Exitf("Error reading input: %s\n", err)
	}
	// Trims both CR and LF
	value = strings.TrimSpace(strings.TrimRight(value, "\r\n"))
	if len(value) > 0 {
		return value
	}
	return def
}

func init() {
	rootCmd.AddCommand(instanceCmd)
	instanceCmd.AddCommand(instanceAddCmd, instanceListCmd, instanceRemoveCmd)

	instanceAddCmd.Flags().String("version", "", "The Minecraft version to run (omit to define interactively)")
	_ = viper.BindPFlag("instance.add.version", instanceAddCmd.Flags().Lookup("version"))
	instanceAddCmd.Flags().String("loader", "", "The mod loader: vanilla, fabric, quilt, forge or neoforge (omit to define interactively)")
	_ = viper.BindPFlag("instance.add.loader", instanceAddCmd.Flags().Lookup("loader"))
	instanceAddCmd.Flags().String("loader-version", "", "The mod loader version (omit to use the latest)")
	_ = viper.BindPFlag("instance.add.loader-version", instanceAddCmd.Flags().Lookup("loader-version"))
	instanceAddCmd.Flags().String("name", "", "A display name for the instance")
	_ = viper.BindPFlag("instance.add.name", instanceAddCmd.Flags().Lookup("name"))
	instanceAddCmd.Flags().String("java-mode", "", "How Java is chosen: auto, system or custom")
	_ = viper.BindPFlag("instance.add.java-mode", instanceAddCmd.Flags().Lookup("java-mode"))
	instanceAddCmd.Flags().String("java-path", "", "The java binary to use in custom mode")
	_ = viper.BindPFlag("instance.add.java-path", instanceAddCmd.Flags().Lookup("java-path"))

	instanceRemoveCmd.Flags().Bool("purge", false, "Also delete the instance directory")
	_ = viper.BindPFlag("instance.remove.purge", instanceRemoveCmd.Flags().Lookup("purge"))
}

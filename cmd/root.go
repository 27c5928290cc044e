package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/leocov-dev/launchwiz/config"
	"github.com/leocov-dev/launchwiz/download"
	"github.com/leocov-dev/launchwiz/internal/logging"
	"github.com/leocov-dev/launchwiz/internal/shared"
	"github.com/leocov-dev/launchwiz/launchwiz"
)

var (
	app      *launchwiz.App
	logger   *zap.Logger
	progress *download.BarProgress
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "launchwiz",
	Short: "Provision, launch and repair mod-loader Minecraft instances",
	Long: `launchwiz keeps a verified local copy of a Minecraft client with its mod
loader, builds the exact java command line, and watches the game start.
Early crashes are diagnosed and retried with a rebuild, safe mode and a
clean reinstall before giving up.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, err := shared.ExpandPath(viper.GetString("config"))
		if err != nil {
			return err
		}
		cfg, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		if cfg.DataDir, err = shared.ExpandPath(cfg.DataDir); err != nil {
			return err
		}

		logger, err = logging.New(logging.Options{Verbose: cfg.Verbose, File: cfg.LogFile()})
		if err != nil {
			return err
		}
		progress = download.NewBarProgress(os.Stderr)
		app, err = launchwiz.Open(cfg, launchwiz.Options{Logger: logger, Progress: progress})
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", cfg.DataDir, err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if progress != nil {
			progress.Wait()
		}
		if app != nil {
			_ = app.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// normalizeFlagName lets --data_dir and --data-dir name the same flag.
func normalizeFlagName(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func init() {
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)
	rootCmd.PersistentFlags().String("data-dir", "", "The directory holding instances, shared game files and the registry (default ~/.launchwiz)")
	_ = viper.BindPFlag("data-dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	rootCmd.PersistentFlags().String("config", "", "A launchwiz.toml file to read instead of the one in the data directory")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	rootCmd.PersistentFlags().BoolP("non-interactive", "y", false, "Never prompt, accepting the default answer")
	_ = viper.BindPFlag("non-interactive", rootCmd.PersistentFlags().Lookup("non-interactive"))
}

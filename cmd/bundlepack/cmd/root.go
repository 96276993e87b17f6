package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/bianoble/bundlepack/internal/config"
	"github.com/bianoble/bundlepack/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	configPath string
	noInherit  bool
	verbose    bool
	quiet      bool
	logJSON    bool
)

// overrides carries BUNDLEPACK_* variables and the flags bound to them.
var overrides *viper.Viper

var rootCmd = &cobra.Command{
	Use:   "bundlepack",
	Short: "Content-addressed asset bundle packaging",
	Long: `bundlepack groups an asset tree into content-addressed bundles, splits
shared dependencies into their own bundles, skips work for bundles whose
content is unchanged and records every published version so that any two
releases can be compared.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bundlepack %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

func init() {
	overrides = config.NewOverrides()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "bundlepack.yaml", "path to config file")
	flags.BoolVar(&noInherit, "no-inherit", false, "read only the project config, skipping system and user layers")
	flags.String("platform", "", "target platform (overrides settings.platform)")
	flags.String("log-level", "warn", "log level: trace, debug, info, warn, error")
	flags.BoolVar(&logJSON, "log-json", false, "write logs as JSON lines")
	flags.BoolVar(&verbose, "verbose", false, "detailed output")
	flags.BoolVar(&quiet, "quiet", false, "minimal output (errors only)")

	bindOverride(config.KeyPlatform, flags.Lookup("platform"))
	bindOverride(config.KeyLogLevel, flags.Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// bindOverride makes an explicitly passed flag win over its environment
// variable.
func bindOverride(key string, f *pflag.Flag) {
	if f == nil {
		return
	}
	_ = overrides.BindPFlag(key, f)
}

func initLogger() error {
	level, err := logger.ParseLevel(overrides.GetString(config.KeyLogLevel))
	if err != nil {
		return err
	}
	logger.Initialize(logger.Config{Level: level, JSON: logJSON})
	return nil
}

// Execute runs the root command. An interrupt cancels the running
// operation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

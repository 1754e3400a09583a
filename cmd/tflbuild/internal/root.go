package internal

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/goplus/tflbuild/internal/env"
)

var (
	configFile string
	verbose    bool
	logFormat  string
	targetArch string
	targetOS   string
)

var rootCmd = &cobra.Command{
	Use:   "tflbuild",
	Short: "tflbuild builds or installs TensorFlow Lite for linking",
	Long: `tflbuild makes a TensorFlow Lite library available in a build-local directory,
building it from source when no compatible artifact exists, and prints the
linkage directives for it.

Configuration comes from the environment (GOARCH, GOOS, TFLITE_*), then from
the optional --config file, then from built-in defaults.`,
	SilenceUsage: true,
}

func init() {
	addGlobalFlags(rootCmd.PersistentFlags())
}

func addGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&configFile, "config", "c", "", "Configuration file (yaml, toml or json)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&logFormat, "log-format", "console", "Log format: console or json")
	flags.StringVar(&targetArch, "arch", "", "Target architecture, overrides GOARCH")
	flags.StringVar(&targetOS, "os", "", "Target operating system, overrides GOOS")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// resolveConfig resolves the build configuration from the process
// environment, the command line and the config file.
func resolveConfig() (*env.Config, error) {
	e := env.FromOS()
	if targetArch != "" {
		e["GOARCH"] = targetArch
	}
	if targetOS != "" {
		e["GOOS"] = targetOS
	}
	file, err := env.LoadFile(configFile)
	if err != nil {
		return nil, err
	}
	return env.Resolve(e, file)
}

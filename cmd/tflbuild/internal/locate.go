package internal

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/goplus/tflbuild/internal/artifact"
)

var locateName string

var locateCmd = &cobra.Command{
	Use:   "locate DIR",
	Short: "Find a library in a build output tree",
	Long: `Locate walks DIR and prints every file of the named library, including
versioned variants such as libtensorflowlite.so.2.`,
	Args: cobra.ExactArgs(1),
	RunE: runLocate,
}

func init() {
	locateCmd.Flags().StringVarP(&locateName, "name", "n", "tensorflow-lite", "Library base name, without lib prefix and extension")
	rootCmd.AddCommand(locateCmd)
}

func runLocate(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	goos := targetOS
	if goos == "" {
		goos = runtime.GOOS
	}
	loc := &artifact.Locator{GOOS: goos, Log: log}
	res := loc.Locate(args[0], locateName)

	w := cmd.OutOrStdout()
	for _, p := range res.Paths {
		fmt.Fprintln(w, p)
	}
	if res.Skipped > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %d unreadable directories\n", res.Skipped)
	}
	if len(res.Paths) == 0 {
		return fmt.Errorf("lib%s not found under %s", locateName, args[0])
	}
	return nil
}

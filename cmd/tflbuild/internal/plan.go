package internal

import (
	"github.com/spf13/cobra"

	"github.com/goplus/tflbuild/internal/link"
	"github.com/goplus/tflbuild/internal/variant"
)

var planDir string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print linkage directives for an installed library directory",
	Long: `Plan prints the link directives for the libraries already installed in the
output directory, or in --dir. Nothing is built or copied.`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planDir, "dir", "", "Installed library directory (default: the output directory)")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	dir := planDir
	if dir == "" {
		dir = cfg.OutDir
	}
	primary := variant.LibraryName(cfg)
	if cfg.Prebuilt != "" {
		primary = cfg.Library
	}
	plan, err := link.Emit(dir, cfg.Library, primary, cfg.GOOS)
	if err != nil {
		return err
	}
	return plan.WriteText(cmd.OutOrStdout())
}

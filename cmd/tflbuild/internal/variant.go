package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goplus/tflbuild/internal/variant"
)

var variantCmd = &cobra.Command{
	Use:   "variant",
	Short: "Print the variant key and expected artifact names",
	Args:  cobra.NoArgs,
	RunE:  runVariant,
}

func init() {
	rootCmd.AddCommand(variantCmd)
}

func runVariant(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "key: %s\n", variant.Key(cfg))
	fmt.Fprintf(w, "library: %s\n", variant.LibraryName(cfg))
	fmt.Fprintf(w, "shared: %s\n", variant.ArtifactFile(cfg, false))
	fmt.Fprintf(w, "static: %s\n", variant.ArtifactFile(cfg, true))
	fmt.Fprintf(w, "backend: %s\n", cfg.Backend)
	if cfg.Prebuilt != "" {
		fmt.Fprintf(w, "prebuilt: %s (%s)\n", cfg.Prebuilt, cfg.PrebuiltVar)
	}
	return nil
}

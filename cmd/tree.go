package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/StinkyLord/sbomkit/internal/output"
)

var (
	flagTreeInput  string
	flagTreeOutput string
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the dependency tree of an SBOM as JSON",
	Long: `Unfold the relationships of an SBOM into a nested dependency tree,
starting at the root component (or at every component nothing points at).

Examples:
  sbomkit tree -i bom.spdx.json
  sbomkit tree -i bom.cdx.xml -o tree.json`,
	RunE: runTree,
}

func init() {
	treeCmd.Flags().StringVarP(&flagTreeInput, "input", "i", "", "Input SBOM path (use '-' for stdin)")
	treeCmd.Flags().StringVarP(&flagTreeOutput, "output", "o", "-", "Output file path (use '-' for stdout)")
	_ = treeCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	c, err := newCodec()
	if err != nil {
		return err
	}
	doc, err := c.ReadFile(flagTreeInput)
	if err != nil {
		return err
	}
	if err := output.WriteDependencyTree(doc, flagTreeOutput); err != nil {
		return fmt.Errorf("failed to write dependency tree: %w", err)
	}
	if flagTreeOutput != "-" {
		fmt.Fprintf(os.Stderr, "Dependency tree written to: %s\n", flagTreeOutput)
	}
	return nil
}

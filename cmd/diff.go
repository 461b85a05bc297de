package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/StinkyLord/sbomkit/internal/batch"
	"github.com/StinkyLord/sbomkit/internal/compare"
	"github.com/StinkyLord/sbomkit/internal/output"
)

var (
	flagDiffReport         string
	flagDiffOutput         string
	flagDiffWorkers        int
	flagDiffFailOnConflict bool
)

var diffCmd = &cobra.Command{
	Use:   "diff TARGET OTHER...",
	Short: "Compare one SBOM against one or more others",
	Long: `Compare a target SBOM field by field against every other document.
Documents may use different schemas: each one is converted to the internal
schema before comparing. Comparisons run in parallel.

Examples:
  sbomkit diff bom.cdx.json bom.spdx.json
  sbomkit diff release.json nightly-*.json --report json -o diff.json
  sbomkit diff a.json b.json --fail-on-conflict`,
	Args: cobra.MinimumNArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringVarP(&flagDiffReport, "report", "r", "", "Report format: text, json, yaml (default from config)")
	diffCmd.Flags().StringVarP(&flagDiffOutput, "output", "o", "-", "Output file path (use '-' for stdout)")
	diffCmd.Flags().IntVarP(&flagDiffWorkers, "workers", "w", 0, "Parallel comparisons (default from config, 0 = one per CPU)")
	diffCmd.Flags().BoolVar(&flagDiffFailOnConflict, "fail-on-conflict", false, "Exit with status 1 when any conflict is found")

	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	reportName := cfg.Output.Report
	if flagDiffReport != "" {
		reportName = flagDiffReport
	}
	format, err := output.ParseReportFormat(reportName)
	if err != nil {
		return err
	}
	color, err := output.ParseColorMode(cfg.Output.Color)
	if err != nil {
		return err
	}
	workers := cfg.Diff.Workers
	if cmd.Flags().Changed("workers") {
		workers = flagDiffWorkers
	}
	failOnConflict := cfg.Diff.FailOnConflict || flagDiffFailOnConflict

	c, err := newCodec()
	if err != nil {
		return err
	}
	inputs := make([]batch.Input, 0, len(args))
	for _, path := range args {
		doc, err := c.ReadFile(path)
		if err != nil {
			return err
		}
		inputs = append(inputs, batch.Input{Name: path, Document: doc})
	}

	differ := batch.New(newController(), workers)
	report, err := differ.Diff(cmd.Context(), inputs[0], inputs[1:])
	if err != nil {
		return fmt.Errorf("diff failed: %w", err)
	}

	comparisons := make([]*compare.Comparison, 0, len(report.Results))
	for _, res := range report.Results {
		if res.Err != nil {
			log.Error().Err(res.Err).Str("document", res.Name).Msg("could not compare")
			continue
		}
		comparisons = append(comparisons, res.Comparison)
	}
	if err := output.NewReporter(format, color).WriteReport(flagDiffOutput, comparisons); err != nil {
		return err
	}

	log.Info().
		Str("target", report.Target).
		Int("documents", len(report.Results)).
		Int("workers", differ.Workers()).
		Int("conflicts", report.Conflicts()).
		Msg("diff finished")

	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d document(s) could not be compared", len(failed))
	}
	if failOnConflict && report.Conflicts() > 0 {
		return &conflictsFoundError{count: report.Conflicts()}
	}
	return nil
}

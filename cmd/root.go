package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/StinkyLord/sbomkit/internal/codec"
	"github.com/StinkyLord/sbomkit/internal/config"
	"github.com/StinkyLord/sbomkit/internal/convert"
	"github.com/StinkyLord/sbomkit/internal/logging"
)

const toolVersion = "1.0.0"

var (
	flagConfig   string
	flagLogLevel string
	flagVerbose  bool

	// cfg is loaded before any subcommand runs.
	cfg = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:     "sbomkit",
	Short:   "SBOM conversion, comparison and merge engine",
	Version: toolVersion,
	Long: `sbomkit reads Software Bills of Materials in several schemas, converts
between them, reports field-level differences and merges documents.

Supported schemas and wire formats:
  • CycloneDX 1.4  JSON, XML
  • SPDX 2.3       JSON, tag-value
  • SVIP           JSON (the internal canonical schema)

Inputs may be gzip (.gz) or zstd (.zst) compressed; use '-' for stdin.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: .sbomkit.yaml in the working directory or $HOME)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: trace, debug, info, warn, error, off")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output (same as --log-level debug)")
}

// Execute runs the root command; a non-nil error exits with status 1.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var conflicts *conflictsFoundError
		if !errors.As(err, &conflicts) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

// setup configures logging and loads the configuration. Flags win over the
// config file, which wins over the defaults.
func setup(cmd *cobra.Command, args []string) error {
	logging.ConfigureRuntime()

	loaded, err := config.LoadConfig(flagConfig)
	if err != nil {
		return err
	}
	cfg = loaded

	level := cfg.Logging.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if flagVerbose {
		level = "debug"
	}
	if err := logging.SetLevel(level); err != nil {
		return err
	}
	log.Debug().Str("command", cmd.Name()).Str("config", flagConfig).Msg("configured")
	return nil
}

// newCodec builds a codec over the configured license table.
func newCodec() (*codec.Codec, error) {
	table, err := cfg.LicenseTable()
	if err != nil {
		return nil, err
	}
	return codec.New(table), nil
}

func newController() *convert.Controller {
	return convert.NewController(nil)
}

// conflictsFoundError makes diff exit non-zero without printing an error.
type conflictsFoundError struct {
	count int
}

func (e *conflictsFoundError) Error() string {
	return fmt.Sprintf("%d conflict(s) found", e.count)
}

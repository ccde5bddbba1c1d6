package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/natefinch/atomic"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/htmlssg/htmlssg/internal/build"
	"github.com/htmlssg/htmlssg/internal/config"
	"github.com/htmlssg/htmlssg/internal/errors"
	"github.com/htmlssg/htmlssg/internal/logging"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Build the site into the output directory",
	Long: `Build every page under pages/ into <output>/<page>/index.html and copy
static/ into the output root.

Problems with single pages, fragments or data files never stop the build;
they are printed as diagnostics. Use --strict to fail when any are errors.

Examples:
  htmlssg build                       # Build ./ into ./dist
  htmlssg build -s site -o public     # Choose source and output
  htmlssg build --clean --workers 1   # Fresh, sequential build
  htmlssg build --report build.json   # Also write a JSON report`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

var (
	buildReport string
	buildStrict bool
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().IntP("workers", "w", 0, "pages built in parallel (0 = one per CPU, 1 = sequential)")
	buildCmd.Flags().Bool("clean", false, "remove the output directory before building")
	buildCmd.Flags().StringVar(&buildReport, "report", "", "write the build result as JSON to this file")
	buildCmd.Flags().BoolVar(&buildStrict, "strict", false, "exit with an error when the build records error diagnostics")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen := newGenerator(afero.NewOsFs(), cfg, logger)
	result, err := gen.Build(ctx)
	if err != nil {
		return err
	}

	printResult(cmd, gen.Options(), result)

	if buildReport != "" {
		if err := writeReport(buildReport, result); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", buildReport)
	}

	if buildStrict && result.HasErrors() {
		return fmt.Errorf("build finished with %d error diagnostics", countErrors(result))
	}
	return nil
}

func newGenerator(fs afero.Fs, cfg *config.Config, logger logging.Logger) *build.Generator {
	return build.NewGenerator(fs, build.Options{
		SourceDir: cfg.Source.Dir,
		OutputDir: cfg.Build.Output,
		Workers:   cfg.Build.Workers,
		Clean:     cfg.Build.Clean,
	}, logger)
}

func printResult(cmd *cobra.Command, opts build.Options, result *build.Result) {
	out := cmd.OutOrStdout()

	for _, d := range result.Diagnostics {
		fmt.Fprintln(cmd.ErrOrStderr(), d.String())
	}

	fmt.Fprintf(out, "Built %d pages into %s (%d skipped, %d static files) in %s\n",
		len(result.Pages), opts.OutputDir, len(result.Skipped), result.StaticFiles,
		result.Duration.Round(time.Millisecond))
}

func countErrors(result *build.Result) int {
	n := 0
	for _, d := range result.Diagnostics {
		if d.Severity >= errors.SeverityError {
			n++
		}
	}
	return n
}

// writeReport replaces path with the JSON result in one step, so readers
// never see a partial report.
func writeReport(path string, result *build.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode build report: %w", err)
	}
	data = append(data, '\n')

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return errors.WrapIO(err, errors.ErrCodeWriteFile, "failed to write build report").WithPath(path)
	}
	return nil
}

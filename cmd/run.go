package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/KaramelBytes/churnviz-cli/internal/pipeline"
	"github.com/KaramelBytes/churnviz-cli/internal/render"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	runOutputDir     string
	runSheet         string
	runDPI           int
	runWidth         float64
	runHeight        float64
	runWorkers       int
	runCharts        []int
	runXLSX          bool
	runNoSummary     bool
	runStrict        bool
	runQuiet         bool
	runFailOnPartial bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Render every chart and the statistics report for a dataset",
	Long: `Loads the dataset (CSV or XLSX), validates it, renders the selected charts
as NN_<name>.png, writes summary_statistics.txt and manifest.json into the
output directory. A chart that cannot be produced is reported and skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}

// addRunFlags registers the run flags on cmd. The root command shares them so
// that a bare "churnviz" behaves like "churnviz run".
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&runOutputDir, "output", "o", "", "output directory (default from config: outputs)")
	f.StringVar(&runSheet, "sheet", "", "XLSX: sheet name to read (default first sheet)")
	f.IntVar(&runDPI, "dpi", 0, "image resolution (default from config: 100)")
	f.Float64Var(&runWidth, "width", 0, "figure width in inches, overrides every chart (needs --height)")
	f.Float64Var(&runHeight, "height", 0, "figure height in inches, overrides every chart (needs --width)")
	f.IntVarP(&runWorkers, "workers", "w", 0, "charts rendered in parallel (default from config: 1)")
	f.IntSliceVar(&runCharts, "charts", nil, "chart ids to render, e.g. --charts 1,2,10 (default all)")
	f.BoolVar(&runXLSX, "xlsx", false, "also export chart data to chart_data.xlsx")
	f.BoolVar(&runNoSummary, "no-summary", false, "skip summary_statistics.txt")
	f.BoolVar(&runStrict, "strict", false, "fail when any churn flag is not 0 or 1")
	f.BoolVarP(&runQuiet, "quiet", "q", false, "suppress per-chart progress lines")
	f.BoolVar(&runFailOnPartial, "fail-on-partial", false, "exit non-zero when any artifact failed")
}

// runOptions merges config with the flags the user actually set.
func runOptions(f *pflag.FlagSet, args []string) (pipeline.Options, render.PNG, error) {
	opt := pipeline.Options{
		Input:        cfg.Input,
		Sheet:        cfg.Sheet,
		OutputDir:    cfg.OutputDir,
		Charts:       cfg.Charts,
		Workers:      cfg.Workers,
		Strict:       cfg.Strict,
		WriteSummary: cfg.WriteSummary,
		ExportXLSX:   cfg.ExportXLSX,
	}
	png := render.PNG{DPI: cfg.DPI, Width: cfg.WidthIn, Height: cfg.HeightIn}
	if len(args) > 0 {
		opt.Input = args[0]
	}
	if f.Changed("output") {
		opt.OutputDir = runOutputDir
	}
	if f.Changed("sheet") {
		opt.Sheet = runSheet
	}
	if f.Changed("charts") {
		opt.Charts = runCharts
	}
	if f.Changed("workers") {
		if runWorkers < 1 {
			return opt, png, fmt.Errorf("--workers must be at least 1")
		}
		opt.Workers = runWorkers
	}
	if f.Changed("strict") {
		opt.Strict = runStrict
	}
	if f.Changed("xlsx") {
		opt.ExportXLSX = runXLSX
	}
	if runNoSummary {
		opt.WriteSummary = false
	}
	if f.Changed("dpi") {
		if runDPI <= 0 {
			return opt, png, fmt.Errorf("--dpi must be positive")
		}
		png.DPI = runDPI
	}
	if f.Changed("width") || f.Changed("height") {
		if runWidth <= 0 || runHeight <= 0 {
			return opt, png, fmt.Errorf("--width and --height must both be positive")
		}
		png.Width, png.Height = runWidth, runHeight
	}
	opt.Quiet = runQuiet
	p, err := cfg.ChartPalette()
	if err != nil {
		return opt, png, err
	}
	opt.Palette = p
	return opt, png, nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	opt, png, err := runOptions(cmd.Flags(), args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, cmd, opt, png)
}

func execute(ctx context.Context, cmd *cobra.Command, opt pipeline.Options, r render.Renderer) error {
	out := cmd.OutOrStdout()
	if !opt.Quiet {
		fmt.Fprintf(out, "%s %s -> %s\n", styleTitle.Render("churnviz"), opt.Input, opt.OutputDir)
	}
	res, err := pipeline.Run(ctx, opt, r, logger, out)
	if err != nil {
		return fmt.Errorf("%s: %w", pipeline.Kind(err), err)
	}
	line := res.SummaryLine()
	if res.Partial() {
		fmt.Fprintf(out, "%s %s\n", styleWarn.Render("⚠"), line)
	} else {
		fmt.Fprintf(out, "%s %s\n", styleOK.Render("✓"), line)
	}
	if !opt.Quiet {
		listCreated(out, res)
	}
	if runFailOnPartial {
		for _, a := range res.Artifacts {
			if !a.OK() {
				return fmt.Errorf("%w: %s", ErrPartial, line)
			}
		}
	}
	return nil
}

// listCreated prints every written artifact and the manifest with its size.
func listCreated(w io.Writer, res *pipeline.Result) {
	var paths []string
	for _, a := range res.Artifacts {
		if a.OK() {
			paths = append(paths, a.Path)
		}
	}
	if res.ManifestPath != "" {
		paths = append(paths, res.ManifestPath)
	}
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(w, "Created files in %s:\n", filepath.Dir(paths[0]))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "  - %s %s\n", filepath.Base(p), styleDim.Render(fmt.Sprintf("(%.1f KB)", float64(info.Size())/1024)))
	}
}

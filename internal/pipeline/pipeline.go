// Package pipeline runs load, validate, aggregate, render and report as one
// ordered pass over a single input file.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/KaramelBytes/churnviz-cli/internal/analysis"
	"github.com/KaramelBytes/churnviz-cli/internal/charts"
	"github.com/KaramelBytes/churnviz-cli/internal/dataset"
	"github.com/KaramelBytes/churnviz-cli/internal/export"
	"github.com/KaramelBytes/churnviz-cli/internal/manifest"
	"github.com/KaramelBytes/churnviz-cli/internal/render"
	"github.com/KaramelBytes/churnviz-cli/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SummaryFileName is the text report artifact.
const SummaryFileName = "summary_statistics.txt"

// Stage is a point in the run lifecycle.
type Stage string

const (
	StageInit       Stage = "init"
	StageLoaded     Stage = "loaded"
	StageValidated  Stage = "validated"
	StageAggregated Stage = "aggregated"
	StageRendered   Stage = "rendered"
	StageReported   Stage = "reported"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// Options configures one run.
type Options struct {
	Input     string
	Sheet     string
	OutputDir string
	// Charts selects catalog ids; empty means all.
	Charts       []int
	Palette      charts.Palette
	Workers      int
	Strict       bool
	WriteSummary bool
	ExportXLSX   bool
	// Quiet suppresses per-chart progress lines on the output writer.
	Quiet bool
}

// Result is what a run produced.
type Result struct {
	RunID        string
	Stage        Stage
	Expected     int
	Produced     int
	Artifacts    []manifest.Artifact
	Summary      *analysis.Summary
	Validation   *dataset.ValidationReport
	ManifestPath string
}

// SummaryLine reports chart completion, e.g. "9 of 10 generated".
func (r *Result) SummaryLine() string {
	return fmt.Sprintf("%d of %d generated", r.Produced, r.Expected)
}

// Partial reports whether any selected chart failed.
func (r *Result) Partial() bool { return r.Produced < r.Expected }

type run struct {
	opt      Options
	renderer render.Renderer
	log      *zap.Logger
	out      io.Writer
	outMu    sync.Mutex
	res      *Result
	man      *manifest.Manifest
}

// Run executes the whole pipeline. Load and validation errors are fatal and
// returned with the result in StageFailed. Per-chart failures are recorded on
// the chart's artifact and do not stop other charts.
func Run(ctx context.Context, opt Options, renderer render.Renderer, log *zap.Logger, out io.Writer) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	if len(opt.Palette.Set3) == 0 {
		opt.Palette = charts.DefaultPalette()
	}
	r := &run{
		opt:      opt,
		renderer: renderer,
		log:      log,
		out:      out,
		man:      manifest.New(opt.Input, opt.OutputDir),
	}
	r.res = &Result{RunID: r.man.RunID, Stage: StageInit}
	r.log = r.log.With(zap.String("run_id", r.man.RunID))
	return r.execute(ctx)
}

func (r *run) printf(format string, args ...any) {
	if r.opt.Quiet {
		return
	}
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

func (r *run) transition(s Stage) {
	r.log.Debug("stage", zap.String("from", string(r.res.Stage)), zap.String("to", string(s)))
	r.res.Stage = s
	r.man.Stage = string(s)
}

func (r *run) fail(err error) (*Result, error) {
	r.log.Error("run failed",
		zap.String("stage", string(r.res.Stage)),
		zap.String("kind", string(Kind(err))),
		zap.Error(err))
	r.transition(StageFailed)
	return r.res, err
}

func (r *run) execute(ctx context.Context) (*Result, error) {
	descriptors, err := charts.Select(r.opt.Charts)
	if err != nil {
		return r.fail(err)
	}
	r.res.Expected = len(descriptors)

	raw, err := dataset.Load(r.opt.Input, dataset.LoadOptions{Sheet: r.opt.Sheet})
	if err != nil {
		return r.fail(fmt.Errorf("load: %w", err))
	}
	r.transition(StageLoaded)
	r.log.Info("loaded", zap.String("input", r.opt.Input), zap.Int("rows", len(raw.Rows)))

	tbl, vr, err := dataset.Validate(raw, dataset.ValidateOptions{Strict: r.opt.Strict})
	r.res.Validation = vr
	if err != nil {
		return r.fail(fmt.Errorf("validate: %w", err))
	}
	r.transition(StageValidated)
	r.man.Rows = tbl.Len()
	r.man.Anomalies = vr.Total
	if vr.Total > 0 {
		r.log.Warn("data anomalies",
			zap.Int("total", vr.Total),
			zap.Int("coerced", vr.CoercedCells()),
			zap.Any("by_kind", vr.ByKind))
		r.printf("⚠ Warning: %d data anomalies (%d cells coerced to missing)\n", vr.Total, vr.CoercedCells())
	}
	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}

	if err := utils.EnsureDir(r.opt.OutputDir); err != nil {
		return r.fail(&render.WriteError{Path: r.opt.OutputDir, Err: err})
	}

	arts := make([]manifest.Artifact, len(descriptors))
	prepared := make([]*charts.ChartData, len(descriptors))
	for i, d := range descriptors {
		arts[i] = manifest.Artifact{
			ChartID: d.ID,
			Name:    d.FileName(),
			Path:    filepath.Join(r.opt.OutputDir, d.FileName()),
			Status:  manifest.StatusPending,
		}
		cd, err := charts.Prepare(tbl, d, r.opt.Palette)
		if err != nil {
			r.chartFailed(&arts[i], fmt.Errorf("prepare: %w", err))
			continue
		}
		prepared[i] = cd
	}
	var summary *analysis.Summary
	var summaryErr error
	if r.opt.WriteSummary || r.opt.ExportXLSX {
		summary, summaryErr = analysis.Summarize(tbl, vr)
		if summaryErr != nil {
			r.log.Warn("summary statistics failed", zap.Error(summaryErr))
		}
		r.res.Summary = summary
	}
	r.transition(StageAggregated)
	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}

	r.renderAll(ctx, prepared, arts)
	for _, a := range arts {
		r.man.Record(a)
		if a.OK() {
			r.res.Produced++
		}
	}
	if err := ctx.Err(); err != nil {
		r.res.Artifacts = r.man.Artifacts
		r.log.Warn("rendering interrupted", zap.Int("produced", r.res.Produced))
		return r.fail(err)
	}
	r.transition(StageRendered)

	if r.opt.WriteSummary {
		r.man.Record(r.writeSummary(summary, summaryErr))
	}
	if r.opt.ExportXLSX {
		r.man.Record(r.writeWorkbook(prepared, summary))
	}
	r.transition(StageReported)

	r.man.Expected = r.res.Expected
	r.man.Produced = r.res.Produced
	r.transition(StageDone)
	path, err := r.man.Save()
	if err != nil {
		r.log.Warn("manifest not written", zap.Error(err))
	} else {
		r.res.ManifestPath = path
	}
	r.res.Artifacts = r.man.Artifacts
	r.log.Info("run complete",
		zap.Int("expected", r.res.Expected),
		zap.Int("produced", r.res.Produced))
	return r.res, nil
}

func (r *run) chartFailed(a *manifest.Artifact, err error) {
	kind := Kind(err)
	a.Status = manifest.StatusFailed
	a.Kind = string(kind)
	a.Error = err.Error()
	r.log.Warn("chart failed",
		zap.Int("chart", a.ChartID),
		zap.String("file", a.Name),
		zap.String("kind", string(kind)),
		zap.Error(err))
	r.printf("✗ %s: %s: %v\n", a.Name, kind, err)
}

// renderAll renders prepared charts sequentially, or through a bounded
// errgroup when Workers > 1. Each task owns arts[i].
func (r *run) renderAll(ctx context.Context, prepared []*charts.ChartData, arts []manifest.Artifact) {
	total := len(prepared)
	one := func(i int) {
		cd := prepared[i]
		if cd == nil {
			return
		}
		if err := ctx.Err(); err != nil {
			arts[i].Status = manifest.StatusSkipped
			arts[i].Kind = string(KindCancelled)
			arts[i].Error = err.Error()
			return
		}
		r.printf("[%d/%d] Rendering %s...\n", i+1, total, arts[i].Name)
		if err := r.renderer.Render(ctx, cd, arts[i].Path); err != nil {
			r.chartFailed(&arts[i], err)
			return
		}
		arts[i].Status = manifest.StatusWritten
		r.log.Debug("chart written", zap.Int("chart", arts[i].ChartID), zap.String("path", arts[i].Path))
	}

	if r.opt.Workers <= 1 {
		for i := range prepared {
			one(i)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(r.opt.Workers)
	for i := range prepared {
		i := i
		g.Go(func() error {
			one(i)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *run) writeSummary(s *analysis.Summary, summarizeErr error) manifest.Artifact {
	a := manifest.Artifact{
		Name:   SummaryFileName,
		Path:   filepath.Join(r.opt.OutputDir, SummaryFileName),
		Status: manifest.StatusFailed,
	}
	if s == nil {
		a.Kind = string(Kind(summarizeErr))
		if summarizeErr != nil {
			a.Error = summarizeErr.Error()
		}
		return a
	}
	if err := utils.SafeWriteFile(a.Path, []byte(s.Text())); err != nil {
		err = &render.WriteError{Path: a.Path, Err: err}
		a.Kind, a.Error = string(Kind(err)), err.Error()
		r.log.Warn("summary not written", zap.Error(err))
		return a
	}
	a.Status = manifest.StatusWritten
	return a
}

func (r *run) writeWorkbook(prepared []*charts.ChartData, s *analysis.Summary) manifest.Artifact {
	a := manifest.Artifact{
		Name:   export.FileName,
		Path:   filepath.Join(r.opt.OutputDir, export.FileName),
		Status: manifest.StatusWritten,
	}
	if err := export.Workbook(a.Path, prepared, s); err != nil {
		a.Status = manifest.StatusFailed
		a.Kind, a.Error = string(Kind(err)), err.Error()
		r.log.Warn("workbook not written", zap.Error(err))
	}
	return a
}

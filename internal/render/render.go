// Package render draws prepared chart data to image files.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/KaramelBytes/churnviz-cli/internal/charts"
	"github.com/KaramelBytes/churnviz-cli/internal/utils"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// DefaultDPI matches the figure resolution of the stock output.
const DefaultDPI = 100

// ErrWriteFailure marks an artifact that could not be written.
var ErrWriteFailure = errors.New("write failure")

// WriteError wraps the underlying I/O error for one artifact path.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }
func (e *WriteError) Is(target error) bool { return target == ErrWriteFailure }

// Renderer turns chart data into a file at path.
type Renderer interface {
	Render(ctx context.Context, cd *charts.ChartData, path string) error
}

// PNG renders with gonum/plot onto a raster canvas.
type PNG struct {
	DPI int
	// Width and Height, in inches, override every chart's own figure size
	// when both are positive.
	Width  float64
	Height float64
}

// Render draws cd and atomically writes the PNG to path.
func (r PNG) Render(ctx context.Context, cd *charts.ChartData, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := r.draw(cd)
	if err != nil {
		return fmt.Errorf("draw %s: %w", cd.Descriptor.FileName(), err)
	}
	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func (r PNG) draw(cd *charts.ChartData) (*vgimg.Canvas, error) {
	fig := cd.Descriptor.Figure
	if r.Width > 0 && r.Height > 0 {
		fig = charts.Figure{Width: r.Width, Height: r.Height}
	}
	if fig.Width <= 0 || fig.Height <= 0 {
		return nil, fmt.Errorf("invalid figure size %gx%g", fig.Width, fig.Height)
	}
	dpi := r.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	img := vgimg.NewWith(
		vgimg.UseWH(vg.Length(fig.Width)*vg.Inch, vg.Length(fig.Height)*vg.Inch),
		vgimg.UseDPI(dpi),
	)
	dc := draw.New(img)
	if cd.Descriptor.Kind == charts.KindDashboard {
		if err := drawDashboard(dc, cd); err != nil {
			return nil, err
		}
		return img, nil
	}
	p, err := build(cd)
	if err != nil {
		return nil, err
	}
	p.Draw(dc)
	return img, nil
}

// build lays out a single chart on a new plot.
func build(cd *charts.ChartData) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = cd.Descriptor.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = cd.Descriptor.XLabel
	p.Y.Label.Text = cd.Descriptor.YLabel

	var err error
	switch cd.Descriptor.Kind {
	case charts.KindPie:
		err = pie(p, cd)
	case charts.KindBar:
		err = bars(p, cd)
	case charts.KindGroupedBar:
		err = groupedBars(p, cd)
	case charts.KindStackedBar:
		err = stackedBars(p, cd)
	case charts.KindHistogram:
		err = histogram(p, cd)
	case charts.KindBox:
		err = boxes(p, cd)
	case charts.KindViolin:
		err = violins(p, cd)
	default:
		err = fmt.Errorf("unsupported chart kind %q", cd.Descriptor.Kind)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

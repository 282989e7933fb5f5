package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/KaramelBytes/churnviz-cli/internal/charts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	barWidth     = vg.Points(36)
	groupedWidth = vg.Points(24)
	boxWidth     = vg.Points(50)
	edgeStyle    = draw.LineStyle{Color: color.Black, Width: vg.Points(0.5)}
)

// violinHalfWidth is the widest half of a violin in x-axis units.
const violinHalfWidth = 0.4

func translucent(c color.RGBA, a float64) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(a*255 + 0.5)}
}

func applyYMax(p *plot.Plot, ymax float64) {
	if ymax > 0 {
		p.Y.Min = 0
		p.Y.Max = ymax
	}
}

// valueLabels annotates bar tops, shifted horizontally by dx.
func valueLabels(xs, ys []float64, labels []string, dx vg.Length) (*plotter.Labels, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	if len(labels) != len(ys) {
		return nil, fmt.Errorf("%d labels for %d values", len(labels), len(ys))
	}
	pts := make(plotter.XYs, len(ys))
	for i := range ys {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	l, err := plotter.NewLabels(plotter.XYLabels{XYs: pts, Labels: labels})
	if err != nil {
		return nil, err
	}
	for i := range l.TextStyle {
		l.TextStyle[i].XAlign = draw.XCenter
		l.TextStyle[i].Font.Size = vg.Points(9)
	}
	l.Offset = vg.Point{X: dx, Y: vg.Points(3)}
	return l, nil
}

func positions(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs
}

func bars(p *plot.Plot, cd *charts.ChartData) error {
	if len(cd.Series) != 1 || len(cd.Colors) != len(cd.Series[0].Values) {
		return errors.New("bar chart needs one series with a color per category")
	}
	s := cd.Series[0]
	p.Add(plotter.NewGrid())
	for i, v := range s.Values {
		b, err := plotter.NewBarChart(plotter.Values{v}, barWidth)
		if err != nil {
			return err
		}
		b.XMin = float64(i)
		b.Color = cd.Colors[i]
		b.LineStyle = edgeStyle
		p.Add(b)
	}
	l, err := valueLabels(positions(len(s.Values)), s.Values, s.Labels, 0)
	if err != nil {
		return err
	}
	if l != nil {
		p.Add(l)
	}
	p.NominalX(cd.Categories...)
	applyYMax(p, cd.YMax)
	return nil
}

func groupedBars(p *plot.Plot, cd *charts.ChartData) error {
	n := len(cd.Series)
	if n == 0 {
		return errors.New("grouped bar chart has no series")
	}
	p.Add(plotter.NewGrid())
	for j, s := range cd.Series {
		b, err := plotter.NewBarChart(plotter.Values(s.Values), groupedWidth)
		if err != nil {
			return err
		}
		b.Color = s.Color
		b.LineStyle = edgeStyle
		b.Offset = groupedWidth * vg.Length(float64(j)-float64(n-1)/2)
		p.Add(b)
		p.Legend.Add(s.Name, b)
		l, err := valueLabels(positions(len(s.Values)), s.Values, s.Labels, b.Offset)
		if err != nil {
			return err
		}
		if l != nil {
			p.Add(l)
		}
	}
	p.Legend.Top = true
	p.NominalX(cd.Categories...)
	applyYMax(p, cd.YMax)
	return nil
}

func stackedBars(p *plot.Plot, cd *charts.ChartData) error {
	if len(cd.Series) == 0 {
		return errors.New("stacked bar chart has no series")
	}
	p.Add(plotter.NewGrid())
	var below *plotter.BarChart
	for _, s := range cd.Series {
		b, err := plotter.NewBarChart(plotter.Values(s.Values), barWidth)
		if err != nil {
			return err
		}
		b.Color = s.Color
		b.LineStyle = edgeStyle
		if below != nil {
			b.StackOn(below)
		}
		p.Add(b)
		p.Legend.Add(s.Name, b)
		below = b
	}
	p.Legend.Top = true
	p.NominalX(cd.Categories...)
	return nil
}

func histogram(p *plot.Plot, cd *charts.ChartData) error {
	if len(cd.Edges) != len(cd.Categories)+1 {
		return fmt.Errorf("histogram has %d edges for %d bins", len(cd.Edges), len(cd.Categories))
	}
	p.Add(plotter.NewGrid())
	for _, s := range cd.Series {
		h := &plotter.Histogram{
			Width:     cd.Edges[1] - cd.Edges[0],
			FillColor: translucent(s.Color, 0.6),
			LineStyle: edgeStyle,
		}
		for i, v := range s.Values {
			h.Bins = append(h.Bins, plotter.HistogramBin{Min: cd.Edges[i], Max: cd.Edges[i+1], Weight: v})
		}
		p.Add(h)
		p.Legend.Add(s.Name, h)
	}
	p.Legend.Top = true
	return nil
}

func boxes(p *plot.Plot, cd *charts.ChartData) error {
	p.Add(plotter.NewGrid())
	for i, c := range cd.Classes {
		b, err := plotter.NewBoxPlot(boxWidth, float64(i), plotter.Values(c.Values))
		if err != nil {
			return err
		}
		b.FillColor = translucent(c.Color, 0.7)
		b.GlyphStyle.Color = cd.Accent
		p.Add(b)
	}
	p.NominalX(cd.Categories...)
	return nil
}

// violins mirrors each class density around its x position and draws a
// narrow box inside.
func violins(p *plot.Plot, cd *charts.ChartData) error {
	p.Add(plotter.NewGrid())
	for i, c := range cd.Classes {
		if len(c.DensityX) == 0 {
			return fmt.Errorf("class %s has no density", c.Label)
		}
		peak := 0.0
		for _, y := range c.DensityY {
			peak = math.Max(peak, y)
		}
		if peak == 0 {
			peak = 1
		}
		n := len(c.DensityX)
		ring := make(plotter.XYs, 0, 2*n)
		for k := 0; k < n; k++ {
			ring = append(ring, plotter.XY{X: float64(i) + c.DensityY[k]/peak*violinHalfWidth, Y: c.DensityX[k]})
		}
		for k := n - 1; k >= 0; k-- {
			ring = append(ring, plotter.XY{X: float64(i) - c.DensityY[k]/peak*violinHalfWidth, Y: c.DensityX[k]})
		}
		poly, err := plotter.NewPolygon(ring)
		if err != nil {
			return err
		}
		poly.Color = translucent(c.Color, 0.7)
		poly.LineStyle = edgeStyle
		p.Add(poly)

		inner, err := plotter.NewBoxPlot(vg.Points(8), float64(i), plotter.Values(c.Values))
		if err != nil {
			return err
		}
		inner.FillColor = color.Black
		inner.MedianStyle.Color = color.White
		inner.GlyphStyle.Radius = 0
		p.Add(inner)
	}
	p.NominalX(cd.Categories...)
	return nil
}

// pie draws wedges counter-clockwise from twelve o'clock.
func pie(p *plot.Plot, cd *charts.ChartData) error {
	if len(cd.Series) != 1 || len(cd.Colors) != len(cd.Series[0].Values) {
		return errors.New("pie chart needs one series with a color per slice")
	}
	s := cd.Series[0]
	total := 0.0
	for _, v := range s.Values {
		total += v
	}
	if total <= 0 {
		return errors.New("pie chart has no data")
	}
	var names, shares plotter.XYs
	start := math.Pi / 2
	for i, v := range s.Values {
		sweep := 2 * math.Pi * v / total
		steps := int(math.Ceil(sweep/(math.Pi/90))) + 1
		ring := plotter.XYs{{X: 0, Y: 0}}
		for k := 0; k <= steps; k++ {
			a := start + sweep*float64(k)/float64(steps)
			ring = append(ring, plotter.XY{X: math.Cos(a), Y: math.Sin(a)})
		}
		wedge, err := plotter.NewPolygon(ring)
		if err != nil {
			return err
		}
		wedge.Color = cd.Colors[i]
		wedge.LineStyle = draw.LineStyle{Color: color.White, Width: vg.Points(1.5)}
		p.Add(wedge)

		mid := start + sweep/2
		names = append(names, plotter.XY{X: 1.15 * math.Cos(mid), Y: 1.15 * math.Sin(mid)})
		shares = append(shares, plotter.XY{X: 0.6 * math.Cos(mid), Y: 0.6 * math.Sin(mid)})
		start += sweep
	}
	for _, set := range []struct {
		xys    plotter.XYs
		labels []string
	}{{names, cd.Categories}, {shares, s.Labels}} {
		if len(set.labels) == 0 {
			continue
		}
		l, err := plotter.NewLabels(plotter.XYLabels{XYs: set.xys, Labels: set.labels})
		if err != nil {
			return err
		}
		for i := range l.TextStyle {
			l.TextStyle[i].XAlign = draw.XCenter
			l.TextStyle[i].YAlign = draw.YCenter
		}
		p.Add(l)
	}
	p.HideAxes()
	p.X.Min, p.X.Max = -1.4, 1.4
	p.Y.Min, p.Y.Max = -1.3, 1.3
	return nil
}

// drawDashboard tiles the panels two per row under a shared title.
func drawDashboard(dc draw.Canvas, cd *charts.ChartData) error {
	if len(cd.Panels) == 0 || len(cd.Panels)%2 != 0 {
		return fmt.Errorf("dashboard needs an even number of panels, got %d", len(cd.Panels))
	}
	rows := len(cd.Panels) / 2
	plots := make([][]*plot.Plot, rows)
	for i, panel := range cd.Panels {
		p, err := build(panel)
		if err != nil {
			return fmt.Errorf("panel %q: %w", panel.Descriptor.Title, err)
		}
		p.Title.TextStyle.Font.Size = vg.Points(12)
		plots[i/2] = append(plots[i/2], p)
	}
	tiles := draw.Tiles{
		Rows: rows, Cols: 2,
		PadTop: vg.Points(40), PadBottom: vg.Points(10),
		PadLeft: vg.Points(10), PadRight: vg.Points(10),
		PadX: vg.Points(30), PadY: vg.Points(30),
	}
	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i := range plots[j] {
			plots[j][i].Draw(canvases[j][i])
		}
	}
	title := text.Style{
		Color:   color.Black,
		Font:    font.From(plot.DefaultFont, vg.Points(16)),
		XAlign:  draw.XCenter,
		YAlign:  draw.YTop,
		Handler: plot.DefaultTextHandler,
	}
	dc.FillText(title, vg.Point{X: dc.Center().X, Y: dc.Max.Y - vg.Points(10)}, cd.Descriptor.Title)
	return nil
}

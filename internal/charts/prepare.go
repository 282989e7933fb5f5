package charts

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"

	"github.com/KaramelBytes/churnviz-cli/internal/analysis"
	"github.com/KaramelBytes/churnviz-cli/internal/dataset"
)

// densityPoints is the KDE resolution for violins.
const densityPoints = 100

// Series is one set of bars, slices or histogram counts.
type Series struct {
	Name   string
	Color  color.RGBA
	Values []float64
	// Labels annotate each value; empty means no annotations.
	Labels []string
}

// Class is one churn class of a distribution chart.
type Class struct {
	Label    string
	Color    color.RGBA
	Values   []float64
	Box      analysis.BoxStats
	DensityX []float64
	DensityY []float64
}

// ChartData is everything a renderer needs for one chart.
type ChartData struct {
	Descriptor Descriptor
	Categories []string
	Series     []Series
	// Colors is per category and only set for single-series charts.
	Colors []color.RGBA
	// Edges are histogram bin edges.
	Edges []float64
	// YMax caps the value axis; 0 lets the renderer decide.
	YMax    float64
	Classes []Class
	// Accent marks box plot outliers.
	Accent color.RGBA
	Panels []*ChartData
}

// Prepare runs the descriptor's aggregation on t and attaches colors,
// labels and axis bounds. It never touches the filesystem.
func Prepare(t *dataset.Table, d Descriptor, p Palette) (*ChartData, error) {
	cd := &ChartData{Descriptor: d}
	var err error
	switch d.Op {
	case OpValueCounts:
		err = prepareShares(t, cd, p)
	case OpChurnRate:
		err = prepareRates(t, cd, p)
	case OpCrossTab:
		err = prepareCrossTab(t, cd, p)
	case OpBinned:
		err = prepareHistogram(t, cd, p)
	case OpDistribution:
		err = prepareDistribution(t, cd, p)
	case OpPanels:
		for _, pd := range d.Panels {
			sub, perr := Prepare(t, pd, p)
			if perr != nil {
				return nil, fmt.Errorf("panel %q: %w", pd.Title, perr)
			}
			cd.Panels = append(cd.Panels, sub)
		}
	default:
		err = fmt.Errorf("unsupported chart op %q", d.Op)
	}
	if err != nil {
		return nil, err
	}
	return cd, nil
}

func prepareShares(t *dataset.Table, cd *ChartData, p Palette) error {
	d := cd.Descriptor
	counts, err := analysis.ValueCounts(t, d.Column, d.Sort)
	if err != nil {
		return err
	}
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	if total == 0 {
		return &analysis.EmptyGroupError{Column: d.Column, Group: "all"}
	}
	s := Series{Name: string(d.Column)}
	for _, c := range counts {
		name, col := categoryStyle(d, c.Value, len(cd.Categories), p, 0, 0)
		cd.Categories = append(cd.Categories, name)
		cd.Colors = append(cd.Colors, col)
		s.Values = append(s.Values, float64(c.Count))
		s.Labels = append(s.Labels, fmt.Sprintf(d.LabelFormat, float64(c.Count)*100/float64(total)))
	}
	cd.Series = []Series{s}
	return nil
}

func prepareRates(t *dataset.Table, cd *ChartData, p Palette) error {
	d := cd.Descriptor
	buckets, err := analysis.ChurnRate(t, analysis.Grouping{Column: d.Column})
	if err != nil {
		return err
	}
	buckets = analysis.SortBuckets(buckets, d.Sort)
	maxRate := 0.0
	for _, b := range buckets {
		if r := b.Rate * 100; r > maxRate {
			maxRate = r
		}
	}
	s := Series{Name: "Churn Rate (%)"}
	for i, b := range buckets {
		r := b.Rate * 100
		name, col := categoryStyle(d, b.Key, i, p, r, maxRate)
		cd.Categories = append(cd.Categories, name)
		cd.Colors = append(cd.Colors, col)
		s.Values = append(s.Values, r)
		s.Labels = append(s.Labels, fmt.Sprintf(d.LabelFormat, r))
	}
	if len(cd.Colors) > 0 && (d.Colors == ColorContract || d.Colors == ColorGradient) {
		src := p.Contract
		if d.Colors == ColorGradient {
			src = p.Gradient
		}
		cd.Colors = cycle(src, len(cd.Colors))
	}
	cd.Series = []Series{s}
	cd.YMax = yMax(d.YAxis, maxRate)
	return nil
}

func prepareCrossTab(t *dataset.Table, cd *ChartData, p Palette) error {
	d := cd.Descriptor
	x, err := analysis.CrossTabulate(t, d.Column, d.By)
	if err != nil {
		return err
	}
	order := make([]int, len(x.Rows))
	for i := range order {
		order[i] = i
	}
	if d.Sort == analysis.OrderLabel {
		sort.SliceStable(order, func(a, b int) bool { return x.Rows[order[a]] < x.Rows[order[b]] })
	}
	for _, i := range order {
		cd.Categories = append(cd.Categories, x.Rows[i])
	}
	set3 := cycle(p.Set3, len(x.Cols))
	maxVal := 0.0
	for j, key := range x.Cols {
		s := Series{Name: key}
		switch d.Colors {
		case ColorChurnPair, ColorClass:
			s.Name, s.Color = classStyle(key, d.Colors, p)
		default:
			s.Color = set3[j]
		}
		for _, i := range order {
			v := float64(x.Count(x.Rows[i], key))
			s.Values = append(s.Values, v)
			if d.LabelFormat != "" {
				s.Labels = append(s.Labels, fmt.Sprintf(d.LabelFormat, v))
			}
			if v > maxVal {
				maxVal = v
			}
		}
		cd.Series = append(cd.Series, s)
	}
	cd.YMax = yMax(d.YAxis, maxVal)
	return nil
}

func prepareHistogram(t *dataset.Table, cd *ChartData, p Palette) error {
	d := cd.Descriptor
	lo, hi, ok := analysis.NumericRange(t, d.Column)
	if !ok {
		return &analysis.EmptyGroupError{Column: d.Column, Group: "all bins"}
	}
	bins, err := analysis.EqualWidthBins(lo, hi, d.Bins)
	if err != nil {
		return err
	}
	h, err := analysis.BinnedCounts(t, d.Column, bins)
	if err != nil {
		return err
	}
	cd.Categories = h.Labels
	cd.Edges = bins.Edges
	retained := Series{}
	retained.Name, retained.Color = classStyle("0", d.Colors, p)
	churned := Series{}
	churned.Name, churned.Color = classStyle("1", d.Colors, p)
	for i := range h.Labels {
		retained.Values = append(retained.Values, float64(h.Retained[i]))
		churned.Values = append(churned.Values, float64(h.Churned[i]))
	}
	cd.Series = []Series{retained, churned}
	return nil
}

func prepareDistribution(t *dataset.Table, cd *ChartData, p Palette) error {
	d := cd.Descriptor
	dist, err := analysis.Distribution(t, d.Column)
	if err != nil {
		return err
	}
	cd.Accent = p.Warning
	for _, cl := range dist {
		c := Class{Label: cl.Label, Values: cl.Values, Box: cl.Box}
		_, c.Color = classStyle(strconv.Itoa(cl.Flag), d.Colors, p)
		if d.Kind == KindViolin {
			c.DensityX, c.DensityY = analysis.Density(cl.Values, densityPoints)
		}
		cd.Categories = append(cd.Categories, cl.Label)
		cd.Classes = append(cd.Classes, c)
	}
	return nil
}

// categoryStyle names and colors the i-th category of a single-series chart.
func categoryStyle(d Descriptor, key string, i int, p Palette, rate, maxRate float64) (string, color.RGBA) {
	switch d.Colors {
	case ColorChurnPair, ColorClass:
		return classStyle(key, d.Colors, p)
	case ColorIntensity:
		return key, intensity(rate, maxRate)
	case ColorSet3:
		return key, cycle(p.Set3, i+1)[i]
	}
	return key, p.Neutral
}

// classStyle maps a churn flag key to its display label and color.
func classStyle(key string, rule ColorRule, p Palette) (string, color.RGBA) {
	flag, err := strconv.Atoi(key)
	if err != nil {
		return key, p.Gray
	}
	if flag == 1 {
		return dataset.ChurnLabel(1), p.Churn
	}
	if rule == ColorClass {
		return dataset.ChurnLabel(0), p.Neutral
	}
	return dataset.ChurnLabel(0), p.Retain
}

func yMax(y YAxis, maxVal float64) float64 {
	switch {
	case y.Fixed > 0:
		return y.Fixed
	case y.Headroom > 0 && maxVal > 0:
		return maxVal * y.Headroom
	}
	return 0
}

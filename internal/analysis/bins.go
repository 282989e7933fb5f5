package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/churnviz-cli/internal/dataset"
)

// BinSpec holds histogram edges. Bin i covers [Edges[i], Edges[i+1]);
// the last bin is closed on both ends.
type BinSpec struct {
	Edges  []float64
	Labels []string
}

// TenureGroups buckets tenure into first year, second, third, up to six
// years, and anything longer. The last edge is open so no tenure is dropped.
var TenureGroups = BinSpec{
	Edges:  []float64{0, 13, 25, 37, 73, math.Inf(1)},
	Labels: []string{"0-12", "13-24", "25-36", "37-72", "73+"},
}

// Len is the number of bins.
func (b BinSpec) Len() int {
	if len(b.Edges) < 2 {
		return 0
	}
	return len(b.Edges) - 1
}

// Index returns the bin containing x.
func (b BinSpec) Index(x float64) (int, bool) {
	n := b.Len()
	if n == 0 || math.IsNaN(x) || x < b.Edges[0] || x > b.Edges[n] {
		return 0, false
	}
	if x == b.Edges[n] {
		return n - 1, true
	}
	// first edge strictly greater than x, minus one
	i := sort.Search(len(b.Edges), func(i int) bool { return b.Edges[i] > x }) - 1
	return i, true
}

func (b BinSpec) validate() error {
	if len(b.Edges) < 2 {
		return errors.New("bin spec needs at least two edges")
	}
	for i := 1; i < len(b.Edges); i++ {
		if !(b.Edges[i] > b.Edges[i-1]) {
			return fmt.Errorf("bin edges must increase strictly (edge %d)", i)
		}
	}
	if len(b.Labels) > 0 && len(b.Labels) != b.Len() {
		return fmt.Errorf("bin spec has %d labels for %d bins", len(b.Labels), b.Len())
	}
	return nil
}

func (b BinSpec) labels() []string {
	if len(b.Labels) == b.Len() {
		return append([]string(nil), b.Labels...)
	}
	out := make([]string, b.Len())
	for i := range out {
		closer := ")"
		if i == len(out)-1 {
			closer = "]"
		}
		out[i] = fmt.Sprintf("[%g, %g%s", b.Edges[i], b.Edges[i+1], closer)
	}
	return out
}

// EqualWidthBins splits [min, max] into n equal bins. A degenerate range is
// widened by 0.5 on each side.
func EqualWidthBins(min, max float64, n int) (BinSpec, error) {
	if n <= 0 {
		return BinSpec{}, fmt.Errorf("bin count must be positive, got %d", n)
	}
	if math.IsNaN(min) || math.IsNaN(max) || min > max {
		return BinSpec{}, fmt.Errorf("invalid bin range [%g, %g]", min, max)
	}
	if min == max {
		min -= 0.5
		max += 0.5
	}
	edges := make([]float64, n+1)
	width := (max - min) / float64(n)
	for i := range edges {
		edges[i] = min + float64(i)*width
	}
	edges[n] = max
	return BinSpec{Edges: edges}, nil
}

// Histogram holds counts per bin split by churn class.
type Histogram struct {
	Column   dataset.Column
	Bins     BinSpec
	Labels   []string
	Retained []int
	Churned  []int
	// Outside counts values beyond the edges; Skipped counts rows with a
	// missing value or churn flag.
	Outside int
	Skipped int
}

// Total is the number of binned rows.
func (h *Histogram) Total() int {
	n := 0
	for i := range h.Retained {
		n += h.Retained[i] + h.Churned[i]
	}
	return n
}

// NumericRange returns the min and max non-missing value of col.
func NumericRange(t *dataset.Table, col dataset.Column) (min, max float64, ok bool) {
	min, max = math.Inf(1), math.Inf(-1)
	t.Each(func(_ int, c dataset.Customer) {
		x, has := c.Number(col)
		if !has {
			return
		}
		ok = true
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	})
	return min, max, ok
}

// BinnedCounts counts col per bin and churn class.
func BinnedCounts(t *dataset.Table, col dataset.Column, bins BinSpec) (*Histogram, error) {
	if err := bins.validate(); err != nil {
		return nil, err
	}
	h := &Histogram{
		Column:   col,
		Bins:     bins,
		Labels:   bins.labels(),
		Retained: make([]int, bins.Len()),
		Churned:  make([]int, bins.Len()),
	}
	t.Each(func(_ int, c dataset.Customer) {
		x, ok := c.Number(col)
		churned, flagOK := c.IsChurned()
		if !ok || !flagOK {
			h.Skipped++
			return
		}
		i, in := bins.Index(x)
		if !in {
			h.Outside++
			return
		}
		if churned {
			h.Churned[i]++
		} else {
			h.Retained[i]++
		}
	})
	if h.Total() == 0 {
		return nil, &EmptyGroupError{Column: col, Group: "all bins"}
	}
	return h, nil
}

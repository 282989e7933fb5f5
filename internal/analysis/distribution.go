package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/churnviz-cli/internal/dataset"
)

// BoxStats is the five-number summary used by box plots. Whiskers reach the
// most extreme values within 1.5 IQR of the quartiles.
type BoxStats struct {
	N            int
	Min, Max     float64
	Q1, Q3       float64
	Median       float64
	Mean         float64
	LowerWhisker float64
	UpperWhisker float64
	Outliers     []float64
}

// ClassDistribution is the sorted values of one churn class.
type ClassDistribution struct {
	Label  string
	Flag   int
	Values []float64
	Box    BoxStats
}

// Distribution splits col by churn class, retained first.
func Distribution(t *dataset.Table, col dataset.Column) ([]ClassDistribution, error) {
	out := []ClassDistribution{
		{Label: dataset.ChurnLabel(0), Flag: 0},
		{Label: dataset.ChurnLabel(1), Flag: 1},
	}
	t.Each(func(_ int, c dataset.Customer) {
		churned, ok := c.IsChurned()
		if !ok {
			return
		}
		x, ok := c.Number(col)
		if !ok {
			return
		}
		i := 0
		if churned {
			i = 1
		}
		out[i].Values = append(out[i].Values, x)
	})
	for i := range out {
		if len(out[i].Values) == 0 {
			return nil, &EmptyGroupError{Column: col, Group: out[i].Label}
		}
		sort.Float64s(out[i].Values)
		out[i].Box = Box(out[i].Values)
	}
	return out, nil
}

// Box computes BoxStats for values sorted ascending.
func Box(sorted []float64) BoxStats {
	if len(sorted) == 0 {
		return BoxStats{}
	}
	s := BoxStats{
		N:      len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q1:     quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q3:     quantile(sorted, 0.75),
		Mean:   mean(sorted),
	}
	iqr := s.Q3 - s.Q1
	lo, hi := s.Q1-1.5*iqr, s.Q3+1.5*iqr
	s.LowerWhisker, s.UpperWhisker = s.Max, s.Min
	for _, v := range sorted {
		if v < lo || v > hi {
			s.Outliers = append(s.Outliers, v)
			continue
		}
		if v < s.LowerWhisker {
			s.LowerWhisker = v
		}
		if v > s.UpperWhisker {
			s.UpperWhisker = v
		}
	}
	return s
}

// Density evaluates a Gaussian kernel density estimate at n evenly spaced
// points between the min and max of values, using Scott's bandwidth.
func Density(sorted []float64, n int) (xs, ys []float64) {
	if len(sorted) == 0 || n < 2 {
		return nil, nil
	}
	h := stddev(sorted) * math.Pow(float64(len(sorted)), -0.2)
	if h == 0 {
		h = 1
	}
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-h, hi+h
	}
	xs = make([]float64, n)
	ys = make([]float64, n)
	norm := 1 / (float64(len(sorted)) * h * math.Sqrt(2*math.Pi))
	for i := range xs {
		x := lo + (hi-lo)*float64(i)/float64(n-1)
		var sum float64
		for _, v := range sorted {
			u := (x - v) / h
			sum += math.Exp(-0.5 * u * u)
		}
		xs[i] = x
		ys[i] = sum * norm
	}
	return xs, ys
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// stddev is the sample standard deviation via Welford's update.
func stddev(vals []float64) float64 {
	var n int
	var m, m2 float64
	for _, x := range vals {
		n++
		delta := x - m
		m += delta / float64(n)
		m2 += delta * (x - m)
	}
	if n < 2 {
		return 0
	}
	return math.Sqrt(m2 / float64(n-1))
}

// quantile interpolates linearly between closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

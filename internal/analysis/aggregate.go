package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/KaramelBytes/churnviz-cli/internal/dataset"
	"github.com/shopspring/decimal"
)

// ErrEmptyGroup indicates an aggregate was requested over zero rows.
var ErrEmptyGroup = errors.New("empty group")

// EmptyGroupError names the group that had no rows.
type EmptyGroupError struct {
	Column dataset.Column
	Group  string
}

func (e *EmptyGroupError) Error() string {
	return fmt.Sprintf("no rows in group %q of %s", e.Group, e.Column)
}

func (e *EmptyGroupError) Is(target error) bool { return target == ErrEmptyGroup }

// Order selects how groups are sequenced.
type Order int

const (
	// OrderNatural is declared category order, ascending numbers, or bin order.
	OrderNatural Order = iota
	OrderFirstSeen
	OrderCountDesc
	OrderLabel
	OrderRateDesc
)

// CategoryCount is one value_counts entry.
type CategoryCount struct {
	Value string
	Count int
}

// Bucket is the reduction result for one group key.
type Bucket struct {
	Key            string
	Count          int
	Churned        int
	Rate           float64
	MonthlyCharges decimal.Decimal
	TotalCharges   decimal.Decimal
}

// Retained is the number of non-churned rows in the bucket.
func (b Bucket) Retained() int { return b.Count - b.Churned }

// Grouping describes how rows are keyed for ChurnRate.
type Grouping struct {
	Column dataset.Column
	// Bins buckets a numeric column; nil groups by the column's values.
	Bins *BinSpec
	// ObservedOnly drops declared categories and bins that have no rows
	// instead of failing with ErrEmptyGroup.
	ObservedOnly bool
}

// ValueCounts counts non-missing values of col.
func ValueCounts(t *dataset.Table, col dataset.Column, order Order) ([]CategoryCount, error) {
	if _, ok := dataset.Spec(col); !ok {
		return nil, fmt.Errorf("unknown column %q", col)
	}
	counts := map[string]int{}
	var seen []string
	t.Each(func(_ int, c dataset.Customer) {
		k, ok := c.Category(col)
		if !ok {
			return
		}
		if _, dup := counts[k]; !dup {
			seen = append(seen, k)
		}
		counts[k]++
	})
	keys := seen
	switch order {
	case OrderNatural:
		keys = naturalKeys(col, seen)
	case OrderLabel:
		keys = append([]string(nil), seen...)
		sort.Strings(keys)
	}
	out := make([]CategoryCount, 0, len(keys))
	for _, k := range keys {
		if counts[k] == 0 {
			continue
		}
		out = append(out, CategoryCount{Value: k, Count: counts[k]})
	}
	if order == OrderCountDesc {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Count == out[j].Count {
				return out[i].Value < out[j].Value
			}
			return out[i].Count > out[j].Count
		})
	}
	return out, nil
}

// ChurnRate computes churned/total per group. Rows with a missing churn flag
// or a missing key are excluded from every group.
func ChurnRate(t *dataset.Table, g Grouping) ([]Bucket, error) {
	keyOf, keys, err := grouper(t, g)
	if err != nil {
		return nil, err
	}
	acc := make(map[string]*Bucket, len(keys))
	for _, k := range keys {
		acc[k] = &Bucket{Key: k}
	}
	t.Each(func(_ int, c dataset.Customer) {
		churned, ok := c.IsChurned()
		if !ok {
			return
		}
		k, ok := keyOf(c)
		if !ok {
			return
		}
		b := acc[k]
		if b == nil {
			return
		}
		b.Count++
		if churned {
			b.Churned++
		}
		if v, ok := c.Decimal(dataset.MonthlyCharges); ok {
			b.MonthlyCharges = b.MonthlyCharges.Add(v)
		}
		if v, ok := c.Decimal(dataset.TotalCharges); ok {
			b.TotalCharges = b.TotalCharges.Add(v)
		}
	})
	out := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		b := acc[k]
		if b.Count == 0 {
			if g.ObservedOnly {
				continue
			}
			return nil, &EmptyGroupError{Column: g.Column, Group: k}
		}
		b.Rate = float64(b.Churned) / float64(b.Count)
		out = append(out, *b)
	}
	return out, nil
}

// OverallChurnRate is ChurnRate over a single group holding every row.
func OverallChurnRate(t *dataset.Table) (Bucket, error) {
	var b Bucket
	b.Key = "all"
	t.Each(func(_ int, c dataset.Customer) {
		churned, ok := c.IsChurned()
		if !ok {
			return
		}
		b.Count++
		if churned {
			b.Churned++
		}
		if v, ok := c.Decimal(dataset.MonthlyCharges); ok {
			b.MonthlyCharges = b.MonthlyCharges.Add(v)
		}
		if v, ok := c.Decimal(dataset.TotalCharges); ok {
			b.TotalCharges = b.TotalCharges.Add(v)
		}
	})
	if b.Count == 0 {
		return Bucket{}, &EmptyGroupError{Column: dataset.Churned, Group: b.Key}
	}
	b.Rate = float64(b.Churned) / float64(b.Count)
	return b, nil
}

// SortBuckets returns a copy of b in the requested order.
func SortBuckets(b []Bucket, order Order) []Bucket {
	out := append([]Bucket(nil), b...)
	switch order {
	case OrderLabel:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	case OrderRateDesc:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Rate == out[j].Rate {
				return out[i].Key < out[j].Key
			}
			return out[i].Rate > out[j].Rate
		})
	case OrderCountDesc:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Count == out[j].Count {
				return out[i].Key < out[j].Key
			}
			return out[i].Count > out[j].Count
		})
	}
	return out
}

// grouper returns the key function and the ordered key list for g.
func grouper(t *dataset.Table, g Grouping) (func(dataset.Customer) (string, bool), []string, error) {
	spec, ok := dataset.Spec(g.Column)
	if !ok {
		return nil, nil, fmt.Errorf("unknown column %q", g.Column)
	}
	if g.Bins != nil {
		if err := g.Bins.validate(); err != nil {
			return nil, nil, err
		}
		if spec.Kind != dataset.KindInteger && spec.Kind != dataset.KindDecimal {
			return nil, nil, fmt.Errorf("cannot bin %s column %s", spec.Kind, g.Column)
		}
		bins := *g.Bins
		labels := bins.labels()
		keyOf := func(c dataset.Customer) (string, bool) {
			x, ok := c.Number(g.Column)
			if !ok {
				return "", false
			}
			i, ok := bins.Index(x)
			if !ok {
				return "", false
			}
			return labels[i], true
		}
		return keyOf, labels, nil
	}
	keyOf := func(c dataset.Customer) (string, bool) { return c.Category(g.Column) }
	var seen []string
	set := map[string]struct{}{}
	t.Each(func(_ int, c dataset.Customer) {
		if k, ok := keyOf(c); ok {
			if _, dup := set[k]; !dup {
				set[k] = struct{}{}
				seen = append(seen, k)
			}
		}
	})
	return keyOf, naturalKeys(g.Column, seen), nil
}

// naturalKeys orders keys for col: declared categories first followed by
// undeclared observed values, or ascending numbers for integer columns.
func naturalKeys(col dataset.Column, observed []string) []string {
	spec, _ := dataset.Spec(col)
	switch spec.Kind {
	case dataset.KindCategorical, dataset.KindFlag:
		out := append([]string(nil), spec.Categories...)
		declared := map[string]struct{}{}
		for _, c := range spec.Categories {
			declared[c] = struct{}{}
		}
		for _, k := range observed {
			if _, ok := declared[k]; !ok {
				out = append(out, k)
			}
		}
		return out
	case dataset.KindInteger:
		out := append([]string(nil), observed...)
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := strconv.Atoi(out[i])
			b, _ := strconv.Atoi(out[j])
			return a < b
		})
		return out
	default:
		return append([]string(nil), observed...)
	}
}

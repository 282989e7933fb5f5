package analysis

import (
	"fmt"

	"github.com/KaramelBytes/churnviz-cli/internal/dataset"
)

// CrossTab is a two-dimensional count matrix.
type CrossTab struct {
	RowColumn dataset.Column
	ColColumn dataset.Column
	Rows      []string
	Cols      []string
	Counts    [][]int // Counts[row][col]
	RowTotals []int
	ColTotals []int
	Total     int
}

// Count returns the cell for the given row and column keys.
func (x *CrossTab) Count(row, col string) int {
	for i, r := range x.Rows {
		if r != row {
			continue
		}
		for j, c := range x.Cols {
			if c == col {
				return x.Counts[i][j]
			}
		}
	}
	return 0
}

// CrossTabulate counts rows by (a, b). Rows missing either key are skipped.
// A declared category of a with no rows fails with ErrEmptyGroup.
func CrossTabulate(t *dataset.Table, a, b dataset.Column) (*CrossTab, error) {
	if a == b {
		return nil, fmt.Errorf("cross-tab needs two distinct columns, got %s twice", a)
	}
	keyA, rows, err := grouper(t, Grouping{Column: a})
	if err != nil {
		return nil, err
	}
	keyB, cols, err := grouper(t, Grouping{Column: b})
	if err != nil {
		return nil, err
	}
	ri := indexOf(rows)
	ci := indexOf(cols)
	x := &CrossTab{
		RowColumn: a,
		ColColumn: b,
		Rows:      rows,
		Cols:      cols,
		Counts:    make([][]int, len(rows)),
		RowTotals: make([]int, len(rows)),
		ColTotals: make([]int, len(cols)),
	}
	for i := range x.Counts {
		x.Counts[i] = make([]int, len(cols))
	}
	t.Each(func(_ int, c dataset.Customer) {
		ka, okA := keyA(c)
		kb, okB := keyB(c)
		if !okA || !okB {
			return
		}
		i, j := ri[ka], ci[kb]
		x.Counts[i][j]++
		x.RowTotals[i]++
		x.ColTotals[j]++
		x.Total++
	})
	for i, n := range x.RowTotals {
		if n == 0 {
			return nil, &EmptyGroupError{Column: a, Group: rows[i]}
		}
	}
	return x, nil
}

func indexOf(keys []string) map[string]int {
	m := make(map[string]int, len(keys))
	for i, k := range keys {
		m[k] = i
	}
	return m
}

package dataset

// Table is the validated, read-only record set of one run.
type Table struct {
	source string
	rows   []Customer
}

// NewTable copies rows into a new table.
func NewTable(source string, rows []Customer) *Table {
	cp := make([]Customer, len(rows))
	copy(cp, rows)
	return &Table{source: source, rows: cp}
}

// Source is the file the table was loaded from.
func (t *Table) Source() string { return t.source }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns a copy of row i.
func (t *Table) Row(i int) Customer { return t.rows[i] }

// Rows returns a copy of all rows.
func (t *Table) Rows() []Customer {
	cp := make([]Customer, len(t.rows))
	copy(cp, t.rows)
	return cp
}

// Each calls fn for every row in file order.
func (t *Table) Each(fn func(i int, c Customer)) {
	for i, c := range t.rows {
		fn(i, c)
	}
}

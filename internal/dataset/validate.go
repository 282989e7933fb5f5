package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// AnomalyKind classifies a data-quality problem found during validation.
type AnomalyKind string

const (
	AnomalyMissing         AnomalyKind = "missing"
	AnomalyUnparseable     AnomalyKind = "unparseable"
	AnomalyInvalidFlag     AnomalyKind = "invalid_flag"
	AnomalyOutOfRange      AnomalyKind = "out_of_range"
	AnomalyUnknownCategory AnomalyKind = "unknown_category"
	AnomalyDuplicateID     AnomalyKind = "duplicate_id"
)

// Coercion reports whether the anomaly replaced the cell with a missing marker.
func (k AnomalyKind) Coercion() bool {
	return k == AnomalyMissing || k == AnomalyUnparseable || k == AnomalyInvalidFlag
}

// Anomaly is one flagged cell. Row is 1-based over data rows.
type Anomaly struct {
	Row    int
	Column Column
	Value  string
	Kind   AnomalyKind
}

func (a Anomaly) String() string {
	return fmt.Sprintf("row %d, %s=%q: %s", a.Row, a.Column, a.Value, a.Kind)
}

// ValidationReport summarizes what the validator saw. No rows are removed.
type ValidationReport struct {
	Source       string
	Rows         int
	ExtraColumns []string
	Total        int
	ByColumn     map[Column]int
	ByKind       map[AnomalyKind]int
	Samples      []Anomaly
}

// CoercedCells counts cells replaced by a missing marker.
func (r *ValidationReport) CoercedCells() int {
	n := 0
	for k, c := range r.ByKind {
		if k.Coercion() {
			n += c
		}
	}
	return n
}

// Kinds returns anomaly kinds that occurred, sorted by name.
func (r *ValidationReport) Kinds() []AnomalyKind {
	out := make([]AnomalyKind, 0, len(r.ByKind))
	for k := range r.ByKind {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

const maxAnomalySamples = 20

func (r *ValidationReport) add(a Anomaly) {
	r.Total++
	r.ByColumn[a.Column]++
	r.ByKind[a.Kind]++
	if len(r.Samples) < maxAnomalySamples {
		r.Samples = append(r.Samples, a)
	}
}

// ValidateOptions controls validator strictness.
type ValidateOptions struct {
	// Strict makes churn flag anomalies fatal.
	Strict bool
}

// Validate checks the header against Schema and coerces every row into a Customer.
func Validate(raw *RawTable, opt ValidateOptions) (*Table, *ValidationReport, error) {
	idx := make(map[string]int, len(raw.Header))
	for i, h := range raw.Header {
		name := normalizeHeader(h)
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	var missing []string
	pos := make(map[Column]int, len(Schema))
	for _, s := range Schema {
		i, ok := idx[string(s.Name)]
		if !ok {
			missing = append(missing, string(s.Name))
			continue
		}
		pos[s.Name] = i
	}
	if len(missing) > 0 {
		return nil, nil, &SchemaError{Missing: missing}
	}

	rep := &ValidationReport{
		Source:   raw.Source,
		Rows:     len(raw.Rows),
		ByColumn: map[Column]int{},
		ByKind:   map[AnomalyKind]int{},
	}
	for _, h := range raw.Header {
		name := normalizeHeader(h)
		if _, ok := Spec(Column(name)); !ok && name != "" {
			rep.ExtraColumns = append(rep.ExtraColumns, strings.TrimSpace(h))
		}
	}
	if len(raw.Rows) == 0 {
		return nil, rep, ErrEmptyTable
	}

	seen := make(map[string]int, len(raw.Rows))
	rows := make([]Customer, 0, len(raw.Rows))
	for r, rec := range raw.Rows {
		rowNum := r + 1
		cell := func(c Column) string {
			i := pos[c]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		var cust Customer
		for _, s := range Schema {
			v := cell(s.Name)
			switch s.Kind {
			case KindIdentifier:
				cust.ID = v
				if v == "" {
					rep.add(Anomaly{Row: rowNum, Column: s.Name, Kind: AnomalyMissing})
					continue
				}
				if _, dup := seen[v]; dup {
					rep.add(Anomaly{Row: rowNum, Column: s.Name, Value: v, Kind: AnomalyDuplicateID})
				}
				seen[v] = rowNum
			case KindInteger, KindFlag:
				n := coerceInt(v, s, rowNum, rep)
				setInt(&cust, s.Name, n)
			case KindDecimal:
				d := coerceDecimal(v, s, rowNum, rep)
				if s.Name == MonthlyCharges {
					cust.MonthlyCharges = d
				} else {
					cust.TotalCharges = d
				}
			case KindCategorical:
				if v == "" {
					rep.add(Anomaly{Row: rowNum, Column: s.Name, Kind: AnomalyMissing})
				} else if !contains(s.Categories, v) {
					rep.add(Anomaly{Row: rowNum, Column: s.Name, Value: v, Kind: AnomalyUnknownCategory})
				}
				if s.Name == ContractType {
					cust.ContractType = v
				} else {
					cust.PaymentMethod = v
				}
			}
		}
		rows = append(rows, cust)
	}

	if opt.Strict {
		if n := rep.ByColumn[Churned]; n > 0 {
			return nil, rep, &ChurnFlagError{Count: n}
		}
	}
	return NewTable(raw.Source, rows), rep, nil
}

func coerceInt(v string, s ColumnSpec, row int, rep *ValidationReport) NullInt {
	if v == "" {
		rep.add(Anomaly{Row: row, Column: s.Name, Kind: AnomalyMissing})
		return NullInt{}
	}
	x, ok := parseNumber(v)
	if !ok || x != math.Trunc(x) || math.Abs(x) > math.MaxInt32 {
		rep.add(Anomaly{Row: row, Column: s.Name, Value: v, Kind: AnomalyUnparseable})
		return NullInt{}
	}
	n := int(x)
	if s.Kind == KindFlag {
		if n != 0 && n != 1 {
			rep.add(Anomaly{Row: row, Column: s.Name, Value: v, Kind: AnomalyInvalidFlag})
			return NullInt{}
		}
		return validInt(n)
	}
	if !s.Range.contains(x) {
		rep.add(Anomaly{Row: row, Column: s.Name, Value: v, Kind: AnomalyOutOfRange})
	}
	return validInt(n)
}

func coerceDecimal(v string, s ColumnSpec, row int, rep *ValidationReport) decimal.NullDecimal {
	if v == "" {
		rep.add(Anomaly{Row: row, Column: s.Name, Kind: AnomalyMissing})
		return decimal.NullDecimal{}
	}
	clean := strings.TrimPrefix(v, "$")
	clean = strings.ReplaceAll(clean, ",", "")
	d, err := decimal.NewFromString(strings.TrimSpace(clean))
	if err != nil {
		rep.add(Anomaly{Row: row, Column: s.Name, Value: v, Kind: AnomalyUnparseable})
		return decimal.NullDecimal{}
	}
	if !s.Range.contains(d.InexactFloat64()) {
		rep.add(Anomaly{Row: row, Column: s.Name, Value: v, Kind: AnomalyOutOfRange})
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func setInt(c *Customer, col Column, n NullInt) {
	switch col {
	case Age:
		c.Age = n
	case TenureMonths:
		c.TenureMonths = n
	case NumProducts:
		c.NumProducts = n
	case NumSupportCalls:
		c.NumSupportCalls = n
	case Churned:
		c.Churned = n
	}
}

// parseNumber is a lenient float parse. Spaces are dropped and commas are
// treated as thousands separators only when a decimal point is also present.
func parseNumber(s string) (float64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if strings.Count(raw, ",") > 0 && strings.Contains(raw, ".") {
		raw = strings.ReplaceAll(raw, ",", "")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

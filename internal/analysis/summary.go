package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/churnviz-cli/internal/dataset"
	"github.com/shopspring/decimal"
)

// Segment is churn by one grouping.
type Segment struct {
	Name    string
	Column  dataset.Column
	Buckets []Bucket
}

// Revenue is monthly and lifetime charges attributable to churned customers.
type Revenue struct {
	MonthlyChurned decimal.Decimal
	MonthlyTotal   decimal.Decimal
	TotalChurned   decimal.Decimal
	// Share is MonthlyChurned / MonthlyTotal, 0 when there is no revenue.
	Share float64
}

// Profile compares the mean of one metric between churn classes.
type Profile struct {
	Metric   dataset.Column
	Churned  float64
	Retained float64
	// N counts non-missing values per class.
	NChurned  int
	NRetained int
}

// Summary holds every statistic of the text report.
type Summary struct {
	Source    string
	Rows      int
	Evaluated int
	Overall   Bucket
	Segments  []Segment
	Revenue   Revenue
	Profile   []Profile
	Quality   *dataset.ValidationReport
}

var summarySegments = []struct {
	name     string
	grouping Grouping
}{
	{"Contract type", Grouping{Column: dataset.ContractType, ObservedOnly: true}},
	{"Payment method", Grouping{Column: dataset.PaymentMethod, ObservedOnly: true}},
	{"Support calls", Grouping{Column: dataset.NumSupportCalls, ObservedOnly: true}},
	{"Products", Grouping{Column: dataset.NumProducts, ObservedOnly: true}},
	{"Tenure group (months)", Grouping{Column: dataset.TenureMonths, Bins: &TenureGroups, ObservedOnly: true}},
}

var profileMetrics = []dataset.Column{
	dataset.Age,
	dataset.TenureMonths,
	dataset.MonthlyCharges,
	dataset.TotalCharges,
	dataset.NumProducts,
	dataset.NumSupportCalls,
}

// Summarize computes the statistics for the text report. vr may be nil.
func Summarize(t *dataset.Table, vr *dataset.ValidationReport) (*Summary, error) {
	overall, err := OverallChurnRate(t)
	if err != nil {
		return nil, fmt.Errorf("overall churn: %w", err)
	}
	s := &Summary{
		Source:    t.Source(),
		Rows:      t.Len(),
		Evaluated: overall.Count,
		Overall:   overall,
		Quality:   vr,
	}
	for _, seg := range summarySegments {
		b, err := ChurnRate(t, seg.grouping)
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", seg.name, err)
		}
		s.Segments = append(s.Segments, Segment{Name: seg.name, Column: seg.grouping.Column, Buckets: b})
	}

	t.Each(func(_ int, c dataset.Customer) {
		m, ok := c.Decimal(dataset.MonthlyCharges)
		if ok {
			s.Revenue.MonthlyTotal = s.Revenue.MonthlyTotal.Add(m)
		}
		if churned, flagOK := c.IsChurned(); !flagOK || !churned {
			return
		}
		if ok {
			s.Revenue.MonthlyChurned = s.Revenue.MonthlyChurned.Add(m)
		}
		if tc, ok := c.Decimal(dataset.TotalCharges); ok {
			s.Revenue.TotalChurned = s.Revenue.TotalChurned.Add(tc)
		}
	})
	if s.Revenue.MonthlyTotal.IsPositive() {
		s.Revenue.Share = s.Revenue.MonthlyChurned.Div(s.Revenue.MonthlyTotal).InexactFloat64()
	}

	for _, col := range profileMetrics {
		var p Profile
		p.Metric = col
		var sumC, sumR float64
		t.Each(func(_ int, c dataset.Customer) {
			churned, ok := c.IsChurned()
			if !ok {
				return
			}
			x, ok := c.Number(col)
			if !ok {
				return
			}
			if churned {
				sumC += x
				p.NChurned++
			} else {
				sumR += x
				p.NRetained++
			}
		})
		if p.NChurned > 0 {
			p.Churned = sumC / float64(p.NChurned)
		}
		if p.NRetained > 0 {
			p.Retained = sumR / float64(p.NRetained)
		}
		s.Profile = append(s.Profile, p)
	}
	return s, nil
}

// Text renders the summary as plain text with fixed section order.
func (s *Summary) Text() string {
	var b strings.Builder
	b.WriteString("[DATASET]\n")
	if s.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", s.Source))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	if s.Evaluated != s.Rows {
		b.WriteString(fmt.Sprintf("Rows with a valid churn flag: %d\n", s.Evaluated))
	}
	b.WriteString("\n")

	b.WriteString("[OVERALL CHURN]\n")
	b.WriteString(fmt.Sprintf("Churned: %d of %d (%.1f%%)\n", s.Overall.Churned, s.Overall.Count, s.Overall.Rate*100))
	b.WriteString(fmt.Sprintf("Retained: %d (%.1f%%)\n\n", s.Overall.Retained(), (1-s.Overall.Rate)*100))

	b.WriteString("[CHURN BY SEGMENT]\n")
	for _, seg := range s.Segments {
		b.WriteString(seg.Name + ":\n")
		for _, bk := range seg.Buckets {
			b.WriteString(fmt.Sprintf("- %s: %.1f%% (%d of %d)\n", bk.Key, bk.Rate*100, bk.Churned, bk.Count))
		}
	}
	b.WriteString("\n")

	b.WriteString("[REVENUE AT RISK]\n")
	b.WriteString(fmt.Sprintf("Monthly charges of churned customers: $%s\n", s.Revenue.MonthlyChurned.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Share of monthly revenue: %.1f%%\n", s.Revenue.Share*100))
	b.WriteString(fmt.Sprintf("Total charges of churned customers: $%s\n\n", s.Revenue.TotalChurned.StringFixed(2)))

	b.WriteString("[CUSTOMER PROFILE]\n")
	b.WriteString("metric | churned mean | retained mean\n")
	for _, p := range s.Profile {
		b.WriteString(fmt.Sprintf("%s | %.2f | %.2f\n", p.Metric, p.Churned, p.Retained))
	}
	b.WriteString("\n")

	b.WriteString("[DATA QUALITY]\n")
	if s.Quality == nil || s.Quality.Total == 0 {
		b.WriteString("No anomalies.\n")
		return b.String()
	}
	q := s.Quality
	b.WriteString(fmt.Sprintf("Anomalies: %d (%d cells coerced to missing)\n", q.Total, q.CoercedCells()))
	for _, k := range q.Kinds() {
		b.WriteString(fmt.Sprintf("- %s: %d\n", k, q.ByKind[k]))
	}
	if len(q.ExtraColumns) > 0 {
		b.WriteString(fmt.Sprintf("Ignored columns: %s\n", strings.Join(q.ExtraColumns, ", ")))
	}
	return b.String()
}

package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/churnviz-cli/internal/dataset"
	"github.com/KaramelBytes/churnviz-cli/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func tableOf(t *testing.T, rows []testutil.Row) *dataset.Table {
	t.Helper()
	path := testutil.WriteCSV(t, "customers.csv", testutil.CSV(rows))
	raw, err := dataset.Load(path, dataset.LoadOptions{})
	require.NoError(t, err)
	tbl, _, err := dataset.Validate(raw, dataset.ValidateOptions{})
	require.NoError(t, err)
	return tbl
}

func sample(t *testing.T) *dataset.Table {
	t.Helper()
	return tableOf(t, testutil.SampleRowsData())
}

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestValueCounts_ContractDistribution(t *testing.T) {
	tbl := sample(t)
	got, err := ValueCounts(tbl, dataset.ContractType, OrderNatural)
	require.NoError(t, err)
	want := []CategoryCount{
		{Value: "Month-to-month", Count: 507},
		{Value: "One year", Count: 300},
		{Value: "Two year", Count: 193},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("contract counts mismatch (-want +got):\n%s", diff)
	}
}

func TestValueCounts_Conservation(t *testing.T) {
	tbl := sample(t)
	for _, col := range []dataset.Column{dataset.ContractType, dataset.PaymentMethod, dataset.NumProducts, dataset.NumSupportCalls, dataset.Churned} {
		for _, order := range []Order{OrderNatural, OrderFirstSeen, OrderCountDesc, OrderLabel} {
			counts, err := ValueCounts(tbl, col, order)
			require.NoError(t, err)
			sum := 0
			for _, c := range counts {
				require.Positive(t, c.Count)
				sum += c.Count
			}
			require.Equal(t, tbl.Len(), sum, "column %s order %d", col, order)
		}
	}
}

func TestValueCounts_CountDescBreaksTiesByLabel(t *testing.T) {
	got, err := ValueCounts(sample(t), dataset.PaymentMethod, OrderCountDesc)
	require.NoError(t, err)
	var labels []string
	for _, c := range got {
		require.Equal(t, 250, c.Count)
		labels = append(labels, c.Value)
	}
	require.Equal(t, []string{"Bank transfer", "Credit card", "Electronic", "Mailed check"}, labels)
}

func TestValueCounts_UnknownColumn(t *testing.T) {
	_, err := ValueCounts(sample(t), dataset.Column("nope"), OrderNatural)
	require.Error(t, err)
}

func TestOverallChurnRate(t *testing.T) {
	b, err := OverallChurnRate(sample(t))
	require.NoError(t, err)
	require.Equal(t, testutil.SampleRows, b.Count)
	require.Equal(t, testutil.SampleChurned, b.Churned)
	require.InDelta(t, 0.206, b.Rate, 1e-12)
}

func TestChurnRate_RatesBoundedAndConserved(t *testing.T) {
	tbl := sample(t)
	groupings := []Grouping{
		{Column: dataset.ContractType},
		{Column: dataset.PaymentMethod},
		{Column: dataset.NumSupportCalls},
		{Column: dataset.NumProducts},
		{Column: dataset.TenureMonths, Bins: &TenureGroups, ObservedOnly: true},
	}
	for _, g := range groupings {
		buckets, err := ChurnRate(tbl, g)
		require.NoError(t, err, "grouping %s", g.Column)
		count, churned := 0, 0
		for _, b := range buckets {
			require.GreaterOrEqual(t, b.Rate, 0.0)
			require.LessOrEqual(t, b.Rate, 1.0)
			require.InDelta(t, float64(b.Churned)/float64(b.Count), b.Rate, 1e-12)
			count += b.Count
			churned += b.Churned
		}
		require.Equal(t, testutil.SampleRows, count, "grouping %s", g.Column)
		require.Equal(t, testutil.SampleChurned, churned, "grouping %s", g.Column)
	}
}

func TestChurnRate_EmptyDeclaredGroup(t *testing.T) {
	rows := testutil.Filter(testutil.SampleRowsData(), func(r testutil.Row) bool { return r.Contract != "Two year" })
	tbl := tableOf(t, rows)

	_, err := ChurnRate(tbl, Grouping{Column: dataset.ContractType})
	require.ErrorIs(t, err, ErrEmptyGroup)
	var eg *EmptyGroupError
	require.ErrorAs(t, err, &eg)
	require.Equal(t, "Two year", eg.Group)

	buckets, err := ChurnRate(tbl, Grouping{Column: dataset.ContractType, ObservedOnly: true})
	require.NoError(t, err)
	require.Len(t, buckets, 2)
}

func TestChurnRate_MissingFlagExcluded(t *testing.T) {
	content := testutil.Header + "\n" +
		"C1,30,12,50.00,600.00,2,1,One year,Electronic,1\n" +
		"C2,30,12,50.00,600.00,2,1,One year,Electronic,maybe\n" +
		"C3,30,12,50.00,600.00,2,1,One year,Electronic,0\n"
	raw, err := dataset.Load(testutil.WriteCSV(t, "flags.csv", content), dataset.LoadOptions{})
	require.NoError(t, err)
	tbl, _, err := dataset.Validate(raw, dataset.ValidateOptions{})
	require.NoError(t, err)

	b, err := OverallChurnRate(tbl)
	require.NoError(t, err)
	require.Equal(t, 2, b.Count)
	require.Equal(t, 0.5, b.Rate)
}

func TestChurnRate_Deterministic(t *testing.T) {
	g := Grouping{Column: dataset.PaymentMethod}
	a, err := ChurnRate(sample(t), g)
	require.NoError(t, err)
	b, err := ChurnRate(sample(t), g)
	require.NoError(t, err)
	if diff := cmp.Diff(a, b, decimalEqual); diff != "" {
		t.Fatalf("non-deterministic aggregate (-first +second):\n%s", diff)
	}
}

func TestSortBuckets_RateDesc(t *testing.T) {
	in := []Bucket{{Key: "b", Rate: 0.2}, {Key: "a", Rate: 0.2}, {Key: "c", Rate: 0.5}}
	got := SortBuckets(in, OrderRateDesc)
	require.Equal(t, []string{"c", "a", "b"}, []string{got[0].Key, got[1].Key, got[2].Key})
	require.Equal(t, "b", in[0].Key, "input must not be reordered")
}

func TestBinSpec_HalfOpen(t *testing.T) {
	bins := BinSpec{Edges: []float64{0, 10, 20}}
	cases := []struct {
		x    float64
		want int
		ok   bool
	}{
		{0, 0, true},
		{9.99, 0, true},
		{10, 1, true},
		{20, 1, true},
		{20.01, 0, false},
		{-1, 0, false},
		{math.NaN(), 0, false},
	}
	for _, c := range cases {
		i, ok := bins.Index(c.x)
		if ok != c.ok || (ok && i != c.want) {
			t.Fatalf("Index(%v) = %d,%v want %d,%v", c.x, i, ok, c.want, c.ok)
		}
	}
	require.Equal(t, []string{"[0, 10)", "[10, 20]"}, bins.labels())
}

func TestTenureGroups_LongTenureKept(t *testing.T) {
	content := testutil.Header + "\n" +
		"C1,30,10,50.00,500.00,2,1,One year,Electronic,1\n" +
		"C2,30,72,50.00,3600.00,2,1,One year,Electronic,0\n" +
		"C3,30,100,50.00,5000.00,2,1,One year,Electronic,0\n"
	raw, err := dataset.Load(testutil.WriteCSV(t, "tenure.csv", content), dataset.LoadOptions{})
	require.NoError(t, err)
	tbl, _, err := dataset.Validate(raw, dataset.ValidateOptions{})
	require.NoError(t, err)

	buckets, err := ChurnRate(tbl, Grouping{Column: dataset.TenureMonths, Bins: &TenureGroups, ObservedOnly: true})
	require.NoError(t, err)
	counts := map[string]int{}
	for _, b := range buckets {
		counts[b.Key] = b.Count
	}
	require.Equal(t, map[string]int{"0-12": 1, "37-72": 1, "73+": 1}, counts)
}

func TestEqualWidthBins(t *testing.T) {
	b, err := EqualWidthBins(0, 72, 12)
	require.NoError(t, err)
	require.Equal(t, 12, b.Len())
	require.Equal(t, 6.0, b.Edges[1])
	require.Equal(t, 72.0, b.Edges[12])

	b, err = EqualWidthBins(5, 5, 2)
	require.NoError(t, err)
	require.Equal(t, []float64{4.5, 5, 5.5}, b.Edges)

	_, err = EqualWidthBins(0, 1, 0)
	require.Error(t, err)
}

func TestBinnedCounts_TenureHistogram(t *testing.T) {
	tbl := sample(t)
	lo, hi, ok := NumericRange(tbl, dataset.TenureMonths)
	require.True(t, ok)
	bins, err := EqualWidthBins(lo, hi, 12)
	require.NoError(t, err)
	h, err := BinnedCounts(tbl, dataset.TenureMonths, bins)
	require.NoError(t, err)
	require.Zero(t, h.Outside)
	require.Zero(t, h.Skipped)
	require.Equal(t, testutil.SampleRows, h.Total())
	churned := 0
	for _, n := range h.Churned {
		churned += n
	}
	require.Equal(t, testutil.SampleChurned, churned)
}

func TestCrossTab_MarginalsMatchValueCounts(t *testing.T) {
	tbl := sample(t)
	x, err := CrossTabulate(tbl, dataset.PaymentMethod, dataset.Churned)
	require.NoError(t, err)
	require.Equal(t, testutil.SampleRows, x.Total)

	rows, err := ValueCounts(tbl, dataset.PaymentMethod, OrderNatural)
	require.NoError(t, err)
	for i, rc := range rows {
		require.Equal(t, rc.Value, x.Rows[i])
		require.Equal(t, rc.Count, x.RowTotals[i])
	}
	cols, err := ValueCounts(tbl, dataset.Churned, OrderNatural)
	require.NoError(t, err)
	for j, cc := range cols {
		require.Equal(t, cc.Value, x.Cols[j])
		require.Equal(t, cc.Count, x.ColTotals[j])
	}
	require.Equal(t, testutil.SampleChurned, x.ColTotals[1])
	for i, r := range x.Rows {
		require.Equal(t, x.Counts[i][1], x.Count(r, "1"))
	}
	require.Zero(t, x.Count("Cheque", "1"))
}

func TestCrossTab_EmptyRowCategory(t *testing.T) {
	rows := testutil.Filter(testutil.SampleRowsData(), func(r testutil.Row) bool { return r.Payment != "Electronic" })
	_, err := CrossTabulate(tableOf(t, rows), dataset.PaymentMethod, dataset.Churned)
	require.True(t, errors.Is(err, ErrEmptyGroup), "got %v", err)
}

func TestBox_QuartilesAndOutliers(t *testing.T) {
	s := Box([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100})
	require.InDelta(t, 3.25, s.Q1, 1e-9)
	require.InDelta(t, 5.5, s.Median, 1e-9)
	require.InDelta(t, 7.75, s.Q3, 1e-9)
	require.Equal(t, 1.0, s.LowerWhisker)
	require.Equal(t, 9.0, s.UpperWhisker)
	require.Equal(t, []float64{100}, s.Outliers)
	require.InDelta(t, 14.5, s.Mean, 1e-9)
}

func TestDistribution_SplitsByClass(t *testing.T) {
	d, err := Distribution(sample(t), dataset.Age)
	require.NoError(t, err)
	require.Len(t, d, 2)
	require.Equal(t, dataset.ChurnLabel(0), d[0].Label)
	require.Equal(t, testutil.SampleRows-testutil.SampleChurned, d[0].Box.N)
	require.Equal(t, testutil.SampleChurned, d[1].Box.N)
	require.GreaterOrEqual(t, d[1].Box.Min, 18.0)
}

func TestDensity_Symmetric(t *testing.T) {
	xs, ys := Density([]float64{-1, 0, 1}, 11)
	require.Len(t, xs, 11)
	require.Equal(t, -1.0, xs[0])
	require.Equal(t, 1.0, xs[10])
	require.InDelta(t, ys[0], ys[10], 1e-12)
	for i := range ys {
		require.LessOrEqual(t, ys[i], ys[5])
	}
}

func TestSummary_TextSections(t *testing.T) {
	tbl := sample(t)
	s, err := Summarize(tbl, nil)
	require.NoError(t, err)
	require.Len(t, s.Segments, len(summarySegments))
	require.True(t, s.Revenue.MonthlyChurned.LessThanOrEqual(s.Revenue.MonthlyTotal))
	require.Greater(t, s.Revenue.Share, 0.0)

	text := s.Text()
	require.Contains(t, text, "Churned: 206 of 1000 (20.6%)")
	last := -1
	for _, h := range []string{"[DATASET]", "[OVERALL CHURN]", "[CHURN BY SEGMENT]", "[REVENUE AT RISK]", "[CUSTOMER PROFILE]", "[DATA QUALITY]"} {
		i := strings.Index(text, h)
		require.Greater(t, i, last, "section %s out of order", h)
		last = i
	}
	require.Contains(t, text, "No anomalies.")
	require.Equal(t, text, s.Text())
}

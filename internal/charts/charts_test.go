package charts

import (
	"image/color"
	"regexp"
	"testing"

	"github.com/KaramelBytes/churnviz-cli/internal/analysis"
	"github.com/KaramelBytes/churnviz-cli/internal/dataset"
	"github.com/KaramelBytes/churnviz-cli/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func tableOf(t *testing.T, rows []testutil.Row) *dataset.Table {
	t.Helper()
	raw, err := dataset.Load(testutil.WriteCSV(t, "customers.csv", testutil.CSV(rows)), dataset.LoadOptions{})
	require.NoError(t, err)
	tbl, _, err := dataset.Validate(raw, dataset.ValidateOptions{})
	require.NoError(t, err)
	return tbl
}

func prepare(t *testing.T, tbl *dataset.Table, id int) *ChartData {
	t.Helper()
	d, ok := Lookup(id)
	require.True(t, ok)
	cd, err := Prepare(tbl, d, DefaultPalette())
	require.NoError(t, err, "chart %d", id)
	return cd
}

func sum(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

func TestCatalog_Shape(t *testing.T) {
	require.Len(t, Catalog, 10)
	name := regexp.MustCompile(`^\d{2}_[a-z_]+\.png$`)
	seen := map[string]bool{}
	for i, d := range Catalog {
		require.Equal(t, i+1, d.ID)
		require.Regexp(t, name, d.FileName())
		require.False(t, seen[d.FileName()], "duplicate file %s", d.FileName())
		seen[d.FileName()] = true
		require.NotEmpty(t, d.Title)
	}
	require.Equal(t, "10_dashboard_overview.png", Catalog[9].FileName())
	var panels []int
	for _, p := range Catalog[9].Panels {
		panels = append(panels, p.ID)
	}
	require.Equal(t, []int{1, 2, 3, 7}, panels)
}

func TestSelect(t *testing.T) {
	got, err := Select([]int{7, 1, 7})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 1, got[0].ID)
	require.Equal(t, 7, got[1].ID)

	all, err := Select(nil)
	require.NoError(t, err)
	require.Len(t, all, len(Catalog))

	_, err = Select([]int{11})
	require.Error(t, err)
}

func TestPrepare_PieShares(t *testing.T) {
	cd := prepare(t, tableOf(t, testutil.SampleRowsData()), 1)
	p := DefaultPalette()
	require.Equal(t, []string{"Retained", "Churned"}, cd.Categories)
	require.Equal(t, []float64{794, 206}, cd.Series[0].Values)
	require.Equal(t, []string{"79.4%", "20.6%"}, cd.Series[0].Labels)
	require.Equal(t, []color.RGBA{p.Retain, p.Churn}, cd.Colors)
}

func TestPrepare_ContractRatesSortedDescending(t *testing.T) {
	cd := prepare(t, tableOf(t, testutil.SampleRowsData()), 2)
	vals := cd.Series[0].Values
	require.Len(t, vals, 3)
	for i := 1; i < len(vals); i++ {
		require.GreaterOrEqual(t, vals[i-1], vals[i])
	}
	require.Equal(t, 100.0, cd.YMax)
	require.Equal(t, DefaultPalette().Contract, cd.Colors)
	require.ElementsMatch(t, []string{"Month-to-month", "One year", "Two year"}, cd.Categories)
}

func TestPrepare_SupportCallsGradientAndHeadroom(t *testing.T) {
	cd := prepare(t, tableOf(t, testutil.SampleRowsData()), 3)
	p := DefaultPalette()
	require.Equal(t, []string{"0", "1", "2", "3", "4", "5"}, cd.Categories)
	require.Equal(t, p.Gradient[0], cd.Colors[0])
	require.Equal(t, p.Gradient[0], cd.Colors[5], "gradient repeats past its length")
	maxVal := 0.0
	for _, v := range cd.Series[0].Values {
		if v > maxVal {
			maxVal = v
		}
	}
	require.InDelta(t, maxVal*1.2, cd.YMax, 1e-9)
}

func TestPrepare_PaymentGroupedByLabel(t *testing.T) {
	cd := prepare(t, tableOf(t, testutil.SampleRowsData()), 4)
	require.Equal(t, []string{"Bank transfer", "Credit card", "Electronic", "Mailed check"}, cd.Categories)
	require.Len(t, cd.Series, 2)
	require.Equal(t, "Retained", cd.Series[0].Name)
	require.Equal(t, "Churned", cd.Series[1].Name)
	require.Equal(t, float64(testutil.SampleRows), sum(cd.Series[0].Values)+sum(cd.Series[1].Values))
	require.Equal(t, float64(testutil.SampleChurned), sum(cd.Series[1].Values))
}

func TestPrepare_ProductsIntensity(t *testing.T) {
	cd := prepare(t, tableOf(t, testutil.SampleRowsData()), 5)
	require.Len(t, cd.Categories, 5)
	top := 0
	for i, v := range cd.Series[0].Values {
		if v > cd.Series[0].Values[top] {
			top = i
		}
	}
	require.Equal(t, color.RGBA{R: 23, G: 102, B: 56, A: 0xff}, cd.Colors[top])
}

func TestPrepare_TenureHistogram(t *testing.T) {
	cd := prepare(t, tableOf(t, testutil.SampleRowsData()), 6)
	require.Len(t, cd.Categories, 12)
	require.Len(t, cd.Edges, 13)
	require.Equal(t, DefaultPalette().Neutral, cd.Series[0].Color)
	require.Equal(t, float64(testutil.SampleRows), sum(cd.Series[0].Values)+sum(cd.Series[1].Values))
}

func TestPrepare_Distributions(t *testing.T) {
	tbl := tableOf(t, testutil.SampleRowsData())
	box := prepare(t, tbl, 7)
	require.Len(t, box.Classes, 2)
	require.Empty(t, box.Classes[0].DensityX)
	require.Equal(t, testutil.SampleChurned, box.Classes[1].Box.N)
	require.Equal(t, DefaultPalette().Warning, box.Accent)

	violin := prepare(t, tbl, 8)
	for _, c := range violin.Classes {
		require.Len(t, c.DensityX, densityPoints)
		require.Len(t, c.DensityY, densityPoints)
	}
}

func TestPrepare_ContractProductStack(t *testing.T) {
	cd := prepare(t, tableOf(t, testutil.SampleRowsData()), 9)
	p := DefaultPalette()
	require.Equal(t, []string{"Month-to-month", "One year", "Two year"}, cd.Categories)
	require.Len(t, cd.Series, 5)
	for j, s := range cd.Series {
		require.Equal(t, p.Set3[j], s.Color)
	}
	var perContract []float64
	for i := range cd.Categories {
		var n float64
		for _, s := range cd.Series {
			n += s.Values[i]
		}
		perContract = append(perContract, n)
	}
	require.Equal(t, []float64{507, 300, 193}, perContract)
}

func TestPrepare_DashboardPanels(t *testing.T) {
	cd := prepare(t, tableOf(t, testutil.SampleRowsData()), 10)
	require.Len(t, cd.Panels, 4)
	require.Equal(t, "Overall Churn Distribution", cd.Panels[0].Descriptor.Title)
	require.Equal(t, KindBox, cd.Panels[3].Descriptor.Kind)
}

func TestPrepare_EmptyGroupIsolatedToAffectedChart(t *testing.T) {
	rows := testutil.Filter(testutil.SampleRowsData(), func(r testutil.Row) bool { return r.Payment != "Electronic" })
	tbl := tableOf(t, rows)
	for _, d := range Catalog {
		_, err := Prepare(tbl, d, DefaultPalette())
		if d.ID == 4 {
			require.ErrorIs(t, err, analysis.ErrEmptyGroup)
			continue
		}
		require.NoError(t, err, "chart %d", d.ID)
	}
}

func TestPrepare_Deterministic(t *testing.T) {
	tbl := tableOf(t, testutil.SampleRowsData())
	for _, d := range Catalog {
		a, err := Prepare(tbl, d, DefaultPalette())
		require.NoError(t, err)
		b, err := Prepare(tbl, d, DefaultPalette())
		require.NoError(t, err)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Fatalf("chart %d differs between runs:\n%s", d.ID, diff)
		}
	}
}

func TestPalette(t *testing.T) {
	c, err := ParseHex("#e74c3c")
	require.NoError(t, err)
	require.Equal(t, color.RGBA{R: 0xe7, G: 0x4c, B: 0x3c, A: 0xff}, c)
	c, err = ParseHex("#abc")
	require.NoError(t, err)
	require.Equal(t, "#aabbcc", Hex(c))
	_, err = ParseHex("#12345g")
	require.Error(t, err)

	p, err := NewPalette(HexPalette{Churn: "#000000", Set3: []string{"#ffffff"}})
	require.NoError(t, err)
	require.Equal(t, color.RGBA{A: 0xff}, p.Churn)
	require.Len(t, p.Set3, 1)
	require.Equal(t, DefaultPalette().Retain, p.Retain)

	_, err = NewPalette(HexPalette{Gradient: []string{"nope"}})
	require.ErrorContains(t, err, "palette.gradient[0]")
}

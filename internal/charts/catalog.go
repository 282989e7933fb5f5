// Package charts describes the chart catalog and turns a customer table into
// render-ready chart data. Nothing here draws.
package charts

import (
	"fmt"

	"github.com/KaramelBytes/churnviz-cli/internal/analysis"
	"github.com/KaramelBytes/churnviz-cli/internal/dataset"
)

// Kind is the visual form of a chart.
type Kind string

const (
	KindPie        Kind = "pie"
	KindBar        Kind = "bar"
	KindGroupedBar Kind = "grouped_bar"
	KindStackedBar Kind = "stacked_bar"
	KindHistogram  Kind = "histogram"
	KindBox        Kind = "box"
	KindViolin     Kind = "violin"
	KindDashboard  Kind = "dashboard"
)

// Op is the aggregation that feeds a chart.
type Op string

const (
	OpValueCounts  Op = "value_counts"
	OpChurnRate    Op = "churn_rate"
	OpCrossTab     Op = "cross_tab"
	OpBinned       Op = "binned"
	OpDistribution Op = "distribution"
	OpPanels       Op = "panels"
)

// ColorRule picks colors for categories or series.
type ColorRule string

const (
	ColorChurnPair ColorRule = "churn_pair" // retained green, churned red
	ColorClass     ColorRule = "class"      // retained blue, churned red
	ColorContract  ColorRule = "contract"   // fixed contract list, cycled
	ColorGradient  ColorRule = "gradient"   // yellow to red, first n
	ColorIntensity ColorRule = "intensity"  // green scaled by rate
	ColorSet3      ColorRule = "set3"       // qualitative, per series
	ColorInherit   ColorRule = "inherit"    // dashboard panels keep their own
)

// YAxis bounds the value axis. Fixed wins over Headroom; zero values leave
// the axis to the renderer.
type YAxis struct {
	Fixed    float64
	Headroom float64
}

// Figure is a chart's size in inches.
type Figure struct {
	Width  float64
	Height float64
}

var (
	figSmall   = Figure{Width: 8, Height: 5}
	figDefault = Figure{Width: 10, Height: 6}
	figLarge   = Figure{Width: 14, Height: 10}
)

// Descriptor is one static catalog entry.
type Descriptor struct {
	ID     int
	Slug   string
	Title  string
	XLabel string
	YLabel string
	Kind   Kind
	Op     Op
	Column dataset.Column
	// By is the second key of a cross-tab.
	By dataset.Column
	// Bins is the equal-width bin count for histograms.
	Bins        int
	Colors      ColorRule
	Sort        analysis.Order
	LabelFormat string
	YAxis       YAxis
	Figure      Figure
	Panels      []Descriptor
}

// FileName is the artifact name, e.g. "02_churn_by_contract.png".
func (d Descriptor) FileName() string {
	return fmt.Sprintf("%02d_%s.png", d.ID, d.Slug)
}

var (
	churnPie = Descriptor{
		ID: 1, Slug: "churn_distribution_pie", Title: "Customer Churn Distribution",
		Kind: KindPie, Op: OpValueCounts, Column: dataset.Churned,
		Colors: ColorChurnPair, Sort: analysis.OrderNatural, LabelFormat: "%.1f%%",
		Figure: figSmall,
	}
	churnByContract = Descriptor{
		ID: 2, Slug: "churn_by_contract", Title: "Churn Rate by Contract Type",
		XLabel: "Contract Type", YLabel: "Churn Rate (%)",
		Kind: KindBar, Op: OpChurnRate, Column: dataset.ContractType,
		Colors: ColorContract, Sort: analysis.OrderRateDesc, LabelFormat: "%.1f%%",
		YAxis: YAxis{Fixed: 100}, Figure: figDefault,
	}
	churnBySupport = Descriptor{
		ID: 3, Slug: "churn_by_support_calls", Title: "Churn Rate by Number of Support Calls",
		XLabel: "Number of Support Calls", YLabel: "Churn Rate (%)",
		Kind: KindBar, Op: OpChurnRate, Column: dataset.NumSupportCalls,
		Colors: ColorGradient, Sort: analysis.OrderNatural, LabelFormat: "%.1f%%",
		YAxis: YAxis{Headroom: 1.2}, Figure: figDefault,
	}
	ageBox = Descriptor{
		ID: 7, Slug: "age_boxplot", Title: "Age Distribution: Churned vs Retained",
		XLabel: "Customer Status", YLabel: "Age",
		Kind: KindBox, Op: OpDistribution, Column: dataset.Age,
		Colors: ColorChurnPair, Sort: analysis.OrderNatural, Figure: figDefault,
	}
)

// Catalog lists every chart in output order.
var Catalog = []Descriptor{
	churnPie,
	churnByContract,
	churnBySupport,
	{
		ID: 4, Slug: "churn_by_payment", Title: "Customer Status by Payment Method",
		XLabel: "Payment Method", YLabel: "Customer Count",
		Kind: KindGroupedBar, Op: OpCrossTab, Column: dataset.PaymentMethod, By: dataset.Churned,
		Colors: ColorChurnPair, Sort: analysis.OrderLabel, LabelFormat: "%.0f",
		Figure: figDefault,
	},
	{
		ID: 5, Slug: "churn_by_products", Title: "Churn Rate by Product Portfolio Size",
		XLabel: "Number of Products", YLabel: "Churn Rate (%)",
		Kind: KindBar, Op: OpChurnRate, Column: dataset.NumProducts,
		Colors: ColorIntensity, Sort: analysis.OrderNatural, LabelFormat: "%.1f%%",
		YAxis: YAxis{Headroom: 1.2}, Figure: figDefault,
	},
	{
		ID: 6, Slug: "tenure_distribution", Title: "Tenure Distribution: Churned vs Retained Customers",
		XLabel: "Tenure (months)", YLabel: "Customer Count",
		Kind: KindHistogram, Op: OpBinned, Column: dataset.TenureMonths, Bins: 12,
		Colors: ColorClass, Sort: analysis.OrderNatural, Figure: figDefault,
	},
	ageBox,
	{
		ID: 8, Slug: "charges_violin", Title: "Monthly Charges Distribution: Churned vs Retained",
		XLabel: "Customer Status", YLabel: "Monthly Charges ($)",
		Kind: KindViolin, Op: OpDistribution, Column: dataset.MonthlyCharges,
		Colors: ColorChurnPair, Sort: analysis.OrderNatural, Figure: figDefault,
	},
	{
		ID: 9, Slug: "contract_product_stack", Title: "Customer Segmentation: Contract Type × Product Count",
		XLabel: "Contract Type", YLabel: "Customer Count",
		Kind: KindStackedBar, Op: OpCrossTab, Column: dataset.ContractType, By: dataset.NumProducts,
		Colors: ColorSet3, Sort: analysis.OrderNatural, LabelFormat: "%.0f",
		Figure: figDefault,
	},
	{
		ID: 10, Slug: "dashboard_overview", Title: "Customer Churn Analysis Dashboard",
		Kind: KindDashboard, Op: OpPanels, Colors: ColorInherit, Figure: figLarge,
		Panels: []Descriptor{
			panel(churnPie, "Overall Churn Distribution", "", ""),
			panel(churnByContract, "Churn Rate by Contract", "", "Churn Rate (%)"),
			panel(churnBySupport, "Support Calls Impact", "Support Calls", "Churn Rate (%)"),
			panel(ageBox, "Age: Churned vs Retained", "", "Age"),
		},
	},
}

// panel retitles a catalog entry for use inside the dashboard.
func panel(d Descriptor, title, xlabel, ylabel string) Descriptor {
	d.Title, d.XLabel, d.YLabel = title, xlabel, ylabel
	return d
}

// Lookup finds a catalog entry by id.
func Lookup(id int) (Descriptor, bool) {
	for _, d := range Catalog {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Select returns the entries for ids in catalog order. Empty ids selects all.
func Select(ids []int) ([]Descriptor, error) {
	if len(ids) == 0 {
		return append([]Descriptor(nil), Catalog...), nil
	}
	want := map[int]bool{}
	for _, id := range ids {
		if _, ok := Lookup(id); !ok {
			return nil, fmt.Errorf("unknown chart id %d (valid: 1-%d)", id, len(Catalog))
		}
		want[id] = true
	}
	var out []Descriptor
	for _, d := range Catalog {
		if want[d.ID] {
			out = append(out, d)
		}
	}
	return out, nil
}

package dataset

// Column names a field of the customer churn dataset.
type Column string

const (
	CustomerID      Column = "customer_id"
	Age             Column = "age"
	TenureMonths    Column = "tenure_months"
	MonthlyCharges  Column = "monthly_charges"
	TotalCharges    Column = "total_charges"
	NumProducts     Column = "num_products"
	NumSupportCalls Column = "num_support_calls"
	ContractType    Column = "contract_type"
	PaymentMethod   Column = "payment_method"
	Churned         Column = "churned"
)

// Kind is the semantic type a column is coerced to.
type Kind int

const (
	KindIdentifier Kind = iota
	KindInteger
	KindDecimal
	KindCategorical
	KindFlag
)

func (k Kind) String() string {
	switch k {
	case KindIdentifier:
		return "identifier"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindCategorical:
		return "categorical"
	case KindFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// Bounds is an inclusive or exclusive numeric range used for plausibility checks.
type Bounds struct {
	Min, Max       float64
	HasMin, HasMax bool
	MinExclusive   bool
}

func (b Bounds) contains(x float64) bool {
	if b.HasMin {
		if b.MinExclusive && x <= b.Min {
			return false
		}
		if !b.MinExclusive && x < b.Min {
			return false
		}
	}
	if b.HasMax && x > b.Max {
		return false
	}
	return true
}

// ColumnSpec declares one expected column.
type ColumnSpec struct {
	Name Column
	Kind Kind
	// Categories lists allowed values in natural display order (categorical and flag columns).
	Categories []string
	Range      Bounds
}

// Schema is the expected column set, in file order.
var Schema = []ColumnSpec{
	{Name: CustomerID, Kind: KindIdentifier},
	{Name: Age, Kind: KindInteger, Range: Bounds{Min: 18, Max: 100, HasMin: true, HasMax: true}},
	{Name: TenureMonths, Kind: KindInteger, Range: Bounds{Min: 0, HasMin: true}},
	{Name: MonthlyCharges, Kind: KindDecimal, Range: Bounds{Min: 0, HasMin: true, MinExclusive: true}},
	{Name: TotalCharges, Kind: KindDecimal, Range: Bounds{Min: 0, HasMin: true}},
	{Name: NumProducts, Kind: KindInteger, Range: Bounds{Min: 1, Max: 5, HasMin: true, HasMax: true}},
	{Name: NumSupportCalls, Kind: KindInteger, Range: Bounds{Min: 0, Max: 5, HasMin: true, HasMax: true}},
	{Name: ContractType, Kind: KindCategorical, Categories: []string{"Month-to-month", "One year", "Two year"}},
	{Name: PaymentMethod, Kind: KindCategorical, Categories: []string{"Credit card", "Mailed check", "Electronic", "Bank transfer"}},
	{Name: Churned, Kind: KindFlag, Categories: []string{"0", "1"}},
}

// Spec returns the declaration for a column.
func Spec(c Column) (ColumnSpec, bool) {
	for _, s := range Schema {
		if s.Name == c {
			return s, true
		}
	}
	return ColumnSpec{}, false
}

// ChurnLabel maps a churn flag to its display label.
func ChurnLabel(flag int) string {
	if flag == 1 {
		return "Churned"
	}
	return "Retained"
}

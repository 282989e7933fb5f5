package dataset

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// NullInt is an integer cell that may be missing after coercion.
type NullInt struct {
	V     int
	Valid bool
}

func validInt(v int) NullInt { return NullInt{V: v, Valid: true} }

// Customer is one validated row of the dataset.
type Customer struct {
	ID              string
	Age             NullInt
	TenureMonths    NullInt
	MonthlyCharges  decimal.NullDecimal
	TotalCharges    decimal.NullDecimal
	NumProducts     NullInt
	NumSupportCalls NullInt
	ContractType    string
	PaymentMethod   string
	Churned         NullInt
}

// IsChurned reports the churn flag; ok is false when the flag is missing or was invalid.
func (c Customer) IsChurned() (churned bool, ok bool) {
	if !c.Churned.Valid {
		return false, false
	}
	return c.Churned.V == 1, true
}

// Number returns the numeric value of a column, if it has one.
func (c Customer) Number(col Column) (float64, bool) {
	switch col {
	case Age:
		return intFloat(c.Age)
	case TenureMonths:
		return intFloat(c.TenureMonths)
	case NumProducts:
		return intFloat(c.NumProducts)
	case NumSupportCalls:
		return intFloat(c.NumSupportCalls)
	case Churned:
		return intFloat(c.Churned)
	case MonthlyCharges:
		return decFloat(c.MonthlyCharges)
	case TotalCharges:
		return decFloat(c.TotalCharges)
	}
	return 0, false
}

// Decimal returns a currency column as an exact decimal.
func (c Customer) Decimal(col Column) (decimal.Decimal, bool) {
	switch col {
	case MonthlyCharges:
		return c.MonthlyCharges.Decimal, c.MonthlyCharges.Valid
	case TotalCharges:
		return c.TotalCharges.Decimal, c.TotalCharges.Valid
	}
	return decimal.Zero, false
}

// Category returns the grouping key of a column. Integer and flag columns
// are keyed by their decimal string.
func (c Customer) Category(col Column) (string, bool) {
	switch col {
	case CustomerID:
		return c.ID, c.ID != ""
	case ContractType:
		return c.ContractType, c.ContractType != ""
	case PaymentMethod:
		return c.PaymentMethod, c.PaymentMethod != ""
	case Age:
		return intKey(c.Age)
	case TenureMonths:
		return intKey(c.TenureMonths)
	case NumProducts:
		return intKey(c.NumProducts)
	case NumSupportCalls:
		return intKey(c.NumSupportCalls)
	case Churned:
		return intKey(c.Churned)
	}
	return "", false
}

func intFloat(n NullInt) (float64, bool) {
	if !n.Valid {
		return 0, false
	}
	return float64(n.V), true
}

func decFloat(d decimal.NullDecimal) (float64, bool) {
	if !d.Valid {
		return 0, false
	}
	return d.Decimal.InexactFloat64(), true
}

func intKey(n NullInt) (string, bool) {
	if !n.Valid {
		return "", false
	}
	return strconv.Itoa(n.V), true
}

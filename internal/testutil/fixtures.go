// Package testutil builds deterministic customer datasets for tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Header is the canonical CSV header.
const Header = "customer_id,age,tenure_months,monthly_charges,total_charges,num_products,num_support_calls,contract_type,payment_method,churned"

// SampleRows is the size of the documented sample.
const SampleRows = 1000

// SampleChurned is the number of churned customers in the documented sample.
const SampleChurned = 206

var payments = []string{"Credit card", "Mailed check", "Electronic", "Bank transfer"}

// Row describes one generated customer.
type Row struct {
	ID           string
	Age          int
	Tenure       int
	Monthly      string
	Total        string
	Products     int
	SupportCalls int
	Contract     string
	Payment      string
	Churned      int
}

func (r Row) csv() string {
	return fmt.Sprintf("%s,%d,%d,%s,%s,%d,%d,%s,%s,%d",
		r.ID, r.Age, r.Tenure, r.Monthly, r.Total, r.Products, r.SupportCalls, r.Contract, r.Payment, r.Churned)
}

// SampleRowsData returns the documented distribution: 1,000 rows, 206 churned,
// contract types 507/300/193, 250 customers per payment method.
func SampleRowsData() []Row {
	rows := make([]Row, 0, SampleRows)
	for i := 0; i < SampleRows; i++ {
		contract := "Two year"
		switch {
		case i < 507:
			contract = "Month-to-month"
		case i < 807:
			contract = "One year"
		}
		churned := 0
		// 7 is coprime with 1000, so this selects exactly 206 rows
		if (i*7)%SampleRows < SampleChurned {
			churned = 1
		}
		tenure := (i * 11) % 73
		monthlyCents := 2000 + (i%80)*100 + 50
		rows = append(rows, Row{
			ID:           fmt.Sprintf("C%04d", i+1),
			Age:          18 + (i*13)%60,
			Tenure:       tenure,
			Monthly:      fmt.Sprintf("%d.%02d", monthlyCents/100, monthlyCents%100),
			Total:        fmt.Sprintf("%d.%02d", monthlyCents*tenure/100, monthlyCents*tenure%100),
			Products:     1 + i%5,
			SupportCalls: i % 6,
			Contract:     contract,
			Payment:      payments[i%4],
			Churned:      churned,
		})
	}
	return rows
}

// CSV renders rows with the canonical header.
func CSV(rows []Row) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(r.csv())
		b.WriteString("\n")
	}
	return b.String()
}

// WriteCSV writes content to name inside a fresh temp dir and returns the path.
func WriteCSV(tb testing.TB, name, content string) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("write fixture: %v", err)
	}
	return path
}

// WriteSample writes the documented 1,000-row sample and returns its path.
func WriteSample(tb testing.TB) string {
	tb.Helper()
	return WriteCSV(tb, "customer_churn.csv", CSV(SampleRowsData()))
}

// Filter returns rows for which keep is true.
func Filter(rows []Row, keep func(Row) bool) []Row {
	var out []Row
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

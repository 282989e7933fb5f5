// Package export writes the data behind each chart to a spreadsheet.
package export

import (
	"fmt"

	"github.com/KaramelBytes/churnviz-cli/internal/analysis"
	"github.com/KaramelBytes/churnviz-cli/internal/charts"
	"github.com/KaramelBytes/churnviz-cli/internal/render"
	"github.com/KaramelBytes/churnviz-cli/internal/utils"
	"github.com/xuri/excelize/v2"
)

// FileName is the workbook artifact name.
const FileName = "chart_data.xlsx"

// SummarySheet holds churn by segment.
const SummarySheet = "Summary"

const maxSheetName = 31

// SheetName is the worksheet used for a chart.
func SheetName(d charts.Descriptor) string {
	name := fmt.Sprintf("%02d_%s", d.ID, d.Slug)
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}

type sheetWriter struct {
	f      *excelize.File
	bold   int
	sheet  string
	row    int
	widths map[int]float64
}

func (w *sheetWriter) put(vals ...any) error {
	w.row++
	for i, v := range vals {
		cell, err := excelize.CoordinatesToCellName(i+1, w.row)
		if err != nil {
			return err
		}
		if err := w.f.SetCellValue(w.sheet, cell, v); err != nil {
			return err
		}
		if s, ok := v.(string); ok && float64(len(s))+2 > w.widths[i+1] {
			w.widths[i+1] = float64(len(s)) + 2
		}
	}
	return nil
}

func (w *sheetWriter) header(names ...string) error {
	vals := make([]any, len(names))
	for i, n := range names {
		vals[i] = n
	}
	if err := w.put(vals...); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(names), w.row)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(w.sheet, fmt.Sprintf("A%d", w.row), last, w.bold)
}

func (w *sheetWriter) finish() error {
	for col, width := range w.widths {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := w.f.SetColWidth(w.sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

// Workbook writes a summary sheet and one sheet per chart to path.
// Dashboard entries are skipped since their panels have their own sheets.
func Workbook(path string, data []*charts.ChartData, s *analysis.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	sw := &sheetWriter{f: f, bold: bold, sheet: SummarySheet, widths: map[int]float64{}}
	if err := writeSummary(sw, s); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}

	for _, cd := range data {
		if cd == nil || cd.Descriptor.Kind == charts.KindDashboard {
			continue
		}
		name := SheetName(cd.Descriptor)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}
		sw := &sheetWriter{f: f, bold: bold, sheet: name, widths: map[int]float64{}}
		if len(cd.Classes) > 0 {
			err = writeClasses(sw, cd)
		} else {
			err = writeSeries(sw, cd)
		}
		if err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("encode workbook: %w", err)
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return &render.WriteError{Path: path, Err: err}
	}
	return nil
}

func writeSummary(w *sheetWriter, s *analysis.Summary) error {
	if err := w.header("segment", "group", "customers", "churned", "churn_rate", "monthly_charges"); err != nil {
		return err
	}
	if s != nil {
		o := s.Overall
		if err := w.put("Overall", "all", o.Count, o.Churned, o.Rate, o.MonthlyCharges.InexactFloat64()); err != nil {
			return err
		}
		for _, seg := range s.Segments {
			for _, b := range seg.Buckets {
				if err := w.put(seg.Name, b.Key, b.Count, b.Churned, b.Rate, b.MonthlyCharges.InexactFloat64()); err != nil {
					return err
				}
			}
		}
	}
	return w.finish()
}

func writeSeries(w *sheetWriter, cd *charts.ChartData) error {
	head := []string{"category"}
	for _, s := range cd.Series {
		head = append(head, s.Name)
	}
	withColor := len(cd.Colors) == len(cd.Categories) && len(cd.Colors) > 0
	if withColor {
		head = append(head, "color")
	}
	if err := w.header(head...); err != nil {
		return err
	}
	for i, cat := range cd.Categories {
		row := []any{cat}
		for _, s := range cd.Series {
			row = append(row, s.Values[i])
		}
		if withColor {
			row = append(row, charts.Hex(cd.Colors[i]))
		}
		if err := w.put(row...); err != nil {
			return err
		}
	}
	return w.finish()
}

func writeClasses(w *sheetWriter, cd *charts.ChartData) error {
	if err := w.header("class", "n", "min", "q1", "median", "q3", "max", "mean", "outliers"); err != nil {
		return err
	}
	for _, c := range cd.Classes {
		b := c.Box
		if err := w.put(c.Label, b.N, b.Min, b.Q1, b.Median, b.Q3, b.Max, b.Mean, len(b.Outliers)); err != nil {
			return err
		}
	}
	return w.finish()
}

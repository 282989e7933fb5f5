package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RawTable is the uncoerced content of an input file.
type RawTable struct {
	Source string
	Header []string
	Rows   [][]string
}

// Reader loads one input format.
type Reader interface {
	CanRead(path string) bool
	Read(path string, opt LoadOptions) (*RawTable, error)
}

// LoadOptions tunes format-specific reading.
type LoadOptions struct {
	// Sheet selects an XLSX sheet by name; empty means the first sheet.
	Sheet string
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// Load reads path with the first registered reader that accepts it.
// A file without an extension is read as CSV; any other extension no
// reader accepts is ErrUnsupported.
func Load(path string, opt LoadOptions) (*RawTable, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat input: %w", err)
	}
	for _, r := range registry {
		if r.CanRead(path) {
			return r.Read(path, opt)
		}
	}
	if ext := filepath.Ext(path); ext != "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	return csvReader{}.Read(path, opt)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

type csvReader struct{}

func (csvReader) CanRead(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvReader) Read(path string, _ LoadOptions) (*RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = sniffDelimiter(path)

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrNoHeader, filepath.Base(path))
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	raw := &RawTable{Source: path, Header: append([]string(nil), header...)}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(raw.Rows)+1, err)
		}
		raw.Rows = append(raw.Rows, padRow(rec, len(header)))
	}
	return raw, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

type xlsxReader struct{}

func (xlsxReader) CanRead(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".xlsx")
}

func (xlsxReader) Read(path string, opt LoadOptions) (*RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := opt.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'. Available sheets: %s",
			sheet, filepath.Base(path), strings.Join(f.GetSheetList(), ", "))
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoHeader, filepath.Base(path))
	}
	raw := &RawTable{Source: path, Header: rows[0]}
	for _, rec := range rows[1:] {
		// excelize drops trailing empty cells and returns fully empty rows as nil
		if len(rec) == 0 {
			continue
		}
		raw.Rows = append(raw.Rows, padRow(rec, len(raw.Header)))
	}
	return raw, nil
}

func padRow(rec []string, n int) []string {
	out := make([]string, n)
	copy(out, rec)
	return out
}

// Package workbook reads spreadsheet input into plain string grids, one per
// sheet, for the classifier to interpret.
package workbook

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
	FormatTSV  = "tsv"
)

// Sheet is one rectangular-ish grid of cell text. Row 0 is the header.
type Sheet struct {
	Name   string
	Format string
	Rows   [][]string
}

// Cell returns the trimmed text at (row, col), or "" outside the grid.
func (s *Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(s.Rows[row][col])
}

// Width is the widest row.
func (s *Sheet) Width() int {
	w := 0
	for _, r := range s.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Value parses the cell at (row, col). Workbook cells carry canonical numbers,
// so configured separators only apply to delimited text sources.
func (s *Sheet) Value(row, col int, opt Options) float64 {
	if s.Format == FormatXLSX {
		opt.DecimalSeparator, opt.ThousandsSeparator = 0, 0
	}
	return ParseValue(s.Cell(row, col), opt)
}

// Workbook is the ordered set of sheets read from one input.
type Workbook struct {
	Path   string
	Sheets []*Sheet
}

// Names lists sheet names in input order.
func (w *Workbook) Names() []string {
	out := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		out[i] = s.Name
	}
	return out
}

// Sheet finds a sheet by name, case-insensitively.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	for _, s := range w.Sheets {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return nil, false
}

// ErrUnsupportedFormat is returned for inputs that are neither a workbook, a
// delimited text file nor a directory of those.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Open reads every sheet of path. A .xlsx/.xlsm file yields its sheets in
// workbook order; a .csv/.tsv file yields one sheet named after the file; a
// directory yields one sheet per csv/tsv file, sorted by name.
func Open(path string, opt Options) (*Workbook, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	wb := &Workbook{Path: path}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read dir: %w", err)
		}
		var names []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".csv", ".tsv":
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, n := range names {
			sh, err := readDelimited(filepath.Join(path, n), opt)
			if err != nil {
				return nil, err
			}
			wb.Sheets = append(wb.Sheets, sh)
		}
		return wb, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		sheets, err := readXLSX(path)
		if err != nil {
			return nil, err
		}
		wb.Sheets = sheets
	case ".csv", ".tsv":
		sh, err := readDelimited(path, opt)
		if err != nil {
			return nil, err
		}
		wb.Sheets = []*Sheet{sh}
	default:
		return nil, fmt.Errorf("%w: %s (use .xlsx, .csv, .tsv or a directory)", ErrUnsupportedFormat, filepath.Base(path))
	}
	return wb, nil
}

func readXLSX(path string) ([]*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	var out []*Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		out = append(out, &Sheet{Name: name, Format: FormatXLSX, Rows: trim(rows)})
	}
	return out, nil
}

func readDelimited(path string, opt Options) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.Comma = delim
	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		rows = append(rows, rec)
	}
	format := FormatCSV
	if delim == '\t' {
		format = FormatTSV
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Sheet{Name: name, Format: format, Rows: trim(rows)}, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// trim drops rows and columns that are blank everywhere.
func trim(rows [][]string) [][]string {
	width := 0
	var kept [][]string
	for _, r := range rows {
		blank := true
		for _, c := range r {
			if strings.TrimSpace(c) != "" {
				blank = false
				break
			}
		}
		if blank {
			continue
		}
		kept = append(kept, r)
		if len(r) > width {
			width = len(r)
		}
	}
	used := make([]bool, width)
	for _, r := range kept {
		for j, c := range r {
			if strings.TrimSpace(c) != "" {
				used[j] = true
			}
		}
	}
	out := make([][]string, len(kept))
	for i, r := range kept {
		row := make([]string, 0, width)
		for j := 0; j < width; j++ {
			if !used[j] {
				continue
			}
			if j < len(r) {
				row = append(row, r[j])
			} else {
				row = append(row, "")
			}
		}
		out[i] = row
	}
	return out
}

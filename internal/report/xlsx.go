package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/cpxmelt-cli/internal/melt"
	"github.com/KaramelBytes/cpxmelt-cli/internal/utils"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet    = "Summary"
	resultsSheet    = "Results"
	statsSheet      = "Statistics"
	referencesSheet = "References"

	// maxSheetName leaves one rune of room below the 31-rune workbook limit
	// for de-duplication suffixes.
	maxSheetName = 30
)

// ResultColumns are the headers of the long results table.
var ResultColumns = []string{
	"Study", "Sample", "Element", "Cpx_Concentration", "Kd_Value",
	"Melt_Concentration", "PM_Normalizing_Value", "PM_Normalized",
}

// SheetName makes s usable as a worksheet name: invalid characters become
// '_', the result is cut to 30 runes and never empty.
func SheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	s = strings.Trim(s, "'")
	if utf8.RuneCountInString(s) > maxSheetName {
		s = string([]rune(s)[:maxSheetName])
	}
	s = strings.TrimSpace(s)
	if s == "" {
		s = "Study"
	}
	return s
}

// sheetNamer hands out unique, case-insensitive sheet names.
type sheetNamer map[string]bool

func (n sheetNamer) take(name string) string {
	base := SheetName(name)
	cand := base
	for i := 2; n[strings.ToLower(cand)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		r := []rune(base)
		if keep := 31 - utf8.RuneCountInString(suffix); len(r) > keep {
			r = r[:keep]
		}
		cand = string(r) + suffix
	}
	n[strings.ToLower(cand)] = true
	return cand
}

type xlsxWriter struct {
	f     *excelize.File
	bold  int
	first bool
}

func (w *xlsxWriter) sheet(name string) error {
	if w.first {
		w.first = false
		return w.f.SetSheetName("Sheet1", name)
	}
	_, err := w.f.NewSheet(name)
	return err
}

func (w *xlsxWriter) row(sheet string, row int, vals []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &vals)
}

func (w *xlsxWriter) boldRow(sheet string, row, cols int) error {
	if cols < 1 {
		cols = 1
	}
	from, _ := excelize.CoordinatesToCellName(1, row)
	to, _ := excelize.CoordinatesToCellName(cols, row)
	return w.f.SetCellStyle(sheet, from, to, w.bold)
}

// cellValue keeps finite numbers numeric and spells out the rest.
func cellValue(x float64) interface{} {
	if flag := nonFinite(x); flag != "" {
		return flag
	}
	return x
}

// WriteXLSX writes one sheet per study plus Summary, Results and Statistics
// sheets, and References when the input carried any.
func WriteXLSX(path string, d *Data) error {
	f := excelize.NewFile()
	defer f.Close()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}
	w := &xlsxWriter{f: f, bold: bold, first: true}
	names := sheetNamer{
		strings.ToLower(summarySheet): true,
		strings.ToLower(resultsSheet): true,
		strings.ToLower(statsSheet):   true,
	}
	if len(d.References) > 0 {
		names[strings.ToLower(referencesSheet)] = true
	}

	for _, study := range d.studies() {
		if err := w.studySheet(names.take(study), study, d); err != nil {
			return fmt.Errorf("study %q: %w", study, err)
		}
	}
	if err := w.summarySheet(d); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	rows, err := d.results().Table(d.Table)
	if err != nil {
		return err
	}
	if err := w.resultsSheet(rows); err != nil {
		return fmt.Errorf("results sheet: %w", err)
	}
	if err := w.statsSheet(Statistics(rows)); err != nil {
		return fmt.Errorf("statistics sheet: %w", err)
	}
	if len(d.References) > 0 {
		if err := w.referencesSheet(d); err != nil {
			return fmt.Errorf("references sheet: %w", err)
		}
	}
	if idx, err := f.GetSheetIndex(summarySheet); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("render xlsx: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// studySheet lays out the melt block then the normalized block, each with a
// title row, a banner row, a header row and one row per element.
func (w *xlsxWriter) studySheet(name, study string, d *Data) error {
	if err := w.sheet(name); err != nil {
		return err
	}
	rs := d.results()
	samples := rs.Samples(study)
	elements := rs.StudyElements(study, d.elementOrder(study))
	width := len(samples) + 1

	header := make([]interface{}, 0, width)
	header = append(header, "Element")
	for _, s := range samples {
		header = append(header, s)
	}

	row := 1
	block := func(title, banner string, pick func(*melt.SampleResult) func(string) float64) error {
		if err := w.row(name, row, []interface{}{title}); err != nil {
			return err
		}
		if err := w.boldRow(name, row, 1); err != nil {
			return err
		}
		if err := w.row(name, row+1, []interface{}{banner}); err != nil {
			return err
		}
		if err := w.row(name, row+2, header); err != nil {
			return err
		}
		if err := w.boldRow(name, row+2, width); err != nil {
			return err
		}
		row += 3
		for _, e := range elements {
			vals := make([]interface{}, width)
			vals[0] = e
			for j, s := range samples {
				r, ok := rs.Get(study, s)
				if !ok || !hasElement(r, e) {
					vals[j+1] = nil
					continue
				}
				vals[j+1] = cellValue(pick(r)(e))
			}
			if err := w.row(name, row, vals); err != nil {
				return err
			}
			row++
		}
		return nil
	}

	if err := block("CALCULATED MELT COMPOSITION", "=== MELT COMPOSITIONS (ppm) ===",
		func(r *melt.SampleResult) func(string) float64 { return r.Melt.Value }); err != nil {
		return err
	}
	row += 2
	if err := block("NORMALIZED VALUES", "=== PM NORMALIZED VALUES ===",
		func(r *melt.SampleResult) func(string) float64 { return r.Normalized.Value }); err != nil {
		return err
	}
	return w.f.SetColWidth(name, "A", "A", 14)
}

func (w *xlsxWriter) summarySheet(d *Data) error {
	if err := w.sheet(summarySheet); err != nil {
		return err
	}
	s := d.results().Summary()
	o := d.Outcome
	rows := [][]interface{}{
		{"Parameter", "Value"},
		{"Number of Studies", s.StudyCount},
		{"Total Samples", s.TotalSamples},
		{"Common Elements", len(s.Elements)},
		{"Kd Source", Label(s.KdSource, s.KdProvenance)},
		{"Normalizing Standard", Label(s.PMSource, s.PMProvenance)},
		{"Kd Column", s.KdSource},
		{"Normalizing Column", s.PMSource},
		{"Skipped Studies", len(o.SkippedStudies)},
		{"Skipped Samples", len(o.SkippedSamples)},
		{"Non-finite Values", o.Anomalies},
	}
	if d.RunID != "" {
		rows = append(rows, []interface{}{"Run ID", d.RunID})
	}
	if d.InputPath != "" {
		rows = append(rows, []interface{}{"Input", d.InputPath})
	}
	for i, r := range rows {
		if err := w.row(summarySheet, i+1, r); err != nil {
			return err
		}
	}
	if err := w.boldRow(summarySheet, 1, 2); err != nil {
		return err
	}
	return w.f.SetColWidth(summarySheet, "A", "B", 24)
}

func (w *xlsxWriter) resultsSheet(rows []melt.Row) error {
	if err := w.sheet(resultsSheet); err != nil {
		return err
	}
	header := make([]interface{}, len(ResultColumns))
	for i, c := range ResultColumns {
		header[i] = c
	}
	if err := w.row(resultsSheet, 1, header); err != nil {
		return err
	}
	if err := w.boldRow(resultsSheet, 1, len(header)); err != nil {
		return err
	}
	for i, r := range rows {
		vals := []interface{}{r.Study, r.Sample, r.Element,
			cellValue(r.Cpx), cellValue(r.Kd), cellValue(r.Melt), cellValue(r.PM), cellValue(r.Normalized)}
		if err := w.row(resultsSheet, i+2, vals); err != nil {
			return err
		}
	}
	return nil
}

func (w *xlsxWriter) statsSheet(st []StatRow) error {
	if err := w.sheet(statsSheet); err != nil {
		return err
	}
	header := []interface{}{"Study", "Element", "Count", "Mean", "Median", "Std", "Min", "Max"}
	if err := w.row(statsSheet, 1, header); err != nil {
		return err
	}
	if err := w.boldRow(statsSheet, 1, len(header)); err != nil {
		return err
	}
	blankNaN := func(x float64) interface{} {
		if nonFinite(x) != "" {
			return nil
		}
		return x
	}
	for i, s := range st {
		vals := []interface{}{s.Study, s.Element, s.Count,
			blankNaN(s.Mean), blankNaN(s.Median), blankNaN(s.Std), blankNaN(s.Min), blankNaN(s.Max)}
		if err := w.row(statsSheet, i+2, vals); err != nil {
			return err
		}
	}
	return nil
}

func (w *xlsxWriter) referencesSheet(d *Data) error {
	if err := w.sheet(referencesSheet); err != nil {
		return err
	}
	row := 1
	for _, ref := range d.References {
		for _, line := range ref.Lines {
			if err := w.row(referencesSheet, row, []interface{}{line}); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

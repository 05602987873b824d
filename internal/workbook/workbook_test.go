package workbook

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeXLSX(t *testing.T, path string, sheets map[string][][]interface{}, order []string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			if len(row) == 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func TestOpenXLSXKeepsSheetOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.xlsx")
	writeXLSX(t, path, map[string][][]interface{}{
		"Study B": {{"Element", "X1", "X2"}, {"La", 10.5, "n.d."}, {"Ce", 20, 3}},
		"Kd":      {{"Element", "Grassi 2012"}, {"La", 0.05}},
		"Study A": {{"Element", "Y1"}, {}, {"Nd", 1.25}},
	}, []string{"Study B", "Kd", "Study A"})

	wb, err := Open(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"Study B", "Kd", "Study A"}, wb.Names())

	sb, ok := wb.Sheet("study b")
	require.True(t, ok)
	assert.Equal(t, FormatXLSX, sb.Format)
	assert.Equal(t, "X2", sb.Cell(0, 2))
	assert.Equal(t, 10.5, sb.Value(1, 1, DefaultOptions()))
	assert.True(t, math.IsNaN(sb.Value(1, 2, DefaultOptions())))
	assert.Equal(t, 3, sb.Width())

	sa, _ := wb.Sheet("Study A")
	require.Len(t, sa.Rows, 2, "blank rows are dropped")
	assert.Equal(t, "Nd", sa.Cell(1, 0))
}

func TestXLSXValuesIgnoreConfiguredSeparators(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.xlsx")
	writeXLSX(t, path, map[string][][]interface{}{
		"S": {{"Element", "X"}, {"La", 0.5}},
	}, []string{"S"})
	wb, err := Open(path, DefaultOptions())
	require.NoError(t, err)
	opt := DefaultOptions()
	opt.DecimalSeparator = ','
	opt.ThousandsSeparator = '.'
	assert.Equal(t, 0.5, wb.Sheets[0].Value(1, 1, opt))
}

func TestOpenDelimited(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_study.csv"), []byte("Element,X1,,X2\nLa,1.5,,2\n,,,\nCe,3,,4\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_kd.tsv"), []byte("Element\tKd\nLa\t0,05\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	wb, err := Open(filepath.Join(dir, "b_study.csv"), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	sh := wb.Sheets[0]
	assert.Equal(t, "b_study", sh.Name)
	assert.Equal(t, FormatCSV, sh.Format)
	assert.Equal(t, [][]string{{"Element", "X1", "X2"}, {"La", "1.5", "2"}, {"Ce", "3", "4"}}, sh.Rows)

	wb, err = Open(dir, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"a_kd", "b_study"}, wb.Names())
	kd := wb.Sheets[0]
	assert.Equal(t, FormatTSV, kd.Format)
	assert.InDelta(t, 0.05, kd.Value(1, 1, DefaultOptions()), 1e-12)
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "x.json")
	require.NoError(t, os.WriteFile(p, []byte("{}"), 0o644))
	_, err := Open(p, DefaultOptions())
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Open(filepath.Join(dir, "missing.xlsx"), DefaultOptions())
	assert.Error(t, err)
}

func TestCellOutOfRange(t *testing.T) {
	s := &Sheet{Rows: [][]string{{"a"}}}
	assert.Equal(t, "", s.Cell(0, 3))
	assert.Equal(t, "", s.Cell(-1, 0))
	assert.Equal(t, "", s.Cell(4, 0))
}

func TestParseValue(t *testing.T) {
	def := DefaultOptions()
	cases := []struct {
		in   string
		want float64
	}{
		{"12.5", 12.5},
		{" 0,05 ", 0.05},
		{"1.234,5", 1234.5},
		{"1,234.5", 1234.5},
		{"1.2e-3", 0.0012},
		{"3E2", 300},
		{"-0.5", -0.5},
		{"1 000.5", 1000.5},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, ParseValue(c.in, def), 1e-12, c.in)
	}
	for _, in := range []string{"", "  ", "n.d.", "N.D.", "bdl", "-", "<0.01", "< 0.2", "na", "NaN", "inf", "abc", "1.2.3x"} {
		assert.True(t, math.IsNaN(ParseValue(in, def)), "%q should be absent", in)
	}
}

func TestParseValueExplicitLocale(t *testing.T) {
	opt := Options{DecimalSeparator: ',', ThousandsSeparator: '.'}
	assert.Equal(t, 1234.5, ParseValue("1.234,5", opt))
	assert.Equal(t, 0.5, ParseValue("0,5", opt))

	opt = Options{DecimalSeparator: '.', ThousandsSeparator: ' '}
	assert.Equal(t, 12345.25, ParseValue("12 345.25", opt))
}

func TestAbsentMarkersConfigurable(t *testing.T) {
	opt := Options{AbsentMarkers: []string{"below LOD"}}
	assert.True(t, IsAbsentMarker("Below lod", opt))
	assert.False(t, IsAbsentMarker("bdl", opt))
	assert.True(t, IsAbsentMarker("<5", opt))
}

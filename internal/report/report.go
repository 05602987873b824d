// Package report writes a finished run to disk as a workbook, a CSV table, a
// Markdown summary or a SQLite database.
package report

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/cpxmelt-cli/internal/classify"
	"github.com/KaramelBytes/cpxmelt-cli/internal/element"
	"github.com/KaramelBytes/cpxmelt-cli/internal/melt"
)

// Format is an output file kind.
type Format string

const (
	FormatXLSX     Format = "xlsx"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatSQLite   Format = "sqlite"
)

// ErrUnknownFormat is returned when no writer matches the requested format.
var ErrUnknownFormat = errors.New("unknown output format")

// Ext is the default file extension for f.
func (f Format) Ext() string {
	if f == FormatSQLite {
		return ".db"
	}
	return "." + string(f)
}

// ParseFormat maps a --format value or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "db", "sqlite", "sqlite3":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("%w: %q (use xlsx, csv, md or sqlite)", ErrUnknownFormat, s)
}

// FormatFor picks the format for an output path. An explicit override wins;
// otherwise the extension decides, and a path without one means xlsx.
func FormatFor(path, override string) (Format, error) {
	if override != "" {
		return ParseFormat(override)
	}
	ext := filepath.Ext(path)
	if ext == "" {
		return FormatXLSX, nil
	}
	return ParseFormat(ext)
}

// Data is everything a writer may draw on.
type Data struct {
	RunID     string
	InputPath string
	CreatedAt time.Time
	Outcome   *melt.Outcome
	// Studies gives each study's original element order.
	Studies    []*element.Study
	References []classify.References
	// Notes are warnings collected while reading and running.
	Notes []string
	Table melt.TableOptions
}

func (d *Data) results() *melt.ResultSet { return d.Outcome.Results }

func (d *Data) elementOrder(study string) []string {
	for _, s := range d.Studies {
		if s.Name == study {
			return s.Elements
		}
	}
	return nil
}

// studies lists the studies a report covers, in registration order.
func (d *Data) studies() []string {
	all := d.results().Studies()
	if d.Table.Study == "" {
		return all
	}
	for _, s := range all {
		if s == d.Table.Study {
			return []string{s}
		}
	}
	return nil
}

// Write renders d in format f to path.
func Write(path string, f Format, d *Data) error {
	if d == nil || d.Outcome == nil || d.Outcome.Results == nil {
		return errors.New("nothing to write: run produced no outcome")
	}
	switch f {
	case FormatXLSX:
		return WriteXLSX(path, d)
	case FormatCSV:
		return WriteCSV(path, d)
	case FormatMarkdown:
		return WriteMarkdown(path, d)
	case FormatSQLite:
		return WriteSQLite(path, d)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Label is the human name of a table: its provenance tag when one was
// attached, the column header otherwise.
func Label(source, provenance string) string {
	if provenance != "" {
		return provenance
	}
	return source
}

// FormatValue renders a number for text outputs. Non-finite values are
// spelled out so that they survive a round trip through spreadsheets.
func FormatValue(x float64) string {
	if flag := nonFinite(x); flag != "" {
		return flag
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func nonFinite(x float64) string {
	switch {
	case math.IsNaN(x):
		return "nan"
	case math.IsInf(x, 1):
		return "inf"
	case math.IsInf(x, -1):
		return "-inf"
	}
	return ""
}

func hasElement(r *melt.SampleResult, e string) bool {
	for _, x := range r.Elements {
		if x == e {
			return true
		}
	}
	return false
}

// Package classify decides what each input sheet holds and extracts studies,
// partition coefficients and normalizing values from it.
package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/cpxmelt-cli/internal/element"
	"github.com/KaramelBytes/cpxmelt-cli/internal/logger"
	"github.com/KaramelBytes/cpxmelt-cli/internal/melt"
	"github.com/KaramelBytes/cpxmelt-cli/internal/workbook"
)

// Kind is what a sheet was recognized as.
type Kind int

const (
	KindStudy Kind = iota
	KindCoefficients
	KindNormalizing
	KindReferences
	KindUnrecognized
)

func (k Kind) String() string {
	switch k {
	case KindStudy:
		return "study"
	case KindCoefficients:
		return "kd"
	case KindNormalizing:
		return "normalizing"
	case KindReferences:
		return "references"
	default:
		return "unrecognized"
	}
}

// UnknownProvenance labels a table whose source matches no known publication.
const UnknownProvenance = "Unknown"

// Rules holds the sheet-name keywords and provenance tags.
type Rules struct {
	KdKeywords   []string
	NormKeywords []string
	RefKeywords  []string
	// KdProvenance maps a lower-case substring of the Kd column header (or
	// sheet name) to a literature label.
	KdProvenance   map[string]string
	NormProvenance map[string]string
}

// DefaultRules returns the keyword sets used when nothing is configured.
func DefaultRules() Rules {
	return Rules{
		KdKeywords:     []string{"kd", "partition", "coefficient"},
		NormKeywords:   []string{"normalizing", "primitive", "mantle", "chondrite", "pm"},
		RefKeywords:    []string{"reference", "citation", "ref"},
		KdProvenance:   map[string]string{"grassi": "Grassi et al. (2012)"},
		NormProvenance: map[string]string{"mcdonough": "McDonough & Sun (1995)"},
	}
}

// KindOf classifies a sheet by name alone. Kd keywords win over normalizing
// keywords, which win over reference keywords; anything else is a study.
func KindOf(sheet string, r Rules) Kind {
	name := strings.ToLower(sheet)
	switch {
	case containsAny(name, r.KdKeywords):
		return KindCoefficients
	case containsAny(name, r.NormKeywords):
		return KindNormalizing
	case containsAny(name, r.RefKeywords):
		return KindReferences
	default:
		return KindStudy
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Provenance returns the label of the first tag (in key order) found in any of
// the given texts, or UnknownProvenance.
func Provenance(tags map[string]string, texts ...string) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, t := range texts {
		t = strings.ToLower(t)
		for _, k := range keys {
			if k != "" && strings.Contains(t, strings.ToLower(k)) {
				return tags[k]
			}
		}
	}
	return UnknownProvenance
}

// SheetInfo describes how one sheet was interpreted.
type SheetInfo struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"-"`
	KindName string `json:"kind"`
	Elements int    `json:"elements"`
	Samples  int    `json:"samples"`
	Note     string `json:"note,omitempty"`
}

// References is a free-text sheet carried through to the report.
type References struct {
	Sheet string
	Lines []string
}

// Result is the classified content of a workbook.
type Result struct {
	Sheets       []SheetInfo
	Studies      []*element.Study
	Coefficients element.CoefficientTable
	Normalizing  element.NormalizingTable
	References   []References
	Unrecognized []string
	Warnings     []string

	kdSheet, pmSheet string
}

// Input hands the extracted tables to the batch driver.
func (r *Result) Input() melt.Input {
	return melt.Input{Studies: r.Studies, Coefficients: r.Coefficients, Normalizing: r.Normalizing}
}

// Study returns the study read from the named sheet.
func (r *Result) Study(name string) (*element.Study, bool) {
	for _, s := range r.Studies {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Classify walks the sheets in workbook order.
func Classify(wb *workbook.Workbook, rules Rules, opt workbook.Options, log *logger.Logger) *Result {
	log = logger.OrNop(log)
	res := &Result{}
	for _, sh := range wb.Sheets {
		info := SheetInfo{Name: sh.Name, Kind: KindOf(sh.Name, rules)}
		switch info.Kind {
		case KindCoefficients:
			vec, source, ok := parseSeries(sh, opt)
			if !ok {
				info.Kind = KindUnrecognized
				info.Note = "no element/value columns"
				break
			}
			if res.kdSheet != "" {
				res.warn(log, fmt.Sprintf("Kd sheet %q replaces %q", sh.Name, res.kdSheet))
			}
			res.kdSheet = sh.Name
			res.Coefficients = element.NewCoefficientTable(source, vec)
			res.Coefficients.Provenance = Provenance(rules.KdProvenance, source, sh.Name)
			info.Elements = res.Coefficients.Len()
			info.Note = "source: " + source
			log.Debug("kd values loaded", "sheet", sh.Name, "elements", info.Elements, "source", source)
		case KindNormalizing:
			vec, source, ok := parseSeries(sh, opt)
			if !ok {
				info.Kind = KindUnrecognized
				info.Note = "no element/value columns"
				break
			}
			if res.pmSheet != "" {
				res.warn(log, fmt.Sprintf("normalizing sheet %q replaces %q", sh.Name, res.pmSheet))
			}
			res.pmSheet = sh.Name
			res.Normalizing = element.NewNormalizingTable(source, vec)
			res.Normalizing.Provenance = Provenance(rules.NormProvenance, source, sh.Name)
			info.Elements = res.Normalizing.Len()
			info.Note = "standard: " + source
			log.Debug("normalizing values loaded", "sheet", sh.Name, "elements", info.Elements, "source", source)
		case KindReferences:
			ref := References{Sheet: sh.Name}
			for i := range sh.Rows {
				if line := joinRow(sh, i); line != "" {
					ref.Lines = append(ref.Lines, line)
				}
			}
			res.References = append(res.References, ref)
			info.Note = fmt.Sprintf("%d lines", len(ref.Lines))
		default:
			st, dups, renamed := parseStudy(sh, opt)
			if len(st.Elements) == 0 && len(st.SampleNames) == 0 {
				info.Kind = KindUnrecognized
				info.Note = "no element rows or sample columns"
				break
			}
			for _, r := range renamed {
				res.warn(log, fmt.Sprintf("study %q has more than one sample column %q; renamed to %q", sh.Name, r[0], r[1]))
			}
			for _, d := range dups {
				res.warn(log, fmt.Sprintf("study %q lists element %q more than once; last row kept", sh.Name, d))
			}
			res.Studies = append(res.Studies, st)
			info.Elements = len(st.Elements)
			info.Samples = len(st.SampleNames)
			log.Debug("study loaded", "sheet", sh.Name, "elements", info.Elements, "samples", info.Samples)
		}
		if info.Kind == KindUnrecognized {
			res.Unrecognized = append(res.Unrecognized, sh.Name)
			log.Warn("sheet not recognized", "sheet", sh.Name, "reason", info.Note)
		}
		info.KindName = info.Kind.String()
		res.Sheets = append(res.Sheets, info)
	}
	return res
}

func (r *Result) warn(log *logger.Logger, msg string) {
	r.Warnings = append(r.Warnings, msg)
	log.Warn(msg)
}

// parseStudy reads elements down column 0 and one sample per header column.
// Columns without a single non-blank value and element rows without any value
// are dropped. A sheet with no sample column keeps its elements so the run can
// report it. Repeated headers get a ".N" suffix that no other column uses; the
// renames are returned as (header, new name) pairs.
func parseStudy(sh *workbook.Sheet, opt workbook.Options) (*element.Study, []string, [][2]string) {
	st := element.NewStudy(sh.Name)
	width := sh.Width()
	var cols []int
	var names []string
	var renamed [][2]string
	used := map[string]bool{}
	next := map[string]int{}
	for j := 1; j < width; j++ {
		if !columnHasData(sh, j) {
			continue
		}
		header := sh.Cell(0, j)
		if header == "" {
			header = fmt.Sprintf("Unnamed %d", j)
		}
		name := header
		if used[name] {
			n := next[header]
			if n == 0 {
				n = 1
			}
			for ; ; n++ {
				if cand := fmt.Sprintf("%s.%d", header, n); !used[cand] {
					name = cand
					next[header] = n + 1
					break
				}
			}
			renamed = append(renamed, [2]string{header, name})
		}
		used[name] = true
		cols = append(cols, j)
		names = append(names, name)
	}

	vecs := make([]*element.Vector, len(cols))
	for k := range vecs {
		vecs[k] = element.NewVector()
	}
	seen := map[string]bool{}
	var dups []string
	for i := 1; i < len(sh.Rows); i++ {
		sym := element.Symbol(sh.Cell(i, 0))
		if sym == "" || len(cols) > 0 && !rowHasData(sh, i, cols) {
			continue
		}
		if seen[sym] {
			dups = append(dups, sym)
		}
		seen[sym] = true
		st.AddElement(sym)
		for k, j := range cols {
			vecs[k].Set(sym, sh.Value(i, j, opt))
		}
	}
	for k, name := range names {
		st.AddSample(name, vecs[k])
	}
	return st, dups, renamed
}

// parseSeries reads a two-column element/value sheet. The header of the value
// column names the source.
func parseSeries(sh *workbook.Sheet, opt workbook.Options) (*element.Vector, string, bool) {
	if len(sh.Rows) < 2 || sh.Width() < 2 {
		return nil, "", false
	}
	source := sh.Cell(0, 1)
	if source == "" {
		source = sh.Name
	}
	vec := element.NewVector()
	for i := 1; i < len(sh.Rows); i++ {
		sym := element.Symbol(sh.Cell(i, 0))
		x := sh.Value(i, 1, opt)
		if sym == "" || element.IsAbsent(x) {
			continue
		}
		vec.Set(sym, x)
	}
	if vec.Len() == 0 {
		return nil, source, false
	}
	return vec, source, true
}

func columnHasData(sh *workbook.Sheet, col int) bool {
	for i := 1; i < len(sh.Rows); i++ {
		if sh.Cell(i, col) != "" {
			return true
		}
	}
	return false
}

func rowHasData(sh *workbook.Sheet, row int, cols []int) bool {
	for _, j := range cols {
		if sh.Cell(row, j) != "" {
			return true
		}
	}
	return false
}

func joinRow(sh *workbook.Sheet, row int) string {
	var parts []string
	for j := range sh.Rows[row] {
		if c := sh.Cell(row, j); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

package workbook

import (
	"math"
	"strconv"
	"strings"
)

// Options controls how sheets are read and how cell text becomes a number.
type Options struct {
	// Delimiter for CSV. If 0, picked from the file extension.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, auto-detect common separators (',' '.' space)
	// AbsentMarkers are cell texts meaning "not determined" (case-insensitive).
	// Values starting with '<' (below detection limit) are always absent.
	AbsentMarkers []string
}

// DefaultAbsentMarkers are the not-determined spellings seen in trace element tables.
var DefaultAbsentMarkers = []string{"n.d.", "nd", "n.d", "bdl", "b.d.l.", "-", "--", "na", "n.a.", "nan", "null"}

// DefaultOptions returns auto-detecting numeric options.
func DefaultOptions() Options {
	return Options{AbsentMarkers: append([]string(nil), DefaultAbsentMarkers...)}
}

// ParseValue converts a cell to a concentration. Blank cells, absent markers,
// below-detection values and anything unparseable come back as NaN.
func ParseValue(s string, opt Options) float64 {
	x, ok := parseNumeric(s, opt)
	if !ok {
		return math.NaN()
	}
	return x
}

// IsAbsentMarker reports whether s spells a not-determined value.
func IsAbsentMarker(s string, opt Options) bool {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	if raw == "" || strings.HasPrefix(raw, "<") {
		return true
	}
	for _, m := range opt.AbsentMarkers {
		if strings.EqualFold(raw, strings.TrimSpace(m)) {
			return true
		}
	}
	return false
}

func parseNumeric(s string, opt Options) (float64, bool) {
	if IsAbsentMarker(s, opt) {
		return 0, false
	}
	// Normalize spaces
	raw := strings.ReplaceAll(s, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	// Decide decimal separator
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		// auto detect
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	// Remove thousands separators (common: ',', '.', space) if they differ from decimal
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

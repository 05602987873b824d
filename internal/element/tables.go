package element

import (
	"fmt"
	"math"
)

// Study is one table of clinopyroxene analyses: elements down the first
// column, one sample per column.
type Study struct {
	Name string
	// Elements is the canonical element order, as read from the table.
	Elements []string
	// SampleNames keeps the original column order.
	SampleNames []string
	Samples     map[string]*Vector
}

// NewStudy returns an empty study.
func NewStudy(name string) *Study {
	return &Study{Name: name, Samples: make(map[string]*Vector)}
}

// AddElement appends sym to the element order unless already listed.
func (s *Study) AddElement(sym string) {
	sym = Symbol(sym)
	if sym == "" {
		return
	}
	for _, e := range s.Elements {
		if e == sym {
			return
		}
	}
	s.Elements = append(s.Elements, sym)
}

// AddSample registers a sample column. A repeated name replaces the previous
// vector and keeps its column position.
func (s *Study) AddSample(name string, v *Vector) {
	if s.Samples == nil {
		s.Samples = make(map[string]*Vector)
	}
	if _, ok := s.Samples[name]; !ok {
		s.SampleNames = append(s.SampleNames, name)
	}
	s.Samples[name] = v
}

// Sample returns the vector for name.
func (s *Study) Sample(name string) (*Vector, bool) {
	v, ok := s.Samples[name]
	return v, ok
}

// CoefficientTable holds mineral/melt partition coefficients (Kd).
type CoefficientTable struct {
	Values *Vector
	// Source is the column header or sheet the values came from.
	Source string
	// Provenance is an optional literature label, e.g. "Grassi et al. (2012)".
	Provenance string
}

// NewCoefficientTable copies values so later edits by the caller cannot leak in.
func NewCoefficientTable(source string, values *Vector) CoefficientTable {
	return CoefficientTable{Values: values.Clone(), Source: source}
}

// Lookup returns the Kd for sym.
func (t CoefficientTable) Lookup(sym string) (float64, bool) { return t.Values.Get(sym) }

// Len is the number of elements with a usable coefficient.
func (t CoefficientTable) Len() int { return len(t.Values.Present()) }

// Empty reports whether the table carries no usable coefficient.
func (t CoefficientTable) Empty() bool { return t.Values == nil || t.Len() == 0 }

// NormalizingTable holds reference composition values (e.g. primitive mantle).
type NormalizingTable struct {
	Values     *Vector
	Source     string
	Provenance string
}

// NewNormalizingTable copies values so later edits by the caller cannot leak in.
func NewNormalizingTable(source string, values *Vector) NormalizingTable {
	return NormalizingTable{Values: values.Clone(), Source: source}
}

// Lookup returns the reference value for sym.
func (t NormalizingTable) Lookup(sym string) (float64, bool) { return t.Values.Get(sym) }

// Len is the number of elements with a usable reference value.
func (t NormalizingTable) Len() int { return len(t.Values.Present()) }

// Empty reports whether the table carries no usable reference value.
func (t NormalizingTable) Empty() bool { return t.Values == nil || t.Len() == 0 }

// Issue describes one suspicious divisor value.
type Issue struct {
	Element string
	Value   float64
}

func (i Issue) String() string {
	return fmt.Sprintf("%s=%g", i.Element, i.Value)
}

// ValidateDivisors lists present values that are zero, negative or not finite.
// Such values make the derived concentrations non-finite or meaningless.
func ValidateDivisors(v *Vector) []Issue {
	var out []Issue
	for _, s := range v.Present() {
		x, _ := v.Get(s)
		if x <= 0 || math.IsInf(x, 0) {
			out = append(out, Issue{Element: s, Value: x})
		}
	}
	return out
}

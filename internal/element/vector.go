package element

import (
	"math"
	"strings"
)

// Absent is the value stored for an element without a usable measurement.
// It is NaN, so it never compares equal to zero or to itself.
func Absent() float64 { return math.NaN() }

// IsAbsent reports whether v marks a missing measurement.
func IsAbsent(v float64) bool { return math.IsNaN(v) }

// Vector is an ordered mapping from element symbol to value.
// Symbols are unique; setting an existing symbol overwrites its value in place
// and keeps its original position.
type Vector struct {
	order []string
	vals  map[string]float64
}

// NewVector returns an empty vector.
func NewVector() *Vector {
	return &Vector{vals: make(map[string]float64)}
}

// VectorOf builds a vector from parallel symbol and value slices.
// Extra values are ignored; missing values are stored as Absent.
func VectorOf(symbols []string, values []float64) *Vector {
	v := NewVector()
	for i, s := range symbols {
		x := Absent()
		if i < len(values) {
			x = values[i]
		}
		v.Set(s, x)
	}
	return v
}

// Symbol normalizes an element label as read from a table cell.
func Symbol(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
}

// Set stores x under sym. Empty symbols are ignored.
func (v *Vector) Set(sym string, x float64) {
	sym = Symbol(sym)
	if sym == "" {
		return
	}
	if v.vals == nil {
		v.vals = make(map[string]float64)
	}
	if _, ok := v.vals[sym]; !ok {
		v.order = append(v.order, sym)
	}
	v.vals[sym] = x
}

// Get returns the value for sym and whether it is present and not absent.
func (v *Vector) Get(sym string) (float64, bool) {
	if v == nil {
		return Absent(), false
	}
	x, ok := v.vals[sym]
	if !ok || IsAbsent(x) {
		return Absent(), false
	}
	return x, true
}

// Value returns the stored value for sym, or Absent when sym is unknown.
func (v *Vector) Value(sym string) float64 {
	if v == nil {
		return Absent()
	}
	x, ok := v.vals[sym]
	if !ok {
		return Absent()
	}
	return x
}

// Has reports whether sym carries a non-absent value.
func (v *Vector) Has(sym string) bool {
	_, ok := v.Get(sym)
	return ok
}

// Symbols returns every symbol in insertion order, absent ones included.
func (v *Vector) Symbols() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

// Present returns the non-absent symbols in insertion order.
func (v *Vector) Present() []string {
	if v == nil {
		return nil
	}
	out := make([]string, 0, len(v.order))
	for _, s := range v.order {
		if !IsAbsent(v.vals[s]) {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of symbols, absent ones included.
func (v *Vector) Len() int {
	if v == nil {
		return 0
	}
	return len(v.order)
}

// Clone returns a deep copy.
func (v *Vector) Clone() *Vector {
	out := NewVector()
	if v == nil {
		return out
	}
	for _, s := range v.order {
		out.Set(s, v.vals[s])
	}
	return out
}

// Project returns a vector holding only the given symbols, in the given order.
// Symbols unknown to v are stored as Absent.
func (v *Vector) Project(symbols []string) *Vector {
	out := NewVector()
	for _, s := range symbols {
		out.Set(s, v.Value(s))
	}
	return out
}

// Values returns the values for symbols in order.
func (v *Vector) Values(symbols []string) []float64 {
	out := make([]float64, len(symbols))
	for i, s := range symbols {
		out[i] = v.Value(s)
	}
	return out
}

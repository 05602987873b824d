// Package melt derives equilibrium melt compositions from clinopyroxene
// analyses: melt = cpx / Kd, normalized = melt / reference value.
package melt

import (
	"github.com/KaramelBytes/cpxmelt-cli/internal/element"
	"gonum.org/v1/gonum/floats"
)

// SampleResult is the derivation for one sample. Cpx, Melt and Normalized are
// indexed by Elements and share its order.
type SampleResult struct {
	Elements   []string
	Cpx        *element.Vector
	Melt       *element.Vector
	Normalized *element.Vector
}

// DeriveSample computes melt and normalized values for every element that is
// measured in sample and listed in both kd and pm.
//
// The result follows order (the study's element order) restricted to those
// common elements; the tables never influence the order. It returns false when
// no element is common to all three. Zero or non-finite divisors are not
// special-cased: the resulting Inf/NaN values are returned as-is.
func DeriveSample(sample *element.Vector, order []string, kd element.CoefficientTable, pm element.NormalizingTable) (*SampleResult, bool) {
	common := make(map[string]struct{})
	for _, sym := range sample.Present() {
		if kd.Values.Has(sym) && pm.Values.Has(sym) {
			common[sym] = struct{}{}
		}
	}
	if len(common) == 0 {
		return nil, false
	}

	ordered := make([]string, 0, len(common))
	for _, sym := range order {
		sym = element.Symbol(sym)
		if _, ok := common[sym]; !ok {
			continue
		}
		ordered = append(ordered, sym)
		delete(common, sym)
	}
	if len(ordered) == 0 {
		return nil, false
	}

	cpx := sample.Values(ordered)
	meltVals := floats.DivTo(make([]float64, len(ordered)), cpx, kd.Values.Values(ordered))
	normVals := floats.DivTo(make([]float64, len(ordered)), meltVals, pm.Values.Values(ordered))

	return &SampleResult{
		Elements:   ordered,
		Cpx:        element.VectorOf(ordered, cpx),
		Melt:       element.VectorOf(ordered, meltVals),
		Normalized: element.VectorOf(ordered, normVals),
	}, true
}

package report

import (
	"math"

	"github.com/KaramelBytes/cpxmelt-cli/internal/melt"
	"github.com/montanaflynn/stats"
)

// StatRow summarizes the PM-normalized values of one element in one study.
type StatRow struct {
	Study   string  `json:"study"`
	Element string  `json:"element"`
	Count   int     `json:"count"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	Std     float64 `json:"std"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Statistics groups rows by study and element, in the order they first
// appear, and summarizes the finite normalized values. Std needs two values
// and is NaN otherwise; a group without any finite value has Count 0 and NaN
// everywhere else.
func Statistics(rows []melt.Row) []StatRow {
	type key struct{ study, element string }
	var order []key
	vals := map[key][]float64{}
	for _, r := range rows {
		k := key{r.Study, r.Element}
		if _, ok := vals[k]; !ok {
			order = append(order, k)
			vals[k] = []float64{}
		}
		if math.IsNaN(r.Normalized) || math.IsInf(r.Normalized, 0) {
			continue
		}
		vals[k] = append(vals[k], r.Normalized)
	}

	out := make([]StatRow, 0, len(order))
	for _, k := range order {
		data := vals[k]
		s := StatRow{Study: k.study, Element: k.element, Count: len(data)}
		s.Mean, s.Median, s.Std, s.Min, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
		if len(data) > 0 {
			s.Mean, _ = stats.Mean(data)
			s.Median, _ = stats.Median(data)
			s.Min, _ = stats.Min(data)
			s.Max, _ = stats.Max(data)
		}
		if len(data) > 1 {
			s.Std, _ = stats.StandardDeviationSample(data)
		}
		out = append(out, s)
	}
	return out
}

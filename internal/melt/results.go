package melt

import (
	"sort"
	"sync"

	"github.com/KaramelBytes/cpxmelt-cli/internal/element"
)

// Row is one line of the long results table.
type Row struct {
	Study      string  `json:"study"`
	Sample     string  `json:"sample"`
	Element    string  `json:"element"`
	Cpx        float64 `json:"cpx_concentration"`
	Kd         float64 `json:"kd_value"`
	Melt       float64 `json:"melt_concentration"`
	PM         float64 `json:"pm_normalizing_value"`
	Normalized float64 `json:"pm_normalized"`
}

// TableOptions selects and orders rows.
type TableOptions struct {
	// Study restricts the table to one study; empty means all.
	Study string
	// InputOrder keeps studies and samples in registration order instead of
	// sorting their names.
	InputOrder bool
}

// Summary describes the whole result set.
type Summary struct {
	StudyCount   int      `json:"study_count"`
	TotalSamples int      `json:"total_samples"`
	Elements     []string `json:"elements"`
	KdSource     string   `json:"kd_source"`
	KdProvenance string   `json:"kd_provenance,omitempty"`
	PMSource     string   `json:"pm_source"`
	PMProvenance string   `json:"pm_provenance,omitempty"`
}

// ResultSet maps study -> sample -> SampleResult and remembers the order in
// which studies and samples were first recorded. Safe for concurrent Record.
type ResultSet struct {
	mu      sync.RWMutex
	kd      element.CoefficientTable
	pm      element.NormalizingTable
	studies []string
	samples map[string][]string
	results map[string]map[string]*SampleResult
}

// NewResultSet returns an empty set bound to the tables used for derivation.
func NewResultSet(kd element.CoefficientTable, pm element.NormalizingTable) *ResultSet {
	return &ResultSet{
		kd:      kd,
		pm:      pm,
		samples: make(map[string][]string),
		results: make(map[string]map[string]*SampleResult),
	}
}

// Record stores r under (study, sample). A repeated pair overwrites the
// previous result; callers register each sample once per run. Nil results are
// ignored.
func (rs *ResultSet) Record(study, sample string, r *SampleResult) {
	if r == nil {
		return
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	bySample, ok := rs.results[study]
	if !ok {
		bySample = make(map[string]*SampleResult)
		rs.results[study] = bySample
		rs.studies = append(rs.studies, study)
	}
	if _, ok := bySample[sample]; !ok {
		rs.samples[study] = append(rs.samples[study], sample)
	}
	bySample[sample] = r
}

// Get returns the result for (study, sample).
func (rs *ResultSet) Get(study, sample string) (*SampleResult, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	r, ok := rs.results[study][sample]
	return r, ok
}

// Studies returns study names in registration order.
func (rs *ResultSet) Studies() []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return append([]string(nil), rs.studies...)
}

// Samples returns the sample names of study in registration order.
func (rs *ResultSet) Samples(study string) []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return append([]string(nil), rs.samples[study]...)
}

// Len returns the number of recorded samples across all studies.
func (rs *ResultSet) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	n := 0
	for _, s := range rs.samples {
		n += len(s)
	}
	return n
}

// Empty reports whether nothing was recorded.
func (rs *ResultSet) Empty() bool { return rs.Len() == 0 }

// Coefficients returns the Kd table the results were derived with.
func (rs *ResultSet) Coefficients() element.CoefficientTable { return rs.kd }

// Normalizing returns the reference table the results were normalized with.
func (rs *ResultSet) Normalizing() element.NormalizingTable { return rs.pm }

// Table flattens the results into rows ordered by study, sample and element.
// Elements follow the order of the first recorded sample of the whole set so
// that rows stay comparable across samples; elements that sample lacks come
// after, in each sample's own order.
func (rs *ResultSet) Table(opt TableOptions) ([]Row, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if len(rs.studies) == 0 {
		return nil, ErrEmptyResultSet
	}

	studies := append([]string(nil), rs.studies...)
	if opt.Study != "" {
		if _, ok := rs.results[opt.Study]; !ok {
			return nil, &UnknownStudyError{Study: opt.Study, Available: studies}
		}
		studies = []string{opt.Study}
	}
	if !opt.InputOrder {
		sort.Strings(studies)
	}

	first := rs.results[rs.studies[0]][rs.samples[rs.studies[0]][0]]
	rank := make(map[string]int, len(first.Elements))
	for i, e := range first.Elements {
		rank[e] = i
	}
	rankOf := func(e string) int {
		if r, ok := rank[e]; ok {
			return r
		}
		return len(rank)
	}

	var rows []Row
	for _, study := range studies {
		samples := append([]string(nil), rs.samples[study]...)
		if !opt.InputOrder {
			sort.Strings(samples)
		}
		for _, sample := range samples {
			r := rs.results[study][sample]
			elems := append([]string(nil), r.Elements...)
			sort.SliceStable(elems, func(i, j int) bool { return rankOf(elems[i]) < rankOf(elems[j]) })
			for _, e := range elems {
				rows = append(rows, Row{
					Study:      study,
					Sample:     sample,
					Element:    e,
					Cpx:        r.Cpx.Value(e),
					Kd:         rs.kd.Values.Value(e),
					Melt:       r.Melt.Value(e),
					PM:         rs.pm.Values.Value(e),
					Normalized: r.Normalized.Value(e),
				})
			}
		}
	}
	return rows, nil
}

// Summary counts studies and samples and collects the union of elements over
// every recorded result, in first-seen order.
func (rs *ResultSet) Summary() Summary {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	s := Summary{
		StudyCount:   len(rs.studies),
		KdSource:     rs.kd.Source,
		KdProvenance: rs.kd.Provenance,
		PMSource:     rs.pm.Source,
		PMProvenance: rs.pm.Provenance,
	}
	seen := map[string]struct{}{}
	for _, study := range rs.studies {
		s.TotalSamples += len(rs.samples[study])
		for _, sample := range rs.samples[study] {
			for _, e := range rs.results[study][sample].Elements {
				if _, ok := seen[e]; ok {
					continue
				}
				seen[e] = struct{}{}
				s.Elements = append(s.Elements, e)
			}
		}
	}
	return s
}

// StudyElements returns the elements with at least one result in study,
// ordered by the study's own element order. Elements missing from order are
// appended in first-seen order.
func (rs *ResultSet) StudyElements(study string, order []string) []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	have := map[string]struct{}{}
	var seen []string
	for _, sample := range rs.samples[study] {
		for _, e := range rs.results[study][sample].Elements {
			if _, ok := have[e]; !ok {
				have[e] = struct{}{}
				seen = append(seen, e)
			}
		}
	}
	out := make([]string, 0, len(seen))
	used := map[string]struct{}{}
	for _, e := range order {
		if _, ok := have[e]; ok {
			if _, dup := used[e]; !dup {
				out = append(out, e)
				used[e] = struct{}{}
			}
		}
	}
	for _, e := range seen {
		if _, ok := used[e]; !ok {
			out = append(out, e)
		}
	}
	return out
}

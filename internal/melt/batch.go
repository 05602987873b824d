package melt

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/cpxmelt-cli/internal/element"
	"github.com/KaramelBytes/cpxmelt-cli/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Input is everything a run needs, already extracted from the workbook.
type Input struct {
	Studies      []*element.Study
	Coefficients element.CoefficientTable
	Normalizing  element.NormalizingTable
}

// RunOptions tunes a batch run.
type RunOptions struct {
	// Workers > 1 derives studies concurrently. Output order is unaffected.
	Workers int
	// Strict rejects zero, negative or infinite Kd / reference values instead
	// of letting them propagate into the results.
	Strict bool
	Log    *logger.Logger
	// Progress, if set, is called once per study after it is registered.
	Progress func(done, total int, study string, samples int)
}

// StudyReport is the per-study tally of a run.
type StudyReport struct {
	Study    string `json:"study"`
	Samples  int    `json:"samples"`
	Skipped  int    `json:"skipped_samples"`
	Elements int    `json:"elements"`
}

// Outcome is what a run produced, including everything it skipped.
type Outcome struct {
	Results        *ResultSet
	Studies        []StudyReport
	SkippedStudies []SkippedStudy
	SkippedSamples []SkippedSample
	// Anomalies counts derived values that are not finite (zero divisors and
	// the like). They are kept in Results unchanged.
	Anomalies int
	Warnings  []string
}

type derived struct {
	sample string
	result *SampleResult
}

type studyPass struct {
	study   *element.Study
	results []derived
	skipped []SkippedSample
}

// Run derives every sample of every study and registers the results.
//
// Missing Kd or normalizing data is a *FatalInputError and nothing is
// computed. A study or sample without common elements is skipped and
// reported; the remaining studies still run. If nothing at all was registered
// the outcome is returned together with ErrEmptyResultSet.
func Run(ctx context.Context, in Input, opt RunOptions) (*Outcome, error) {
	log := logger.OrNop(opt.Log)
	if in.Coefficients.Empty() {
		return nil, &FatalInputError{Reason: "no partition coefficient (Kd) values found"}
	}
	if in.Normalizing.Empty() {
		return nil, &FatalInputError{Reason: "no normalizing values found"}
	}

	out := &Outcome{Results: NewResultSet(in.Coefficients, in.Normalizing)}
	if err := checkDivisors(in, opt.Strict, out); err != nil {
		return nil, err
	}

	passes := make([]studyPass, len(in.Studies))
	if opt.Workers > 1 && len(in.Studies) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opt.Workers)
		for i, st := range in.Studies {
			i, st := i, st
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				passes[i] = deriveStudy(st, in.Coefficients, in.Normalizing)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, st := range in.Studies {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			passes[i] = deriveStudy(st, in.Coefficients, in.Normalizing)
		}
	}

	total := len(passes)
	for i, p := range passes {
		name := p.study.Name
		for _, d := range p.results {
			out.Results.Record(name, d.sample, d.result)
			out.Anomalies += countNonFinite(d.result)
		}
		out.SkippedSamples = append(out.SkippedSamples, p.skipped...)
		rep := StudyReport{
			Study:    name,
			Samples:  len(p.results),
			Skipped:  len(p.skipped),
			Elements: len(out.Results.StudyElements(name, p.study.Elements)),
		}
		out.Studies = append(out.Studies, rep)
		if len(p.results) == 0 {
			reason := "no sample shares elements with the Kd and normalizing tables"
			if len(p.study.SampleNames) == 0 {
				reason = "no sample columns"
			}
			out.SkippedStudies = append(out.SkippedStudies, SkippedStudy{Study: name, Reason: reason})
			log.Warn("study skipped", "study", name, "reason", reason)
		} else {
			log.Debug("study processed", "study", name, "samples", rep.Samples, "elements", rep.Elements, "skipped", rep.Skipped)
		}
		if opt.Progress != nil {
			opt.Progress(i+1, total, name, rep.Samples)
		}
	}

	if out.Anomalies > 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%d derived values are not finite (zero or invalid divisors)", out.Anomalies))
	}
	if out.Results.Empty() {
		return out, ErrEmptyResultSet
	}
	return out, nil
}

func deriveStudy(st *element.Study, kd element.CoefficientTable, pm element.NormalizingTable) studyPass {
	p := studyPass{study: st}
	for _, name := range st.SampleNames {
		vec := st.Samples[name]
		r, ok := DeriveSample(vec, st.Elements, kd, pm)
		if !ok {
			reason := "no elements in common with the Kd and normalizing tables"
			if len(vec.Present()) == 0 {
				reason = "all values absent"
			}
			p.skipped = append(p.skipped, SkippedSample{Study: st.Name, Sample: name, Reason: reason})
			continue
		}
		p.results = append(p.results, derived{sample: name, result: r})
	}
	return p
}

func checkDivisors(in Input, strict bool, out *Outcome) error {
	var msgs []string
	if issues := element.ValidateDivisors(in.Coefficients.Values); len(issues) > 0 {
		msgs = append(msgs, "Kd values not positive/finite: "+joinIssues(issues))
	}
	if issues := element.ValidateDivisors(in.Normalizing.Values); len(issues) > 0 {
		msgs = append(msgs, "normalizing values not positive/finite: "+joinIssues(issues))
	}
	if len(msgs) == 0 {
		return nil
	}
	if strict {
		return &FatalInputError{Reason: strings.Join(msgs, "; ")}
	}
	out.Warnings = append(out.Warnings, msgs...)
	return nil
}

func joinIssues(issues []element.Issue) string {
	parts := make([]string, len(issues))
	for i, is := range issues {
		parts[i] = is.String()
	}
	return strings.Join(parts, ", ")
}

func countNonFinite(r *SampleResult) int {
	n := 0
	for _, e := range r.Elements {
		for _, x := range []float64{r.Melt.Value(e), r.Normalized.Value(e)} {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				n++
			}
		}
	}
	return n
}

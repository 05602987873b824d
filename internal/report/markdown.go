package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/cpxmelt-cli/internal/melt"
	"github.com/KaramelBytes/cpxmelt-cli/internal/utils"
)

// Markdown renders a compact run summary.
func Markdown(d *Data) string {
	var b strings.Builder
	rs := d.results()
	s := rs.Summary()
	o := d.Outcome

	b.WriteString("[RUN SUMMARY]\n")
	if d.InputPath != "" {
		b.WriteString(fmt.Sprintf("Input: %s\n", filepath.Base(d.InputPath)))
	}
	if d.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", d.RunID))
	}
	b.WriteString(fmt.Sprintf("Studies: %d\n", s.StudyCount))
	b.WriteString(fmt.Sprintf("Samples: %d\n", s.TotalSamples))
	b.WriteString(fmt.Sprintf("Common elements: %d", len(s.Elements)))
	if len(s.Elements) > 0 {
		b.WriteString(" (" + strings.Join(s.Elements, ", ") + ")")
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Kd: %s\n", describe(s.KdSource, s.KdProvenance)))
	b.WriteString(fmt.Sprintf("Normalizing: %s\n", describe(s.PMSource, s.PMProvenance)))

	if len(o.Studies) > 0 {
		b.WriteString("\n[STUDIES]\n")
		for _, st := range o.Studies {
			b.WriteString(fmt.Sprintf("- %s: %d samples, %d elements", safeName(st.Study), st.Samples, st.Elements))
			if st.Skipped > 0 {
				b.WriteString(fmt.Sprintf(" (%d samples skipped)", st.Skipped))
			}
			b.WriteString("\n")
		}
	}

	if len(o.SkippedStudies) > 0 || len(o.SkippedSamples) > 0 {
		b.WriteString("\n[SKIPPED]\n")
		for _, sk := range o.SkippedStudies {
			b.WriteString(fmt.Sprintf("- study %s: %s\n", safeName(sk.Study), sk.Reason))
		}
		for _, sk := range o.SkippedSamples {
			b.WriteString(fmt.Sprintf("- sample %s / %s: %s\n", safeName(sk.Study), safeName(sk.Sample), sk.Reason))
		}
	}

	notes := append(append([]string(nil), d.Notes...), o.Warnings...)
	if len(notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, n := range notes {
			b.WriteString("- ")
			b.WriteString(n)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// TableMarkdown renders rows as a Markdown table.
func TableMarkdown(rows []melt.Row) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(ResultColumns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(ResultColumns)) + "\n")
	for _, r := range rows {
		cells := []string{safeVal(r.Study), safeVal(r.Sample), safeVal(r.Element),
			num(r.Cpx), num(r.Kd), num(r.Melt), num(r.PM), num(r.Normalized)}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

// StatisticsMarkdown renders per-element statistics as a Markdown table.
func StatisticsMarkdown(st []StatRow) string {
	var b strings.Builder
	b.WriteString("| Study | Element | n | Mean | Median | Std | Min | Max |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- |\n")
	for _, s := range st {
		b.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %s | %s | %s | %s |\n",
			safeVal(s.Study), safeVal(s.Element), s.Count, num(s.Mean), num(s.Median), num(s.Std), num(s.Min), num(s.Max)))
	}
	return b.String()
}

// WriteMarkdown writes the summary followed by the statistics and the long
// results table.
func WriteMarkdown(path string, d *Data) error {
	rows, err := d.results().Table(d.Table)
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString(Markdown(d))
	b.WriteString("\n[STATISTICS]\n")
	b.WriteString(StatisticsMarkdown(Statistics(rows)))
	b.WriteString("\n[RESULTS]\n")
	b.WriteString(TableMarkdown(rows))
	return utils.SafeWriteFile(path, []byte(b.String()))
}

func describe(source, provenance string) string {
	if provenance == "" || provenance == source {
		return safeName(source)
	}
	return fmt.Sprintf("%s (%s)", safeName(source), provenance)
}

func num(x float64) string {
	if flag := nonFinite(x); flag != "" {
		return flag
	}
	return fmt.Sprintf("%.4g", x)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

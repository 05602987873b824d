package classify

import (
	"context"
	"testing"

	"github.com/KaramelBytes/cpxmelt-cli/internal/melt"
	"github.com/KaramelBytes/cpxmelt-cli/internal/workbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sheet(name string, rows ...[]string) *workbook.Sheet {
	return &workbook.Sheet{Name: name, Format: workbook.FormatXLSX, Rows: rows}
}

func sampleWorkbook() *workbook.Workbook {
	return &workbook.Workbook{Sheets: []*workbook.Sheet{
		sheet("Smith 2020",
			[]string{"Element", "X1", "X2", ""},
			[]string{"La", "10", "n.d.", ""},
			[]string{"Ce", "20", "4", ""},
			[]string{"Nd", "", "", ""},
		),
		sheet("Kd values",
			[]string{"Element", "Grassi et al. 2012"},
			[]string{"La", "0.5"},
			[]string{"Ce", "2"},
			[]string{"Yb", "bdl"},
		),
		sheet("Primitive Mantle",
			[]string{"Element", "McDonough & Sun 1995"},
			[]string{"La", "0.2"},
			[]string{"Ce", "0.5"},
		),
		sheet("References", []string{"Grassi D. et al.", "2012", "Lithos"}, []string{"McDonough W.F."}),
		sheet("Empty"),
	}}
}

func TestKindOfPrecedence(t *testing.T) {
	r := DefaultRules()
	cases := map[string]Kind{
		"Kd":                  KindCoefficients,
		"Partition coeffs":    KindCoefficients,
		"PM normalizing (Kd)": KindCoefficients,
		"Chondrite":           KindNormalizing,
		"PRIMITIVE MANTLE":    KindNormalizing,
		"Refs":                KindReferences,
		"Citations":           KindReferences,
		"Smith et al. 2020":   KindStudy,
	}
	for name, want := range cases {
		assert.Equal(t, want, KindOf(name, r), name)
	}
}

func TestProvenance(t *testing.T) {
	r := DefaultRules()
	assert.Equal(t, "Grassi et al. (2012)", Provenance(r.KdProvenance, "GRASSI 2012"))
	assert.Equal(t, "McDonough & Sun (1995)", Provenance(r.NormProvenance, "PM", "mcdonough sheet"))
	assert.Equal(t, UnknownProvenance, Provenance(r.KdProvenance, "Hart & Dunn"))
	assert.Equal(t, UnknownProvenance, Provenance(nil, "anything"))
}

func TestClassifyWorkbook(t *testing.T) {
	res := Classify(sampleWorkbook(), DefaultRules(), workbook.DefaultOptions(), nil)

	require.Len(t, res.Studies, 1)
	st := res.Studies[0]
	assert.Equal(t, "Smith 2020", st.Name)
	assert.Equal(t, []string{"La", "Ce"}, st.Elements, "rows without any value are dropped")
	assert.Equal(t, []string{"X1", "X2"}, st.SampleNames, "blank columns are dropped")
	x2, ok := st.Sample("X2")
	require.True(t, ok)
	assert.False(t, x2.Has("La"))
	assert.Equal(t, 4.0, x2.Value("Ce"))

	assert.Equal(t, "Grassi et al. 2012", res.Coefficients.Source)
	assert.Equal(t, "Grassi et al. (2012)", res.Coefficients.Provenance)
	assert.Equal(t, 2, res.Coefficients.Len(), "absent Kd entries are dropped")
	assert.Equal(t, "McDonough & Sun (1995)", res.Normalizing.Provenance)

	require.Len(t, res.References, 1)
	assert.Equal(t, []string{"Grassi D. et al. 2012 Lithos", "McDonough W.F."}, res.References[0].Lines)
	assert.Equal(t, []string{"Empty"}, res.Unrecognized)

	kinds := make([]string, len(res.Sheets))
	for i, s := range res.Sheets {
		kinds[i] = s.KindName
	}
	assert.Equal(t, []string{"study", "kd", "normalizing", "references", "unrecognized"}, kinds)
	assert.Empty(t, res.Warnings)
}

func TestClassifyFeedsBatchRun(t *testing.T) {
	res := Classify(sampleWorkbook(), DefaultRules(), workbook.DefaultOptions(), nil)
	out, err := melt.Run(context.Background(), res.Input(), melt.RunOptions{})
	require.NoError(t, err)

	r, ok := out.Results.Get("Smith 2020", "X1")
	require.True(t, ok)
	assert.InDelta(t, 20, r.Melt.Value("La"), 1e-12)
	assert.InDelta(t, 100, r.Normalized.Value("La"), 1e-9)
	assert.InDelta(t, 20, r.Normalized.Value("Ce"), 1e-9)
}

func TestClassifyLastCoefficientSheetWins(t *testing.T) {
	wb := &workbook.Workbook{Sheets: []*workbook.Sheet{
		sheet("Kd A", []string{"El", "first"}, []string{"La", "1"}),
		sheet("Kd B", []string{"El", "second"}, []string{"La", "2"}),
		sheet("Kd C", []string{"El"}),
	}}
	res := Classify(wb, DefaultRules(), workbook.DefaultOptions(), nil)
	assert.Equal(t, "second", res.Coefficients.Source)
	assert.Equal(t, UnknownProvenance, res.Coefficients.Provenance)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], `"Kd B" replaces "Kd A"`)
	assert.Equal(t, []string{"Kd C"}, res.Unrecognized)
	assert.True(t, res.Normalizing.Empty())
}

func TestClassifyStudyEdgeCases(t *testing.T) {
	wb := &workbook.Workbook{Sheets: []*workbook.Sheet{
		sheet("Dups",
			[]string{"Element", "X", "X", ""},
			[]string{"La", "1", "2", "3"},
			[]string{" La ", "5", "", ""},
		),
		sheet("Only elements", []string{"Element"}, []string{"La"}, []string{"Ce"}),
		sheet("Renamed clash",
			[]string{"Element", "X", "X", "X.1"},
			[]string{"La", "1", "2", "3"},
		),
	}}
	res := Classify(wb, DefaultRules(), workbook.DefaultOptions(), nil)
	require.Len(t, res.Studies, 3)

	d := res.Studies[0]
	assert.Equal(t, []string{"X", "X.1", "Unnamed 3"}, d.SampleNames)
	assert.Equal(t, []string{"La"}, d.Elements)
	x, _ := d.Sample("X")
	assert.Equal(t, 5.0, x.Value("La"), "last duplicate row wins")
	require.Len(t, res.Warnings, 4)
	assert.Contains(t, res.Warnings[0], `renamed to "X.1"`)
	assert.Contains(t, res.Warnings[1], `element "La" more than once`)

	o := res.Studies[1]
	assert.Equal(t, []string{"La", "Ce"}, o.Elements)
	assert.Empty(t, o.SampleNames)

	clash := res.Studies[2]
	assert.Equal(t, []string{"X", "X.1", "X.1.1"}, clash.SampleNames, "every column keeps its own sample")
	for name, want := range map[string]float64{"X": 1, "X.1": 2, "X.1.1": 3} {
		v, ok := clash.Sample(name)
		require.True(t, ok, name)
		assert.Equal(t, want, v.Value("La"), name)
	}
	assert.Contains(t, res.Warnings[2], `"X"; renamed to "X.1"`)
	assert.Contains(t, res.Warnings[3], `"X.1"; renamed to "X.1.1"`)

	_, err := melt.Run(context.Background(), res.Input(), melt.RunOptions{})
	var fatal *melt.FatalInputError
	assert.ErrorAs(t, err, &fatal, "no Kd table in this workbook")
}

func TestClassifyCustomKeywords(t *testing.T) {
	r := DefaultRules()
	r.KdKeywords = []string{"d-values"}
	assert.Equal(t, KindStudy, KindOf("Kd", r))
	assert.Equal(t, KindCoefficients, KindOf("My D-Values", r))
}

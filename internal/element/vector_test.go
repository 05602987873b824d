package element

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorSetKeepsFirstPositionLastValue(t *testing.T) {
	v := NewVector()
	v.Set("La", 1)
	v.Set("Ce", 2)
	v.Set(" La ", 3)

	assert.Equal(t, []string{"La", "Ce"}, v.Symbols())
	x, ok := v.Get("La")
	require.True(t, ok)
	assert.Equal(t, 3.0, x)
}

func TestVectorAbsentIsNotZero(t *testing.T) {
	v := VectorOf([]string{"La", "Ce", "Nd"}, []float64{0, Absent()})

	x, ok := v.Get("La")
	assert.True(t, ok)
	assert.Zero(t, x)

	_, ok = v.Get("Ce")
	assert.False(t, ok, "NaN must read as absent")
	_, ok = v.Get("Nd")
	assert.False(t, ok, "missing trailing value must read as absent")
	_, ok = v.Get("Sm")
	assert.False(t, ok)

	assert.Equal(t, []string{"La"}, v.Present())
	assert.Equal(t, 3, v.Len())
}

func TestVectorIgnoresEmptySymbols(t *testing.T) {
	v := NewVector()
	v.Set("", 1)
	v.Set("   ", 2)
	assert.Zero(t, v.Len())
}

func TestVectorProjectAndClone(t *testing.T) {
	v := VectorOf([]string{"La", "Ce", "Nd"}, []float64{1, 2, 3})
	p := v.Project([]string{"Nd", "Yb", "La"})
	assert.Equal(t, []string{"Nd", "Yb", "La"}, p.Symbols())
	assert.True(t, IsAbsent(p.Value("Yb")))
	assert.Equal(t, 3.0, p.Value("Nd"))

	c := v.Clone()
	c.Set("La", 99)
	assert.Equal(t, 1.0, v.Value("La"), "clone must not alias the source")
}

func TestNilVectorIsEmpty(t *testing.T) {
	var v *Vector
	assert.Zero(t, v.Len())
	assert.Nil(t, v.Present())
	assert.False(t, v.Has("La"))
	assert.True(t, IsAbsent(v.Value("La")))
}

func TestStudyAddSampleReplacesInPlace(t *testing.T) {
	s := NewStudy("S1")
	s.AddElement("La")
	s.AddElement("Ce")
	s.AddElement("La")
	s.AddSample("X1", VectorOf([]string{"La"}, []float64{1}))
	s.AddSample("X2", VectorOf([]string{"La"}, []float64{2}))
	s.AddSample("X1", VectorOf([]string{"La"}, []float64{3}))

	assert.Equal(t, []string{"La", "Ce"}, s.Elements)
	assert.Equal(t, []string{"X1", "X2"}, s.SampleNames)
	x1, ok := s.Sample("X1")
	require.True(t, ok)
	assert.Equal(t, 3.0, x1.Value("La"))
}

func TestTablesCopyValues(t *testing.T) {
	src := VectorOf([]string{"La"}, []float64{0.5})
	kd := NewCoefficientTable("Grassi", src)
	src.Set("La", 7)

	x, ok := kd.Lookup("La")
	require.True(t, ok)
	assert.Equal(t, 0.5, x)
	assert.Equal(t, 1, kd.Len())
	assert.False(t, kd.Empty())
	assert.True(t, NormalizingTable{}.Empty())
}

func TestValidateDivisors(t *testing.T) {
	v := VectorOf(
		[]string{"La", "Ce", "Nd", "Sm", "Eu"},
		[]float64{0.5, 0, -1, math.Inf(1), Absent()},
	)
	issues := ValidateDivisors(v)
	require.Len(t, issues, 3)
	assert.Equal(t, "Ce", issues[0].Element)
	assert.Equal(t, "Nd", issues[1].Element)
	assert.Equal(t, "Sm", issues[2].Element)
	assert.Equal(t, "Ce=0", issues[0].String())
}

// FuzzVectorInvariants feeds arbitrary "sym=value" lists and checks that
// symbols stay unique, later writes win and absent values never leak as present.
func FuzzVectorInvariants(f *testing.F) {
	f.Add("La=1;Ce=2;La=3")
	f.Add("")
	f.Add("La=NaN;Ce=NaN")
	f.Add(";;=;La=")
	f.Fuzz(func(t *testing.T, raw string) {
		v := NewVector()
		last := map[string]float64{}
		for _, part := range strings.Split(raw, ";") {
			sym, val, _ := strings.Cut(part, "=")
			x := Absent()
			if val != "" {
				x = float64(len(val))
				if val == "NaN" {
					x = Absent()
				}
			}
			v.Set(sym, x)
			if s := Symbol(sym); s != "" {
				last[s] = x
			}
		}
		seen := map[string]bool{}
		for _, s := range v.Symbols() {
			if seen[s] {
				t.Fatalf("duplicate symbol %q", s)
			}
			seen[s] = true
		}
		if len(seen) != len(last) {
			t.Fatalf("symbols = %d, want %d", len(seen), len(last))
		}
		for s, want := range last {
			got, ok := v.Get(s)
			if IsAbsent(want) {
				if ok {
					t.Fatalf("%s: absent value reported present", s)
				}
				continue
			}
			if !ok || got != want {
				t.Fatalf("%s = %v (%v), want %v", s, got, ok, want)
			}
		}
	})
}

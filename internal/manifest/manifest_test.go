package manifest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KaramelBytes/cpxmelt-cli/internal/element"
	"github.com/KaramelBytes/cpxmelt-cli/internal/manifest"
	"github.com/KaramelBytes/cpxmelt-cli/internal/melt"
)

func outcome(t *testing.T) *melt.Outcome {
	t.Helper()
	syms := []string{"La", "Ce"}
	kd := element.NewCoefficientTable("Grassi", element.VectorOf(syms, []float64{0.5, 2}))
	kd.Provenance = "Grassi et al. (2012)"
	pm := element.NewNormalizingTable("PM", element.VectorOf(syms, []float64{0.2, 0.5}))
	st := element.NewStudy("S1")
	st.AddElement("La")
	st.AddElement("Ce")
	st.AddSample("X1", element.VectorOf(syms, []float64{10, 20}))
	st.AddSample("X2", element.VectorOf(syms, []float64{element.Absent(), element.Absent()}))
	out, err := melt.Run(context.Background(), melt.Input{Studies: []*element.Study{st}, Coefficients: kd, Normalizing: pm}, melt.RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return out
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "melt.xlsx")
	m := manifest.New("input.xlsx", out, "xlsx")
	m.Record(outcome(t))
	if m.ID == "" {
		t.Fatalf("expected a run id")
	}
	if err := m.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if m.Path() != out+manifest.Suffix {
		t.Fatalf("unexpected path %s", m.Path())
	}

	got, err := manifest.Load(m.Path())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != m.ID || got.TotalSamples != 1 || got.StudyCount != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Kd.Provenance != "Grassi et al. (2012)" || got.Kd.Elements != 2 {
		t.Fatalf("kd not recorded: %+v", got.Kd)
	}
	if len(got.SkippedSamples) != 1 || got.SkippedSamples[0].Sample != "X2" {
		t.Fatalf("skipped samples not recorded: %+v", got.SkippedSamples)
	}
	if got.FinishedAt.IsZero() {
		t.Fatalf("finished_at not set")
	}
}

func TestListOrdersByStart(t *testing.T) {
	dir := t.TempDir()
	older := manifest.New("a.xlsx", filepath.Join(dir, "a.xlsx"), "xlsx")
	older.StartedAt = time.Now().Add(-time.Hour)
	newer := manifest.New("b.xlsx", filepath.Join(dir, "b.csv"), "csv")
	for _, m := range []*manifest.Manifest{newer, older} {
		if err := m.Save(); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "broken"+manifest.Suffix), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	ms, errs := manifest.List(dir)
	if len(ms) != 2 {
		t.Fatalf("expected 2 manifests, got %d", len(ms))
	}
	if ms[0].ID != older.ID || ms[1].ID != newer.ID {
		t.Fatalf("manifests not ordered by start time")
	}
	if len(errs) != 1 {
		t.Fatalf("expected one load error, got %v", errs)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := manifest.Load(filepath.Join(t.TempDir(), "nope.run.json")); err == nil {
		t.Fatalf("expected error for missing manifest")
	}
	if _, errs := manifest.List(filepath.Join(t.TempDir(), "absent")); len(errs) == 0 {
		t.Fatalf("expected error for missing dir")
	}
}

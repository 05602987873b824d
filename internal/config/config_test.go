package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Workers != 1 || c.StrictCoefficients {
		t.Fatalf("unexpected run defaults: %+v", c)
	}
	if !reflect.DeepEqual(c.KdKeywords, []string{"kd", "partition", "coefficient"}) {
		t.Fatalf("kd keywords: %v", c.KdKeywords)
	}
	if c.KdProvenance["grassi"] != "Grassi et al. (2012)" {
		t.Fatalf("kd provenance: %v", c.KdProvenance)
	}
	opt := c.WorkbookOptions()
	if opt.DecimalSeparator != 0 || len(opt.AbsentMarkers) == 0 {
		t.Fatalf("workbook options: %+v", opt)
	}
	if c.LogLevel != "warn" {
		t.Fatalf("log level: %s", c.LogLevel)
	}
}

func TestSaveThenLoadFileAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c.Workers = 4
	c.DecimalSeparator = ","
	c.ThousandsSeparator = "space"
	c.NormKeywords = []string{"ci chondrite"}
	if err := Save(c, ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".cpxmelt", "config.yaml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	got, err := Load("")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Workers != 4 || !reflect.DeepEqual(got.NormKeywords, []string{"ci chondrite"}) {
		t.Fatalf("file values not applied: %+v", got)
	}
	opt := got.WorkbookOptions()
	if opt.DecimalSeparator != ',' || opt.ThousandsSeparator != ' ' {
		t.Fatalf("separators: %q %q", opt.DecimalSeparator, opt.ThousandsSeparator)
	}

	t.Setenv("CPXMELT_WORKERS", "2")
	t.Setenv("CPXMELT_STRICT_COEFFICIENTS", "true")
	got, err = Load("")
	if err != nil {
		t.Fatalf("reload with env: %v", err)
	}
	if got.Workers != 2 || !got.StrictCoefficients {
		t.Fatalf("env not applied: workers=%d strict=%v", got.Workers, got.StrictCoefficients)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "custom.yaml")
	body := "kd_keywords: [\"d-values\"]\nkd_provenance:\n  hart: Hart & Dunn (1993)\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	r := c.Rules()
	if !reflect.DeepEqual(r.KdKeywords, []string{"d-values"}) {
		t.Fatalf("kd keywords: %v", r.KdKeywords)
	}
	if r.KdProvenance["hart"] != "Hart & Dunn (1993)" {
		t.Fatalf("kd provenance: %v", r.KdProvenance)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for a missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		c    Global
		ok   bool
	}{
		{"defaults", Global{}, true},
		{"tab", Global{ThousandsSeparator: "tab"}, true},
		{"negative workers", Global{Workers: -1}, false},
		{"long separator", Global{DecimalSeparator: "::"}, false},
	}
	for _, tc := range cases {
		err := tc.c.Validate()
		if (err == nil) != tc.ok {
			t.Fatalf("%s: got err=%v", tc.name, err)
		}
	}
}

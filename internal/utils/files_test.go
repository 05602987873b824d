package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.json")
	if err := SafeWriteFile(path, []byte("{}")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "{}" {
		t.Fatalf("unexpected content %q (%v)", b, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestDefaultOutputPath(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		input, ext, want string
	}{
		{filepath.Join(dir, "cpx.xlsx"), ".xlsx", filepath.Join(dir, "cpx_melt.xlsx")},
		{filepath.Join(dir, "cpx.data.csv"), ".db", filepath.Join(dir, "cpx.data_melt.db")},
		{dir, ".csv", filepath.Join(dir, filepath.Base(dir)+"_melt.csv")},
	}
	for _, c := range cases {
		if got := DefaultOutputPath(c.input, c.ext); got != c.want {
			t.Fatalf("DefaultOutputPath(%q, %q) = %q, want %q", c.input, c.ext, got, c.want)
		}
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "{\n  \"a\": 1\n}" {
		t.Fatalf("unexpected json %q", b)
	}
}

// Package manifest records what a run read, produced and skipped, next to its
// output file.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/cpxmelt-cli/internal/melt"
	"github.com/KaramelBytes/cpxmelt-cli/internal/utils"
	"github.com/google/uuid"
)

// Suffix is appended to the output path to name the manifest.
const Suffix = ".run.json"

// Table describes the Kd or normalizing table a run used.
type Table struct {
	Source     string `json:"source"`
	Provenance string `json:"provenance,omitempty"`
	Elements   int    `json:"elements"`
}

// Manifest is the persisted record of one run.
type Manifest struct {
	ID             string               `json:"id"`
	Input          string               `json:"input"`
	Output         string               `json:"output"`
	Format         string               `json:"format"`
	Strict         bool                 `json:"strict"`
	Workers        int                  `json:"workers"`
	Kd             Table                `json:"kd"`
	Normalizing    Table                `json:"normalizing"`
	StudyCount     int                  `json:"study_count"`
	TotalSamples   int                  `json:"total_samples"`
	Elements       []string             `json:"elements"`
	Studies        []melt.StudyReport   `json:"studies"`
	SkippedStudies []melt.SkippedStudy  `json:"skipped_studies,omitempty"`
	SkippedSamples []melt.SkippedSample `json:"skipped_samples,omitempty"`
	Anomalies      int                  `json:"anomalies"`
	Warnings       []string             `json:"warnings,omitempty"`
	StartedAt      time.Time            `json:"started_at"`
	FinishedAt     time.Time            `json:"finished_at"`

	// Not serialized: where the manifest was loaded from or saved to.
	path string `json:"-"`
}

// New starts a manifest for a run reading input and writing output.
func New(input, output, format string) *Manifest {
	return &Manifest{
		ID:        uuid.NewString(),
		Input:     input,
		Output:    output,
		Format:    format,
		StartedAt: time.Now(),
	}
}

// PathFor returns the manifest path for an output file.
func PathFor(output string) string { return output + Suffix }

// Path returns the on-disk manifest location.
func (m *Manifest) Path() string {
	if m.path != "" {
		return m.path
	}
	return PathFor(m.Output)
}

// Record copies the outcome of a run into m.
func (m *Manifest) Record(out *melt.Outcome) {
	if out == nil {
		return
	}
	m.Studies = out.Studies
	m.SkippedStudies = out.SkippedStudies
	m.SkippedSamples = out.SkippedSamples
	m.Anomalies = out.Anomalies
	m.Warnings = append(m.Warnings, out.Warnings...)
	if out.Results == nil {
		return
	}
	s := out.Results.Summary()
	m.StudyCount = s.StudyCount
	m.TotalSamples = s.TotalSamples
	m.Elements = s.Elements
	kd, pm := out.Results.Coefficients(), out.Results.Normalizing()
	m.Kd = Table{Source: kd.Source, Provenance: kd.Provenance, Elements: kd.Len()}
	m.Normalizing = Table{Source: pm.Source, Provenance: pm.Provenance, Elements: pm.Len()}
}

// Save writes the manifest using atomic write.
func (m *Manifest) Save() error {
	if m.Output == "" && m.path == "" {
		return errors.New("manifest output path not set")
	}
	if m.FinishedAt.IsZero() {
		m.FinishedAt = time.Now()
	}
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return err
	}
	path := m.Path()
	if err := utils.SafeWriteFile(path, data); err != nil {
		return err
	}
	m.path = path
	return nil
}

// Load reads a manifest file.
func Load(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", filepath.Base(path), err)
	}
	m.path = path
	return &m, nil
}

// List loads every manifest in dir, oldest first. Unreadable files are
// returned as errors alongside the manifests that did load.
func List(dir string) ([]*Manifest, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("read dir: %w", err)}
	}
	var out []*Manifest
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Suffix) {
			continue
		}
		m, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, errs
}

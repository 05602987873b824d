package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/cpxmelt-cli/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// RunRecord is one run stored in the database.
type RunRecord struct {
	ID             string    `gorm:"column:id;primaryKey" json:"id"`
	Input          string    `gorm:"column:input" json:"input"`
	KdSource       string    `gorm:"column:kd_source" json:"kd_source"`
	KdProvenance   string    `gorm:"column:kd_provenance" json:"kd_provenance"`
	PMSource       string    `gorm:"column:pm_source" json:"pm_source"`
	PMProvenance   string    `gorm:"column:pm_provenance" json:"pm_provenance"`
	Studies        int       `gorm:"column:studies;not null;default:0" json:"studies"`
	Samples        int       `gorm:"column:samples;not null;default:0" json:"samples"`
	Elements       int       `gorm:"column:elements;not null;default:0" json:"elements"`
	SkippedStudies int       `gorm:"column:skipped_studies;not null;default:0" json:"skipped_studies"`
	SkippedSamples int       `gorm:"column:skipped_samples;not null;default:0" json:"skipped_samples"`
	Anomalies      int       `gorm:"column:anomalies;not null;default:0" json:"anomalies"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (RunRecord) TableName() string { return "runs" }

// ResultRecord is one row of the long table. Non-finite numbers are stored as
// NULL and named in Flag, e.g. "melt_concentration=inf".
type ResultRecord struct {
	ID         uint     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RunID      string   `gorm:"column:run_id;not null;index" json:"run_id"`
	Study      string   `gorm:"column:study;not null;index" json:"study"`
	Sample     string   `gorm:"column:sample;not null" json:"sample"`
	Element    string   `gorm:"column:element;not null;index" json:"element"`
	Position   int      `gorm:"column:position;not null" json:"position"`
	Cpx        *float64 `gorm:"column:cpx_concentration" json:"cpx_concentration"`
	Kd         *float64 `gorm:"column:kd_value" json:"kd_value"`
	Melt       *float64 `gorm:"column:melt_concentration" json:"melt_concentration"`
	PM         *float64 `gorm:"column:pm_normalizing_value" json:"pm_normalizing_value"`
	Normalized *float64 `gorm:"column:pm_normalized" json:"pm_normalized"`
	Flag       string   `gorm:"column:flag" json:"flag,omitempty"`
}

func (ResultRecord) TableName() string { return "melt_results" }

// OpenDB opens (creating if needed) a results database and migrates it.
func OpenDB(path string) (*gorm.DB, error) {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&RunRecord{}, &ResultRecord{}); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// WriteSQLite appends the run and its rows to the database at path. Several
// runs can share one database; rows are keyed by run id.
func WriteSQLite(path string, d *Data) error {
	rows, err := d.results().Table(d.Table)
	if err != nil {
		return err
	}
	db, err := OpenDB(path)
	if err != nil {
		return err
	}
	defer closeDB(db)

	s := d.results().Summary()
	created := d.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	run := RunRecord{
		ID:             d.RunID,
		Input:          d.InputPath,
		KdSource:       s.KdSource,
		KdProvenance:   s.KdProvenance,
		PMSource:       s.PMSource,
		PMProvenance:   s.PMProvenance,
		Studies:        s.StudyCount,
		Samples:        s.TotalSamples,
		Elements:       len(s.Elements),
		SkippedStudies: len(d.Outcome.SkippedStudies),
		SkippedSamples: len(d.Outcome.SkippedSamples),
		Anomalies:      d.Outcome.Anomalies,
		CreatedAt:      created,
	}
	if run.ID == "" {
		run.ID = fmt.Sprintf("run-%d", created.UnixNano())
	}

	recs := make([]ResultRecord, len(rows))
	for i, r := range rows {
		rec := ResultRecord{RunID: run.ID, Study: r.Study, Sample: r.Sample, Element: r.Element, Position: i}
		var flags []string
		rec.Cpx = nullable(r.Cpx, "cpx_concentration", &flags)
		rec.Kd = nullable(r.Kd, "kd_value", &flags)
		rec.Melt = nullable(r.Melt, "melt_concentration", &flags)
		rec.PM = nullable(r.PM, "pm_normalizing_value", &flags)
		rec.Normalized = nullable(r.Normalized, "pm_normalized", &flags)
		rec.Flag = strings.Join(flags, ",")
		recs[i] = rec
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		if len(recs) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&recs, 500).Error; err != nil {
			return fmt.Errorf("insert results: %w", err)
		}
		return nil
	})
}

func nullable(x float64, column string, flags *[]string) *float64 {
	if flag := nonFinite(x); flag != "" {
		*flags = append(*flags, column+"="+flag)
		return nil
	}
	return &x
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

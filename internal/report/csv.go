package report

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/KaramelBytes/cpxmelt-cli/internal/melt"
	"github.com/KaramelBytes/cpxmelt-cli/internal/utils"
)

// EncodeCSV renders rows as CSV with a header line.
func EncodeCSV(rows []melt.Row) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(ResultColumns); err != nil {
		return nil, err
	}
	for _, r := range rows {
		rec := []string{r.Study, r.Sample, r.Element,
			FormatValue(r.Cpx), FormatValue(r.Kd), FormatValue(r.Melt), FormatValue(r.PM), FormatValue(r.Normalized)}
		if err := cw.Write(rec); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteCSV writes the long results table.
func WriteCSV(path string, d *Data) error {
	rows, err := d.results().Table(d.Table)
	if err != nil {
		return err
	}
	b, err := EncodeCSV(rows)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, b)
}

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/KaramelBytes/cpxmelt-cli/internal/classify"
	cfgpkg "github.com/KaramelBytes/cpxmelt-cli/internal/config"
	"github.com/KaramelBytes/cpxmelt-cli/internal/melt"
	"github.com/KaramelBytes/cpxmelt-cli/internal/workbook"
)

// classifyInput opens a workbook, file or directory and sorts its sheets into
// roles.
func classifyInput(c *cfgpkg.Global, path string) (*classify.Result, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("input not found: %w", err)
	}
	opt := c.WorkbookOptions()
	wb, err := workbook.Open(path, opt)
	if err != nil {
		return nil, err
	}
	appLog.Debug("workbook opened", "path", path, "sheets", len(wb.Sheets))
	return classify.Classify(wb, c.Rules(), opt, appLog), nil
}

type runSettings struct {
	workers  int
	strict   bool
	progress func(done, total int, study string, samples int)
}

// derive runs the batch driver on a classified input.
func derive(ctx context.Context, res *classify.Result, rs runSettings) (*melt.Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return melt.Run(ctx, res.Input(), melt.RunOptions{
		Workers:  rs.workers,
		Strict:   rs.strict,
		Log:      appLog,
		Progress: rs.progress,
	})
}

func printWarnings(lines []string) {
	for _, w := range lines {
		fmt.Printf("⚠ %s\n", w)
	}
}

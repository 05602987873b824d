package cmd

import (
	"fmt"

	"github.com/KaramelBytes/cpxmelt-cli/internal/melt"
	"github.com/KaramelBytes/cpxmelt-cli/internal/report"
	"github.com/spf13/cobra"
)

var (
	tableStudy      string
	tableInputOrder bool
	tableCSV        bool
	tableStats      bool
)

var tableCmd = &cobra.Command{
	Use:   "table <input>",
	Short: "Print the long result table (one row per study, sample and element)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		res, err := classifyInput(c, args[0])
		if err != nil {
			return err
		}
		out, err := derive(cmd.Context(), res, runSettings{workers: c.Workers, strict: c.StrictCoefficients})
		if err != nil {
			return err
		}
		rows, err := out.Results.Table(melt.TableOptions{Study: tableStudy, InputOrder: tableInputOrder})
		if err != nil {
			return err
		}
		switch {
		case tableStats:
			fmt.Print(report.StatisticsMarkdown(report.Statistics(rows)))
		case tableCSV:
			b, err := report.EncodeCSV(rows)
			if err != nil {
				return err
			}
			fmt.Print(string(b))
		default:
			fmt.Print(report.TableMarkdown(rows))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tableCmd)
	tableCmd.Flags().StringVar(&tableStudy, "study", "", "only rows of this study")
	tableCmd.Flags().BoolVar(&tableInputOrder, "input-order", false, "keep studies and samples in input order instead of sorting by name")
	tableCmd.Flags().BoolVar(&tableCSV, "csv", false, "print CSV instead of Markdown")
	tableCmd.Flags().BoolVar(&tableStats, "stats", false, "print per-element statistics of the normalized values")
}

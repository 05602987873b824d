package cmd

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/cpxmelt-cli/internal/manifest"
	"github.com/KaramelBytes/cpxmelt-cli/internal/melt"
	"github.com/KaramelBytes/cpxmelt-cli/internal/report"
	"github.com/KaramelBytes/cpxmelt-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	runOutput     string
	runFormat     string
	runStudy      string
	runWorkers    int
	runStrict     bool
	runInputOrder bool
	runNoManifest bool
	runQuiet      bool
)

var runCmd = &cobra.Command{
	Use:   "run <input>",
	Short: "Derive melt compositions for every study in a workbook, CSV file or directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		input := args[0]
		started := time.Now()

		output := runOutput
		if output == "" {
			output = c.OutputFile
		}
		var f report.Format
		if output == "" {
			f = report.FormatXLSX
			if runFormat != "" {
				if f, err = report.ParseFormat(runFormat); err != nil {
					return err
				}
			}
			output = utils.DefaultOutputPath(input, f.Ext())
		} else if f, err = report.FormatFor(output, runFormat); err != nil {
			return err
		}

		res, err := classifyInput(c, input)
		if err != nil {
			return err
		}
		if !runQuiet {
			printWarnings(res.Warnings)
		}

		rs := runSettings{workers: c.Workers, strict: c.StrictCoefficients || runStrict}
		if cmd.Flags().Changed("workers") {
			rs.workers = runWorkers
		}
		if !runQuiet {
			rs.progress = func(done, total int, study string, samples int) {
				fmt.Printf("[%d/%d] %s: %d samples\n", done, total, study, samples)
			}
		}
		out, err := derive(cmd.Context(), res, rs)
		if err != nil {
			return err
		}

		m := manifest.New(input, output, string(f))
		m.StartedAt = started
		m.Strict = rs.strict
		m.Workers = rs.workers
		data := &report.Data{
			RunID:      m.ID,
			InputPath:  input,
			CreatedAt:  started,
			Outcome:    out,
			Studies:    res.Studies,
			References: res.References,
			Notes:      res.Warnings,
			Table:      melt.TableOptions{Study: runStudy, InputOrder: runInputOrder},
		}
		if err := report.Write(output, f, data); err != nil {
			return err
		}
		appLog.Info("report written", "path", output, "format", string(f), "run", m.ID)

		if !runNoManifest {
			m.Warnings = append(m.Warnings, res.Warnings...)
			m.Record(out)
			if err := m.Save(); err != nil {
				return fmt.Errorf("save run manifest: %w", err)
			}
		}

		s := out.Results.Summary()
		if !runQuiet {
			fmt.Println()
			fmt.Print(report.Markdown(data))
			fmt.Println()
		}
		fmt.Printf("✓ Processed %d studies, %d samples\n", s.StudyCount, s.TotalSamples)
		if !runQuiet {
			fmt.Printf("✓ Wrote %s\n", output)
			if !runNoManifest {
				fmt.Printf("✓ Run manifest %s\n", m.Path())
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "output file (default <input>_melt.xlsx; extension picks the format)")
	runCmd.Flags().StringVar(&runFormat, "format", "", "output format: xlsx | csv | md | sqlite (overrides the extension)")
	runCmd.Flags().StringVar(&runStudy, "study", "", "only export this study")
	runCmd.Flags().IntVar(&runWorkers, "workers", 1, "number of studies derived concurrently (overrides config)")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "reject zero, negative or infinite Kd and normalizing values")
	runCmd.Flags().BoolVar(&runInputOrder, "input-order", false, "keep studies and samples in input order instead of sorting by name")
	runCmd.Flags().BoolVar(&runNoManifest, "no-manifest", false, "do not write <output>.run.json")
	runCmd.Flags().BoolVar(&runQuiet, "quiet", false, "suppress progress and non-essential output")
}

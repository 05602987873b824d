package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/cpxmelt-cli/internal/manifest"
	"github.com/spf13/cobra"
)

var historyVerbose bool

var historyCmd = &cobra.Command{
	Use:   "history [dir]",
	Short: "List run manifests found in a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		if info, err := os.Stat(dir); err != nil {
			return err
		} else if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		runs, errs := manifest.List(dir)
		for _, err := range errs {
			fmt.Printf("⚠ %v\n", err)
		}
		if len(runs) == 0 {
			fmt.Println("(no runs)")
			return nil
		}
		for _, m := range runs {
			fmt.Printf("- %s  %s  %s -> %s (%d studies, %d samples",
				m.StartedAt.Format("2006-01-02 15:04:05"), shortID(m.ID),
				filepath.Base(m.Input), filepath.Base(m.Output), m.StudyCount, m.TotalSamples)
			if n := len(m.SkippedStudies) + len(m.SkippedSamples); n > 0 {
				fmt.Printf(", %d skipped", n)
			}
			fmt.Println(")")
			if historyVerbose {
				fmt.Printf("    kd: %s\n", tableLabel(m.Kd.Source, m.Kd.Provenance, m.Kd.Elements))
				fmt.Printf("    normalizing: %s\n", tableLabel(m.Normalizing.Source, m.Normalizing.Provenance, m.Normalizing.Elements))
				for _, w := range m.Warnings {
					fmt.Printf("    ⚠ %s\n", w)
				}
			}
		}
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVarP(&historyVerbose, "verbose", "v", false, "show tables and warnings of each run")
}

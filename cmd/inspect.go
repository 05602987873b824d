package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/cpxmelt-cli/internal/classify"
	"github.com/KaramelBytes/cpxmelt-cli/internal/report"
	"github.com/KaramelBytes/cpxmelt-cli/internal/utils"
	"github.com/spf13/cobra"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <input>",
	Short: "Show how each sheet of the input was classified",
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
		if inspectJSON {
			b, err := utils.PrettyJSON(inspection(res))
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}

		fmt.Printf("[SHEETS] %s\n", filepath.Base(args[0]))
		for _, sh := range res.Sheets {
			fmt.Printf("- %s: %s", sh.Name, sh.KindName)
			switch sh.Kind {
			case classify.KindStudy:
				fmt.Printf(" (%d elements, %d samples)", sh.Elements, sh.Samples)
			case classify.KindCoefficients, classify.KindNormalizing:
				fmt.Printf(" (%d elements)", sh.Elements)
			}
			if sh.Note != "" {
				fmt.Printf(" [%s]", sh.Note)
			}
			fmt.Println()
		}
		fmt.Println()
		fmt.Printf("Kd: %s\n", tableLabel(res.Coefficients.Source, res.Coefficients.Provenance, res.Coefficients.Len()))
		fmt.Printf("Normalizing: %s\n", tableLabel(res.Normalizing.Source, res.Normalizing.Provenance, res.Normalizing.Len()))
		fmt.Printf("Studies: %d\n", len(res.Studies))
		printWarnings(res.Warnings)
		return nil
	},
}

func tableLabel(source, provenance string, n int) string {
	if n == 0 {
		return "(none)"
	}
	if provenance != "" && provenance != source {
		return fmt.Sprintf("%s (%s), %d elements", source, provenance, n)
	}
	return fmt.Sprintf("%s, %d elements", report.Label(source, provenance), n)
}

type inspectTable struct {
	Source     string `json:"source"`
	Provenance string `json:"provenance,omitempty"`
	Elements   int    `json:"elements"`
}

type inspectReport struct {
	Sheets      []classify.SheetInfo `json:"sheets"`
	Kd          inspectTable         `json:"kd"`
	Normalizing inspectTable         `json:"normalizing"`
	Studies     []string             `json:"studies"`
	Warnings    []string             `json:"warnings,omitempty"`
}

func inspection(res *classify.Result) inspectReport {
	r := inspectReport{
		Sheets:      res.Sheets,
		Kd:          inspectTable{Source: res.Coefficients.Source, Provenance: res.Coefficients.Provenance, Elements: res.Coefficients.Len()},
		Normalizing: inspectTable{Source: res.Normalizing.Source, Provenance: res.Normalizing.Provenance, Elements: res.Normalizing.Len()},
		Studies:     []string{},
		Warnings:    res.Warnings,
	}
	for _, st := range res.Studies {
		r.Studies = append(r.Studies, st.Name)
	}
	return r
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the classification as JSON")
}

package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/cpxmelt-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set cpxmelt configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		fmt.Printf("kd_keywords: %s\n", strings.Join(c.KdKeywords, ", "))
		fmt.Printf("norm_keywords: %s\n", strings.Join(c.NormKeywords, ", "))
		fmt.Printf("ref_keywords: %s\n", strings.Join(c.RefKeywords, ", "))
		fmt.Printf("kd_provenance: %s\n", showTags(c.KdProvenance))
		fmt.Printf("norm_provenance: %s\n", showTags(c.NormProvenance))
		if c.OutputFile != "" {
			fmt.Printf("output_file: %s\n", c.OutputFile)
		}
		fmt.Printf("workers: %d\n", c.Workers)
		fmt.Printf("strict_coefficients: %t\n", c.StrictCoefficients)
		fmt.Printf("decimal_separator: %s\n", orAuto(c.DecimalSeparator))
		fmt.Printf("thousands_separator: %s\n", orAuto(c.ThousandsSeparator))
		fmt.Printf("absent_markers: %s\n", strings.Join(c.AbsentMarkers, ", "))
		fmt.Printf("log_mode: %s\n", c.LogMode)
		fmt.Printf("log_level: %s\n", c.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk.

List keys take comma-separated values (kd_keywords, norm_keywords,
ref_keywords, absent_markers). Provenance keys take "substring=Label" pairs
separated by semicolons, e.g. "grassi=Grassi et al. (2012);hart=Hart & Dunn (1993)".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := settings()
		if err != nil {
			return err
		}
		switch key {
		case "kd_keywords":
			c.KdKeywords = splitList(val)
		case "norm_keywords":
			c.NormKeywords = splitList(val)
		case "ref_keywords":
			c.RefKeywords = splitList(val)
		case "absent_markers":
			c.AbsentMarkers = splitList(val)
		case "kd_provenance", "norm_provenance":
			tags, err := parseTags(val)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			if key == "kd_provenance" {
				c.KdProvenance = tags
			} else {
				c.NormProvenance = tags
			}
		case "output_file":
			c.OutputFile = val
		case "workers":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for workers: %v", val)
			}
			c.Workers = i
		case "strict_coefficients":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for strict_coefficients: %w", err)
			}
			c.StrictCoefficients = b
		case "decimal_separator":
			c.DecimalSeparator = val
		case "thousands_separator":
			c.ThousandsSeparator = val
		case "log_mode":
			switch strings.ToLower(val) {
			case "dev", "prod":
				c.LogMode = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid log_mode: %s (use dev or prod)", val)
			}
		case "log_level":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseTags(s string) (map[string]string, error) {
	tags := map[string]string{}
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.ToLower(strings.TrimSpace(k)), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("expected substring=Label, got %q", pair)
		}
		tags[k] = v
	}
	return tags, nil
}

func showTags(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, "; ")
}

func orAuto(s string) string {
	if s == "" {
		return "auto"
	}
	return s
}

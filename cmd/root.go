package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/cpxmelt-cli/internal/config"
	"github.com/KaramelBytes/cpxmelt-cli/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
	// Diagnostic logger; user-facing output goes through fmt.
	appLog = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "cpxmelt",
	Short: "cpxmelt CLI: equilibrium melt compositions from clinopyroxene analyses",
	Long: `cpxmelt reads a workbook of clinopyroxene trace-element analyses, partition
coefficients (Kd) and normalizing values, derives the equilibrium melt
composition (cpx / Kd) and its normalized pattern (melt / PM) for every sample,
and writes the results as a workbook, CSV, Markdown or SQLite database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	err := rootCmd.Execute()
	appLog.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.cpxmelt/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
	setupLogger()
}

// settings returns the loaded configuration, loading it on first use.
func settings() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	setupLogger()
	return cfg, nil
}

func setupLogger() {
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	l, err := logger.New(cfg.LogMode, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: logger: %v\n", err)
		return
	}
	appLog = l
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/cpxmelt-cli/internal/classify"
	"github.com/KaramelBytes/cpxmelt-cli/internal/workbook"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Sheet classification
	KdKeywords     []string          `mapstructure:"kd_keywords" yaml:"kd_keywords"`
	NormKeywords   []string          `mapstructure:"norm_keywords" yaml:"norm_keywords"`
	RefKeywords    []string          `mapstructure:"ref_keywords" yaml:"ref_keywords"`
	KdProvenance   map[string]string `mapstructure:"kd_provenance" yaml:"kd_provenance"`
	NormProvenance map[string]string `mapstructure:"norm_provenance" yaml:"norm_provenance"`

	// Run defaults
	OutputFile         string `mapstructure:"output_file" yaml:"output_file"`
	Workers            int    `mapstructure:"workers" yaml:"workers"`
	StrictCoefficients bool   `mapstructure:"strict_coefficients" yaml:"strict_coefficients"`

	// Numeric parsing
	DecimalSeparator   string   `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string   `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	AbsentMarkers      []string `mapstructure:"absent_markers" yaml:"absent_markers"`

	// Logging
	LogMode  string `mapstructure:"log_mode" yaml:"log_mode"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Dir returns ~/.cpxmelt.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".cpxmelt"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.cpxmelt/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file (cfgFile or ~/.cpxmelt/config.yaml) > defaults.
// A .env file in the working directory is read first so CPXMELT_* variables
// can live there.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CPXMELT")
	v.AutomaticEnv()

	rules := classify.DefaultRules()
	v.SetDefault("kd_keywords", rules.KdKeywords)
	v.SetDefault("norm_keywords", rules.NormKeywords)
	v.SetDefault("ref_keywords", rules.RefKeywords)
	v.SetDefault("kd_provenance", rules.KdProvenance)
	v.SetDefault("norm_provenance", rules.NormProvenance)
	v.SetDefault("output_file", "")
	v.SetDefault("workers", 1)
	v.SetDefault("strict_coefficients", false)
	v.SetDefault("decimal_separator", "")
	v.SetDefault("thousands_separator", "")
	v.SetDefault("absent_markers", workbook.DefaultAbsentMarkers)
	v.SetDefault("log_mode", "dev")
	v.SetDefault("log_level", "warn")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks value ranges.
func (c *Global) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers: %d (must be >= 0)", c.Workers)
	}
	for key, s := range map[string]string{"decimal_separator": c.DecimalSeparator, "thousands_separator": c.ThousandsSeparator} {
		if _, err := separator(s); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}

// Rules returns the classification rules.
func (c *Global) Rules() classify.Rules {
	return classify.Rules{
		KdKeywords:     c.KdKeywords,
		NormKeywords:   c.NormKeywords,
		RefKeywords:    c.RefKeywords,
		KdProvenance:   c.KdProvenance,
		NormProvenance: c.NormProvenance,
	}
}

// WorkbookOptions returns the numeric parsing options.
func (c *Global) WorkbookOptions() workbook.Options {
	dec, _ := separator(c.DecimalSeparator)
	thou, _ := separator(c.ThousandsSeparator)
	return workbook.Options{
		DecimalSeparator:   dec,
		ThousandsSeparator: thou,
		AbsentMarkers:      c.AbsentMarkers,
	}
}

// separator maps "", "auto" and single characters (plus the words "space"
// and "tab") to a rune; 0 means auto-detect.
func separator(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return 0, nil
	case "space":
		return ' ', nil
	case "tab":
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%q is not a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

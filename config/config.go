package config

import (
	"fmt"
	"math"

	"github.com/spf13/viper"
)

// --- Configuration Structs ---

// Comparison describes the comparison policy for one reconciliation run.
// It is a plain value: the engine receives it explicitly and never reads
// process-wide state.
type Comparison struct {
	// FloatTolerance is the maximum absolute difference treated as equal
	// for numeric cells.
	FloatTolerance float64 `mapstructure:"float_tolerance" yaml:"float_tolerance"`

	// IgnoreCase enables case-insensitive string comparison.
	IgnoreCase bool `mapstructure:"ignore_case" yaml:"ignore_case"`

	// IgnoreWhitespace trims surrounding whitespace before string comparison.
	IgnoreWhitespace bool `mapstructure:"ignore_whitespace" yaml:"ignore_whitespace"`

	// IgnoreColumns are excluded entirely from comparison.
	IgnoreColumns []string `mapstructure:"ignore_columns" yaml:"ignore_columns"`

	// KeyColumns define row identity across the two tables.
	KeyColumns []string `mapstructure:"key_columns" yaml:"key_columns"`
}

// Default returns the comparison policy used when no file is given:
// tight tolerance, whitespace ignored, case respected.
func Default() Comparison {
	return Comparison{
		FloatTolerance:   1e-10,
		IgnoreWhitespace: true,
	}
}

// --- Load Configuration ---

// Load reads a comparison configuration file (YAML or JSON).
// Unrecognized fields are ignored to keep files forward-compatible.
func Load(configPath string) (Comparison, error) {
	v := viper.New()
	v.SetConfigFile(configPath)

	v.SetDefault("float_tolerance", 1e-10)
	v.SetDefault("ignore_whitespace", true)

	if err := v.ReadInConfig(); err != nil {
		return Comparison{}, err
	}

	var cfg Comparison
	if err := v.Unmarshal(&cfg); err != nil {
		return Comparison{}, err
	}

	return cfg, nil
}

// --- Validation ---

// validate is a helper function to reduce repetition.
func validate(condition bool, format string, a ...any) error {
	if !condition {
		return fmt.Errorf(format, a...)
	}
	return nil
}

func (c Comparison) Validate() error {
	if err := validate(!math.IsNaN(c.FloatTolerance), "float tolerance must be a number"); err != nil {
		return err
	}
	if err := validate(c.FloatTolerance >= 0, "float tolerance must be >= 0, got %g", c.FloatTolerance); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.KeyColumns))
	for _, col := range c.KeyColumns {
		if err := validate(col != "", "key column name must not be empty"); err != nil {
			return err
		}
		if err := validate(!seen[col], "key column %q listed twice", col); err != nil {
			return err
		}
		seen[col] = true
	}
	return nil
}

// IgnoresColumn reports whether a column is excluded from comparison.
func (c Comparison) IgnoresColumn(name string) bool {
	for _, col := range c.IgnoreColumns {
		if col == name {
			return true
		}
	}
	return false
}

// IsKeyColumn reports whether a column is part of the row key.
func (c Comparison) IsKeyColumn(name string) bool {
	for _, col := range c.KeyColumns {
		if col == name {
			return true
		}
	}
	return false
}

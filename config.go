package main

import (
	"bytes"
	_ "embed"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

//go:embed default-config.yaml
var defaultConfigYAML string

// Defaults applied when the corresponding setting is omitted
const (
	DefaultSeed              uint64  = 1
	DefaultOutputFile                = "fire_simulation.xlsx"
	DefaultTargetFailureRate float64 = 0.05
)

// DefaultPercentiles are the percentiles reported alongside the mean and median
var DefaultPercentiles = []float64{10, 15, 20, 25, 75, 90}

// SimulationConfig holds the retiree's capital, ages, spending and income settings
type SimulationConfig struct {
	NSimulations   int     `yaml:"n_simulations" json:"n_simulations"`
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`

	StartAge           int `yaml:"start_age" json:"start_age"`
	EndAge             int `yaml:"end_age" json:"end_age"`
	ReducedSpendingAge int `yaml:"reduced_spending_age" json:"reduced_spending_age"` // Age from which reduced_withdrawal applies

	FullWithdrawal    float64 `yaml:"full_withdrawal" json:"full_withdrawal"`       // Annual spending need before reduced_spending_age
	ReducedWithdrawal float64 `yaml:"reduced_withdrawal" json:"reduced_withdrawal"` // Annual spending need from reduced_spending_age

	InheritanceAge    int     `yaml:"inheritance_age" json:"inheritance_age"`
	InheritanceAmount float64 `yaml:"inheritance_amount" json:"inheritance_amount"`

	PensionStartAge    int     `yaml:"pension_start_age" json:"pension_start_age"`
	StatePensionIncome float64 `yaml:"state_pension_income" json:"state_pension_income"` // Annual, offsets the withdrawal need

	Portfolios []PortfolioSpec `yaml:"portfolios" json:"portfolios"`
}

// ReportConfig controls which statistics are reported and where
type ReportConfig struct {
	Output      string    `yaml:"output,omitempty" json:"output,omitempty"`           // Report path; extension selects the format
	Percentiles []float64 `yaml:"percentiles,omitempty" json:"percentiles,omitempty"` // e.g. [10, 25, 75, 90]
	Currency    string    `yaml:"currency,omitempty" json:"currency,omitempty"`       // Symbol prefixed to money cells (e.g. "£")
}

// SensitivityConfig defines the withdrawal x return-shift grid
type SensitivityConfig struct {
	WithdrawalMin  float64   `yaml:"withdrawal_min,omitempty" json:"withdrawal_min,omitempty"`
	WithdrawalMax  float64   `yaml:"withdrawal_max,omitempty" json:"withdrawal_max,omitempty"`
	WithdrawalStep float64   `yaml:"withdrawal_step,omitempty" json:"withdrawal_step,omitempty"`
	ReturnShifts   []float64 `yaml:"return_shifts,omitempty" json:"return_shifts,omitempty"` // Added to each portfolio's mean return
	Trials         int       `yaml:"trials,omitempty" json:"trials,omitempty"`               // 0 = n_simulations
}

// SustainableConfig controls the sustainable withdrawal search
type SustainableConfig struct {
	TargetFailureRate *float64 `yaml:"target_failure_rate,omitempty" json:"target_failure_rate,omitempty"` // nil = DefaultTargetFailureRate; 0 allows no failures
	MaxWithdrawal     float64 `yaml:"max_withdrawal,omitempty" json:"max_withdrawal,omitempty"`           // Upper search bound (0 = initial capital)
	Tolerance         float64 `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`                     // Stop when the bracket is narrower than this
	MaxIterations     int     `yaml:"max_iterations,omitempty" json:"max_iterations,omitempty"`
	Trials            int     `yaml:"trials,omitempty" json:"trials,omitempty"` // 0 = n_simulations
}

// Target returns the configured target failure rate or DefaultTargetFailureRate
func (s SustainableConfig) Target() float64 {
	if s.TargetFailureRate == nil {
		return DefaultTargetFailureRate
	}
	return *s.TargetFailureRate
}

// Config holds the complete configuration.
// The simulation fields sit at the document root so the flat config.json
// format is accepted unchanged.
type Config struct {
	SimulationConfig `yaml:",inline"`

	Seed        uint64            `yaml:"seed,omitempty" json:"seed,omitempty"` // 0 or omitted = DefaultSeed
	Report      ReportConfig      `yaml:"report,omitempty" json:"report,omitempty"`
	Sensitivity SensitivityConfig `yaml:"sensitivity,omitempty" json:"sensitivity,omitempty"`
	Sustainable SustainableConfig `yaml:"sustainable,omitempty" json:"sustainable,omitempty"`
}

// EffectiveSeed returns the configured seed or DefaultSeed
func (c *Config) EffectiveSeed() uint64 {
	if c.Seed == 0 {
		return DefaultSeed
	}
	return c.Seed
}

// ReportPercentiles returns the configured percentiles or DefaultPercentiles
func (c *Config) ReportPercentiles() []float64 {
	if len(c.Report.Percentiles) == 0 {
		return DefaultPercentiles
	}
	return c.Report.Percentiles
}

// OutputFile returns the configured report path or DefaultOutputFile
func (c *Config) OutputFile() string {
	if c.Report.Output == "" {
		return DefaultOutputFile
	}
	return c.Report.Output
}

// Clone returns a copy of the config that shares no slices with the original
func (c *Config) Clone() *Config {
	clone := *c
	clone.Portfolios = append([]PortfolioSpec(nil), c.Portfolios...)
	clone.Report.Percentiles = append([]float64(nil), c.Report.Percentiles...)
	clone.Sensitivity.ReturnShifts = append([]float64(nil), c.Sensitivity.ReturnShifts...)
	if c.Sustainable.TargetFailureRate != nil {
		clone.Sustainable.TargetFailureRate = float64Ptr(*c.Sustainable.TargetFailureRate)
	}
	return &clone
}

// WithFullWithdrawal returns a copy of the config spending full per year before the
// reduced spending age. The reduced withdrawal keeps its ratio to the full withdrawal.
func (c *Config) WithFullWithdrawal(full float64) *Config {
	clone := c.Clone()
	if c.FullWithdrawal > 0 {
		clone.ReducedWithdrawal = c.ReducedWithdrawal * full / c.FullWithdrawal
	}
	clone.FullWithdrawal = full
	return clone
}

// ResolvePortfolios fills real_return and std from market presets for portfolios
// that name an index. Values named in the parsed document are kept even when zero;
// for portfolios built in code only non-zero values count as set.
func (c *Config) ResolvePortfolios() error {
	for i := range c.Portfolios {
		p := &c.Portfolios[i]
		if p.Index == "" {
			continue
		}
		index := GetStockIndexByID(p.Index)
		if index == nil {
			return ConfigurationError{
				Field:   fmt.Sprintf("portfolios[%d].index", i),
				Message: fmt.Sprintf("unknown market preset %q", p.Index),
			}
		}
		if !p.returnSet && p.RealReturn == 0 {
			p.RealReturn = index.RealReturn
		}
		if !p.stdSet && p.Std == 0 {
			p.Std = index.Volatility
		}
		if p.Name == "" {
			p.Name = index.Name
		}
	}
	return nil
}

// Validate checks the structural invariants the simulation relies on
func (c *Config) Validate() error {
	if c.NSimulations <= 0 {
		return ConfigurationError{Field: "n_simulations", Message: fmt.Sprintf("must be a positive integer (got %d)", c.NSimulations)}
	}
	if c.EndAge <= c.StartAge {
		return ConfigurationError{Field: "end_age", Message: fmt.Sprintf("must be greater than start_age (got %d <= %d)", c.EndAge, c.StartAge)}
	}

	money := []struct {
		field string
		value float64
	}{
		{"initial_capital", c.InitialCapital},
		{"full_withdrawal", c.FullWithdrawal},
		{"reduced_withdrawal", c.ReducedWithdrawal},
		{"inheritance_amount", c.InheritanceAmount},
		{"state_pension_income", c.StatePensionIncome},
	}
	for _, m := range money {
		if m.value < 0 || math.IsNaN(m.value) || math.IsInf(m.value, 0) {
			return ConfigurationError{Field: m.field, Message: fmt.Sprintf("must be a non-negative amount (got %v)", m.value)}
		}
	}

	if len(c.Portfolios) == 0 {
		return ConfigurationError{Field: "portfolios", Message: "at least one portfolio is required"}
	}
	seen := make(map[string]bool)
	for i, p := range c.Portfolios {
		field := fmt.Sprintf("portfolios[%d]", i)
		if strings.TrimSpace(p.Name) == "" {
			return ConfigurationError{Field: field + ".name", Message: "must not be empty"}
		}
		if seen[p.Name] {
			return ConfigurationError{Field: field + ".name", Message: fmt.Sprintf("duplicate portfolio name %q", p.Name)}
		}
		seen[p.Name] = true
		if p.Std < 0 || math.IsNaN(p.Std) {
			return ConfigurationError{Field: field + ".std", Message: fmt.Sprintf("must be >= 0 (got %v)", p.Std)}
		}
		if math.IsNaN(p.RealReturn) || math.IsInf(p.RealReturn, 0) {
			return ConfigurationError{Field: field + ".real_return", Message: "must be a finite number"}
		}
	}

	for _, p := range c.Report.Percentiles {
		if p < 0 || p > 100 || math.IsNaN(p) {
			return ConfigurationError{Field: "report.percentiles", Message: fmt.Sprintf("must be between 0 and 100 (got %v)", p)}
		}
	}

	if target := c.Sustainable.Target(); target < 0 || target >= 1 || math.IsNaN(target) {
		return ConfigurationError{Field: "sustainable.target_failure_rate", Message: fmt.Sprintf("must be in [0, 1) (got %v)", target)}
	}
	if c.Sensitivity.Trials < 0 || c.Sustainable.Trials < 0 {
		return ConfigurationError{Field: "trials", Message: "analysis trial counts must not be negative"}
	}

	return nil
}

// LoadConfig loads and validates a configuration file.
// The format is chosen by extension: .json, otherwise YAML.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data, configFormat(filename))
}

func configFormat(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return "json"
	}
	return "yaml"
}

// ParseConfig decodes a YAML or JSON document, resolves market presets and validates it
func ParseConfig(data []byte, format string) (*Config, error) {
	var config Config
	var keys portfolioKeys

	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&config); err != nil {
			return nil, ConfigurationError{Message: err.Error()}
		}
		if err := json.Unmarshal(data, &keys); err != nil {
			return nil, ConfigurationError{Message: err.Error()}
		}
	default:
		content := preprocessPercentages(string(data))
		dec := yaml.NewDecoder(strings.NewReader(content))
		dec.KnownFields(true)
		if err := dec.Decode(&config); err != nil {
			return nil, ConfigurationError{Message: err.Error()}
		}
		if err := yaml.Unmarshal([]byte(content), &keys); err != nil {
			return nil, ConfigurationError{Message: err.Error()}
		}
	}
	keys.markSet(config.Portfolios)

	if err := config.ResolvePortfolios(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// portfolioKeys is a second, loose decode of the portfolio list that records which
// keys each entry names
type portfolioKeys struct {
	Portfolios []map[string]any `yaml:"portfolios" json:"portfolios"`
}

func (k portfolioKeys) markSet(portfolios []PortfolioSpec) {
	for i := range portfolios {
		if i >= len(k.Portfolios) {
			return
		}
		_, portfolios[i].returnSet = k.Portfolios[i]["real_return"]
		_, portfolios[i].stdSet = k.Portfolios[i]["std"]
	}
}

func float64Ptr(v float64) *float64 {
	return &v
}

// LoadDefaultConfig loads the configuration embedded from default-config.yaml
func LoadDefaultConfig() (*Config, error) {
	return ParseConfig([]byte(defaultConfigYAML), "yaml")
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, filename string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	header := []byte(`# FIRE Monte Carlo Simulation Configuration
#
# Ages are converted to year offsets from start_age. Events whose age falls
# outside [start_age, end_age) behave as follows:
#   reduced_spending_age / pension_start_age before start_age -> apply from year 0
#   inheritance_age outside the horizon                        -> never paid
#
# Returns are REAL (net of inflation). Percentages may be written as 5% or 0.05.
# Portfolios may name a market preset with "index:" instead of real_return/std.
#
#   ./goFireSimulator                         Run with config.yaml, write fire_simulation.xlsx
#   ./goFireSimulator -output report.pdf      Write a PDF report instead
#   ./goFireSimulator -sensitivity            Add the withdrawal x return grid
#   ./goFireSimulator -sustainable            Add the sustainable withdrawal search
#   ./goFireSimulator -serve                  Start the HTTP API

`)
	content := append(header, data...)
	return os.WriteFile(filename, content, 0644)
}

// preprocessPercentages converts percentage values like "5%" to decimal "0.05"
func preprocessPercentages(content string) string {
	re := regexp.MustCompile(`(:\s*|-\s+)(-?\d+\.?\d*)%`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) >= 3 {
			num, err := strconv.ParseFloat(parts[2], 64)
			if err == nil {
				return parts[1] + strconv.FormatFloat(num/100.0, 'f', -1, 64)
			}
		}
		return match
	})
}

package main

import "fmt"

// PortfolioSpec describes one asset allocation's assumed real annual return distribution
type PortfolioSpec struct {
	Name       string  `yaml:"name" json:"name"`
	RealReturn float64 `yaml:"real_return" json:"real_return"`         // Mean annual real return (0.05 = 5%)
	Std        float64 `yaml:"std" json:"std"`                         // Standard deviation of the annual real return
	Index      string  `yaml:"index,omitempty" json:"index,omitempty"` // Optional market preset ID (see stock_indices.go)

	// Set by ParseConfig when the document names the field, so an explicit 0
	// is not replaced by the preset
	returnSet bool
	stdSet    bool
}

func (p PortfolioSpec) String() string {
	return fmt.Sprintf("%s (%.1f%% ± %.1f%%)", p.Name, p.RealReturn*100, p.Std*100)
}

// Schedule holds the year offsets (from start age) at which the withdrawal rules change.
// Offsets may be negative or beyond NYears; the trial loop compares against them as-is.
type Schedule struct {
	NYears              int `json:"n_years"`
	ReducedSpendingYear int `json:"reduced_spending_year"`
	PensionStartYear    int `json:"pension_start_year"`
	InheritanceYear     int `json:"inheritance_year"`
}

// DeriveSchedule converts the configured ages into year offsets
func DeriveSchedule(sc *SimulationConfig) Schedule {
	return Schedule{
		NYears:              sc.EndAge - sc.StartAge,
		ReducedSpendingYear: sc.ReducedSpendingAge - sc.StartAge,
		PensionStartYear:    sc.PensionStartAge - sc.StartAge,
		InheritanceYear:     sc.InheritanceAge - sc.StartAge,
	}
}

// InheritanceFires reports whether the inheritance lands inside the simulated horizon
func (s Schedule) InheritanceFires() bool {
	return s.InheritanceYear >= 0 && s.InheritanceYear < s.NYears
}

// PercentileStat is a single percentile of an ending-capital distribution
type PercentileStat struct {
	Percent float64 `json:"percent"`
	Value   float64 `json:"value"`
}

// PortfolioSummary holds the descriptive statistics of one portfolio's ending capitals
type PortfolioSummary struct {
	Trials      int              `json:"trials"`
	Mean        float64          `json:"mean"`
	Median      float64          `json:"median"`
	Percentiles []PercentileStat `json:"percentiles"` // In the order they were requested
	FailureRate float64          `json:"failure_rate"` // Fraction of trials ending at exactly zero
}

// Percentile returns the stored value for percent p, if it was computed
func (s PortfolioSummary) Percentile(p float64) (float64, bool) {
	for _, ps := range s.Percentiles {
		if ps.Percent == p {
			return ps.Value, true
		}
	}
	return 0, false
}

// PortfolioRun is the outcome of all trials for one portfolio
type PortfolioRun struct {
	Portfolio      PortfolioSpec
	EndingCapitals []float64 // One entry per trial, in trial order
	Summary        PortfolioSummary
}

// SimulationResult is the outcome of a full run over every configured portfolio
type SimulationResult struct {
	Seed        uint64
	Schedule    Schedule
	Percentiles []float64
	Runs        []PortfolioRun
}

// PortfolioNames returns the portfolio names in run order
func (r *SimulationResult) PortfolioNames() []string {
	names := make([]string, len(r.Runs))
	for i, run := range r.Runs {
		names[i] = run.Portfolio.Name
	}
	return names
}

package main

import (
	"fmt"
	"math"
)

// RunTrial simulates one capital path and returns the capital left after the final year.
//
// Each year: pick the full or reduced withdrawal, offset it by the state pension,
// add the inheritance if it lands this year, then grow the capital by one
// sampled return and take the withdrawal out. Capital never goes below zero.
func RunTrial(sc *SimulationConfig, sched Schedule, portfolio PortfolioSpec, sampler ReturnSampler) float64 {
	return runTrial(sc, sched, portfolio, sampler, nil)
}

// RunTrialPath is RunTrial that also returns the capital at the end of every year
func RunTrialPath(sc *SimulationConfig, sched Schedule, portfolio PortfolioSpec, sampler ReturnSampler) []float64 {
	path := make([]float64, 0, max(sched.NYears, 0))
	runTrial(sc, sched, portfolio, sampler, func(capital float64) {
		path = append(path, capital)
	})
	return path
}

func runTrial(sc *SimulationConfig, sched Schedule, portfolio PortfolioSpec, sampler ReturnSampler, record func(float64)) float64 {
	capital := sc.InitialCapital

	for year := 0; year < sched.NYears; year++ {
		withdrawal := sc.FullWithdrawal
		if year >= sched.ReducedSpendingYear {
			withdrawal = sc.ReducedWithdrawal
		}

		if year >= sched.PensionStartYear {
			withdrawal = math.Max(0, withdrawal-sc.StatePensionIncome)
		}

		// Inheritance arrives before this year's growth and withdrawal
		if year == sched.InheritanceYear {
			capital += sc.InheritanceAmount
		}

		ret := sampler.Normal(portfolio.RealReturn, portfolio.Std)
		capital = math.Max(0, capital*(1+ret)-withdrawal)

		if record != nil {
			record(capital)
		}
	}

	return capital
}

// RunPortfolio runs trials independent trials for one portfolio, in trial order
func RunPortfolio(sc *SimulationConfig, sched Schedule, portfolio PortfolioSpec, trials int, sampler ReturnSampler) []float64 {
	if trials < 0 {
		trials = 0
	}
	capitals := make([]float64, trials)
	for i := range capitals {
		capitals[i] = RunTrial(sc, sched, portfolio, sampler)
	}
	return capitals
}

// RunSimulation runs n_simulations trials for every portfolio in config order and
// summarizes each portfolio's ending capitals. All draws come from sampler, in
// portfolio -> trial -> year order, so a seeded sampler makes the run reproducible.
func RunSimulation(config *Config, sampler ReturnSampler) (*SimulationResult, error) {
	if len(config.Portfolios) == 0 {
		return nil, ConfigurationError{Field: "portfolios", Message: "at least one portfolio is required"}
	}

	sched := DeriveSchedule(&config.SimulationConfig)
	if sched.NYears < 0 {
		return nil, ConfigurationError{Field: "end_age", Message: fmt.Sprintf("simulation horizon is negative (%d years)", sched.NYears)}
	}

	percents := config.ReportPercentiles()
	result := &SimulationResult{
		Seed:        config.EffectiveSeed(),
		Schedule:    sched,
		Percentiles: percents,
		Runs:        make([]PortfolioRun, 0, len(config.Portfolios)),
	}

	for _, portfolio := range config.Portfolios {
		capitals := RunPortfolio(&config.SimulationConfig, sched, portfolio, config.NSimulations, sampler)

		summary, err := Summarize(capitals, percents)
		if err != nil {
			return nil, EmptyInputError{Portfolio: portfolio.Name}
		}

		result.Runs = append(result.Runs, PortfolioRun{
			Portfolio:      portfolio,
			EndingCapitals: capitals,
			Summary:        summary,
		})
	}

	return result, nil
}

// RunSeededSimulation runs the simulation with a fresh sampler seeded from the config
func RunSeededSimulation(config *Config) (*SimulationResult, error) {
	return RunSimulation(config, NewGaussianSampler(config.EffectiveSeed()))
}

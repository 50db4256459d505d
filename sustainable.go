package main

import "fmt"

const (
	defaultSustainableTolerance     = 1.0
	defaultSustainableMaxIterations = 60
)

// SustainableResult is the highest full withdrawal a portfolio supports within the
// target failure rate
type SustainableResult struct {
	Portfolio         string  `json:"portfolio"`
	FullWithdrawal    float64 `json:"full_withdrawal"`
	ReducedWithdrawal float64 `json:"reduced_withdrawal"`
	FailureRate       float64 `json:"failure_rate"` // At FullWithdrawal
	TargetFailureRate float64 `json:"target_failure_rate"`
	Iterations        int     `json:"iterations"`
	Converged         bool    `json:"converged"`
	AtUpperBound      bool    `json:"at_upper_bound"` // Even the search ceiling stays within target
}

// failureRateAt runs one portfolio with the given full withdrawal and a sampler
// restarted from seed, so every bisection step sees the same return sequences
func failureRateAt(config *Config, portfolio PortfolioSpec, full float64, trials int) (float64, *Config, error) {
	testConfig := config.WithFullWithdrawal(full)
	sched := DeriveSchedule(&testConfig.SimulationConfig)
	capitals := RunPortfolio(&testConfig.SimulationConfig, sched, portfolio, trials, NewGaussianSampler(config.EffectiveSeed()))

	summary, err := Summarize(capitals, nil)
	if err != nil {
		return 0, nil, EmptyInputError{Portfolio: portfolio.Name}
	}
	return summary.FailureRate, testConfig, nil
}

// FindSustainableWithdrawal uses binary search to find the largest full withdrawal
// whose failure rate stays at or below the target.
// For a fixed set of return sequences above -100% the failure rate never falls as
// the withdrawal rises, which is what makes bisection valid here.
func FindSustainableWithdrawal(config *Config, portfolio PortfolioSpec) (SustainableResult, error) {
	sc := config.Sustainable

	target := sc.Target()
	high := sc.MaxWithdrawal
	if high <= 0 {
		high = config.InitialCapital
	}
	tolerance := sc.Tolerance
	if tolerance <= 0 {
		tolerance = defaultSustainableTolerance
	}
	maxIterations := sc.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultSustainableMaxIterations
	}
	trials := sc.Trials
	if trials == 0 {
		trials = config.NSimulations
	}
	if trials <= 0 {
		return SustainableResult{}, EmptyInputError{Portfolio: portfolio.Name}
	}

	result := SustainableResult{
		Portfolio:         portfolio.Name,
		TargetFailureRate: target,
	}

	// Even the ceiling is sustainable
	rate, testConfig, err := failureRateAt(config, portfolio, high, trials)
	if err != nil {
		return SustainableResult{}, err
	}
	if rate <= target {
		result.FullWithdrawal = high
		result.ReducedWithdrawal = testConfig.ReducedWithdrawal
		result.FailureRate = rate
		result.Converged = true
		result.AtUpperBound = true
		return result, nil
	}

	low := 0.0
	lowRate, lowConfig, err := failureRateAt(config, portfolio, low, trials)
	if err != nil {
		return SustainableResult{}, err
	}
	if lowRate > target {
		// Depletes even with nothing withdrawn (e.g. zero initial capital)
		result.FailureRate = lowRate
		result.ReducedWithdrawal = lowConfig.ReducedWithdrawal
		result.Converged = true
		return result, nil
	}

	for i := 0; i < maxIterations; i++ {
		result.Iterations = i + 1
		if high-low < tolerance {
			result.Converged = true
			break
		}

		mid := (low + high) / 2
		midRate, midConfig, err := failureRateAt(config, portfolio, mid, trials)
		if err != nil {
			return SustainableResult{}, err
		}
		if midRate <= target {
			low, lowRate, lowConfig = mid, midRate, midConfig
		} else {
			high = mid
		}
	}
	if high-low < tolerance {
		result.Converged = true
	}

	result.FullWithdrawal = low
	result.ReducedWithdrawal = lowConfig.ReducedWithdrawal
	result.FailureRate = lowRate
	return result, nil
}

// RunSustainableAnalysis finds the sustainable withdrawal for every portfolio
func RunSustainableAnalysis(config *Config) ([]SustainableResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	results := make([]SustainableResult, 0, len(config.Portfolios))
	for _, portfolio := range config.Portfolios {
		res, err := FindSustainableWithdrawal(config, portfolio)
		if err != nil {
			return nil, fmt.Errorf("sustainable withdrawal for %s: %w", portfolio.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

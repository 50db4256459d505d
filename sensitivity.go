package main

import "math"

// Sensitivity grid defaults, relative to the configured full withdrawal
const (
	defaultWithdrawalMinFactor  = 0.5
	defaultWithdrawalMaxFactor  = 1.5
	defaultWithdrawalStepFactor = 0.25
)

var defaultReturnShifts = []float64{-0.02, -0.01, 0, 0.01, 0.02}

// SensitivityCell holds the outcome for one withdrawal / return-shift combination
type SensitivityCell struct {
	FullWithdrawal    float64 `json:"full_withdrawal"`
	ReducedWithdrawal float64 `json:"reduced_withdrawal"`
	ReturnShift       float64 `json:"return_shift"`
	FailureRate       float64 `json:"failure_rate"`
	Median            float64 `json:"median"`
}

// PortfolioSensitivity is one portfolio's grid, indexed [withdrawalIdx][shiftIdx]
type PortfolioSensitivity struct {
	Portfolio string              `json:"portfolio"`
	Cells     [][]SensitivityCell `json:"cells"`
}

// SensitivityAnalysis holds the complete withdrawal x return-shift analysis
type SensitivityAnalysis struct {
	Withdrawals  []float64              `json:"withdrawals"`
	ReturnShifts []float64              `json:"return_shifts"`
	Trials       int                    `json:"trials"`
	Seed         uint64                 `json:"seed"`
	Portfolios   []PortfolioSensitivity `json:"portfolios"`
}

// buildRange generates values from min to max inclusive with the given step
func buildRange(min, max, step float64) []float64 {
	if step <= 0 || max < min {
		return []float64{min}
	}
	var values []float64
	for v := min; v <= max+step*1e-6; v += step { // small epsilon for float comparison
		values = append(values, math.Round(v*1e6)/1e6)
	}
	return values
}

// rangeLen is len(buildRange(min, max, step)) without building the slice
func rangeLen(min, max, step float64) int {
	if step <= 0 || max < min {
		return 1
	}
	n := math.Floor((max-min)/step+1e-6) + 1
	if math.IsNaN(n) || n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// withdrawalAxis returns the configured withdrawal axis bounds, or ones centred on
// the configured full withdrawal
func withdrawalAxis(config *Config) (min, max, step float64) {
	s := config.Sensitivity
	if s.WithdrawalMin == 0 && s.WithdrawalMax == 0 {
		full := config.FullWithdrawal
		return full * defaultWithdrawalMinFactor, full * defaultWithdrawalMaxFactor, full * defaultWithdrawalStepFactor
	}
	step = s.WithdrawalStep
	if step == 0 {
		step = (s.WithdrawalMax - s.WithdrawalMin) / 4
	}
	return s.WithdrawalMin, s.WithdrawalMax, step
}

func sensitivityWithdrawals(config *Config) []float64 {
	return buildRange(withdrawalAxis(config))
}

func sensitivityShifts(config *Config) []float64 {
	if len(config.Sensitivity.ReturnShifts) == 0 {
		return defaultReturnShifts
	}
	return config.Sensitivity.ReturnShifts
}

// SensitivityCells returns the number of grid cells per portfolio
func SensitivityCells(config *Config) int {
	return rangeLen(withdrawalAxis(config)) * len(sensitivityShifts(config))
}

// RunSensitivityAnalysis reruns every portfolio across a grid of full withdrawals and
// mean-return shifts. Every cell restarts the sampler from the same seed, so cells
// differ only by their inputs and never by sampling noise.
func RunSensitivityAnalysis(config *Config) (*SensitivityAnalysis, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	shifts := sensitivityShifts(config)
	trials := config.Sensitivity.Trials
	if trials == 0 {
		trials = config.NSimulations
	}

	analysis := &SensitivityAnalysis{
		Withdrawals:  sensitivityWithdrawals(config),
		ReturnShifts: shifts,
		Trials:       trials,
		Seed:         config.EffectiveSeed(),
		Portfolios:   make([]PortfolioSensitivity, 0, len(config.Portfolios)),
	}

	for _, portfolio := range config.Portfolios {
		grid := PortfolioSensitivity{
			Portfolio: portfolio.Name,
			Cells:     make([][]SensitivityCell, len(analysis.Withdrawals)),
		}

		for wi, full := range analysis.Withdrawals {
			testConfig := config.WithFullWithdrawal(full)
			sched := DeriveSchedule(&testConfig.SimulationConfig)
			grid.Cells[wi] = make([]SensitivityCell, len(shifts))

			for si, shift := range shifts {
				shifted := portfolio
				shifted.RealReturn += shift

				sampler := NewGaussianSampler(analysis.Seed)
				capitals := RunPortfolio(&testConfig.SimulationConfig, sched, shifted, trials, sampler)
				summary, err := Summarize(capitals, nil)
				if err != nil {
					return nil, EmptyInputError{Portfolio: portfolio.Name}
				}

				grid.Cells[wi][si] = SensitivityCell{
					FullWithdrawal:    full,
					ReducedWithdrawal: testConfig.ReducedWithdrawal,
					ReturnShift:       shift,
					FailureRate:       summary.FailureRate,
					Median:            summary.Median,
				}
			}
		}

		analysis.Portfolios = append(analysis.Portfolios, grid)
	}

	return analysis, nil
}

package main

import (
	"fmt"
	"strings"
)

const detailRows = 10

// FormatMoney formats an amount compactly for console tables (£1.25M, £40k, £500)
func FormatMoney(amount float64, symbol string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	if amount >= 1000000 {
		return fmt.Sprintf("%s%s%.2fM", sign, symbol, amount/1000000)
	}
	if amount >= 1000 {
		return fmt.Sprintf("%s%s%.0fk", sign, symbol, amount/1000)
	}
	return fmt.Sprintf("%s%s%.0f", sign, symbol, amount)
}

// PrintHeader prints the simulation header
func PrintHeader(config *Config) {
	sym := config.Report.Currency
	sched := DeriveSchedule(&config.SimulationConfig)

	fmt.Println("╔══════════════════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                    FIRE MONTE CARLO RETIREMENT SIMULATION                    ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("──────────────")
	fmt.Printf("  Initial Capital: %s | Age %d to %d (%d years) | %d trials, seed %d\n",
		FormatMoney(config.InitialCapital, sym), config.StartAge, config.EndAge,
		sched.NYears, config.NSimulations, config.EffectiveSeed())
	fmt.Printf("  Withdrawal: %s/year, %s/year from age %d (year %d)\n",
		FormatMoney(config.FullWithdrawal, sym), FormatMoney(config.ReducedWithdrawal, sym),
		config.ReducedSpendingAge, sched.ReducedSpendingYear)
	fmt.Printf("  Pension: %s/year from age %d (year %d)\n",
		FormatMoney(config.StatePensionIncome, sym), config.PensionStartAge, sched.PensionStartYear)
	if sched.InheritanceFires() {
		fmt.Printf("  Inheritance: %s at age %d (year %d)\n",
			FormatMoney(config.InheritanceAmount, sym), config.InheritanceAge, sched.InheritanceYear)
	} else {
		fmt.Printf("  Inheritance: %s at age %d (outside the simulated years, never received)\n",
			FormatMoney(config.InheritanceAmount, sym), config.InheritanceAge)
	}

	fmt.Println()
	fmt.Println("Portfolios:")
	for _, p := range config.Portfolios {
		fmt.Printf("  %s\n", p.String())
	}
	fmt.Println()
}

// PrintSummaryTable prints a report table with the label column left-aligned
func PrintSummaryTable(table Table) {
	widths := make([]int, len(table.Columns))
	for c, name := range table.Columns {
		widths[c] = len([]rune(name))
	}
	for _, row := range table.Rows {
		for c, cell := range row {
			widths[c] = max(widths[c], len([]rune(cell)))
		}
	}

	total := 0
	for _, w := range widths {
		total += w + 3
	}

	fmt.Println()
	fmt.Printf("%s:\n", table.Name)
	printTableRow(table.Columns, widths)
	fmt.Println(strings.Repeat("─", total))
	for _, row := range table.Rows {
		printTableRow(row, widths)
	}
	fmt.Println(strings.Repeat("─", total))
}

func printTableRow(cells []string, widths []int) {
	for c, cell := range cells {
		if c > 0 {
			fmt.Print(" │ ")
			fmt.Printf("%*s", widths[c], cell)
			continue
		}
		fmt.Printf("%-*s", widths[c], cell)
	}
	fmt.Println()
}

// PrintDetails prints the first trials of the raw data, plus one sample capital
// path per portfolio drawn with the run's seed
func PrintDetails(config *Config, result *SimulationResult) {
	sym := config.Report.Currency
	raw := RawDataTable(result)

	fmt.Println()
	fmt.Printf("%s (first %d of %d trials):\n", RawDataSheetName, min(detailRows, len(raw.Rows)), len(raw.Rows))
	fmt.Printf("%-8s", "Trial")
	for _, name := range raw.Columns {
		fmt.Printf(" │ %18s", name)
	}
	fmt.Println()
	fmt.Println(strings.Repeat("─", 8+len(raw.Columns)*21))
	for t := 0; t < len(raw.Values) && t < detailRows; t++ {
		fmt.Printf("%-8d", t+1)
		for _, v := range raw.Values[t] {
			fmt.Printf(" │ %18s", FormatCurrency(v, sym))
		}
		fmt.Println()
	}

	fmt.Println()
	fmt.Println("Sample capital path (first trial, end of each year):")
	for _, p := range result.Runs {
		path := RunTrialPath(&config.SimulationConfig, result.Schedule, p.Portfolio, NewGaussianSampler(result.Seed))
		fmt.Printf("  %s:\n", p.Portfolio.Name)
		for year, capital := range path {
			if year%5 == 0 || year == len(path)-1 || capital == 0 {
				fmt.Printf("    Year %2d (age %d): %s\n", year, config.StartAge+year, FormatMoney(capital, sym))
			}
			if capital == 0 {
				fmt.Printf("    ⚠️  Depleted in year %d\n", year)
				break
			}
		}
	}
}

// PrintSensitivity prints one failure-rate grid per portfolio
func PrintSensitivity(analysis *SensitivityAnalysis, currency string) {
	fmt.Println()
	fmt.Println("╔════════════════════════════════════════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                          SENSITIVITY ANALYSIS - FAILURE RATE                                       ║")
	fmt.Println("╚════════════════════════════════════════════════════════════════════════════════════════════════════╝")
	fmt.Printf("  %d trials per cell, seed %d. Columns shift every portfolio's mean real return.\n", analysis.Trials, analysis.Seed)

	for _, grid := range analysis.Portfolios {
		fmt.Println()
		fmt.Printf("%s:\n", grid.Portfolio)
		fmt.Printf("%-12s", "Withdrawal")
		for _, shift := range analysis.ReturnShifts {
			fmt.Printf(" │ %8s", fmt.Sprintf("%+.1f%%", shift*100))
		}
		fmt.Println()
		fmt.Println(strings.Repeat("─", 12+len(analysis.ReturnShifts)*11))

		for wi, cells := range grid.Cells {
			fmt.Printf("%-12s", FormatMoney(analysis.Withdrawals[wi], currency))
			for _, cell := range cells {
				fmt.Printf(" │ %7.1f%%", cell.FailureRate*100)
			}
			fmt.Println()
		}
	}
	fmt.Println()
}

// PrintSustainable prints the highest full withdrawal each portfolio supports
func PrintSustainable(results []SustainableResult, currency string) {
	fmt.Println()
	fmt.Println("╔════════════════════════════════════════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                               SUSTAINABLE WITHDRAWAL                                               ║")
	fmt.Println("╚════════════════════════════════════════════════════════════════════════════════════════════════════╝")
	fmt.Println()

	fmt.Printf("%-25s │ %15s │ %15s │ %12s │ %10s\n",
		"Portfolio", "Full", "Reduced", "Failure Rate", "Target")
	fmt.Println(strings.Repeat("─", 90))

	for _, r := range results {
		full := FormatCurrency(r.FullWithdrawal, currency)
		if r.AtUpperBound {
			full = ">=" + full
		}
		fmt.Printf("%-25s │ %15s │ %15s │ %11.2f%% │ %9.2f%%\n",
			r.Portfolio, full, FormatCurrency(r.ReducedWithdrawal, currency),
			r.FailureRate*100, r.TargetFailureRate*100)
		if !r.Converged {
			fmt.Printf("  ⚠️  %s: search stopped after %d iterations\n", r.Portfolio, r.Iterations)
		}
	}
	fmt.Println()
}

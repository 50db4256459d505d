package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
)

const (
	defaultConfigFile     = "config.yaml"
	fallbackConfigFile    = "config.json"
	defaultServerAddrFlag = "localhost:8080"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `FIRE Monte Carlo Retirement Simulator

Simulates many possible futures for a retirement portfolio. Each year a real
return is drawn from a normal distribution per portfolio, the year's spending
(full, then reduced from reduced_spending_age, offset by the state pension) is
taken out, and an inheritance is added in the year it arrives. Capital never
goes below zero; a trial ending at zero counts as a failure.

The report (summary statistics per portfolio plus every trial's ending capital)
is written to report.output, or -output. The extension selects the format:
.xlsx, .pdf, .html, .csv or .json.

Usage:
  %s [options]

Options:
`, os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  %s                              Run config.yaml (or config.json)
  %s -config plan.yaml -seed 42   Use a custom configuration and seed
  %s -output report.pdf           Write a PDF report
  %s -sensitivity -sustainable    Add the withdrawal grid and sustainable withdrawal
  %s -init                        Write a starter config.yaml
  %s -serve -addr :8080           Serve the HTTP API
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0])
	}

	configFile := flag.String("config", defaultConfigFile, "Path to YAML or JSON configuration file")
	outputFile := flag.String("output", "", "Report path (overrides report.output; extension selects the format)")
	seed := flag.Uint64("seed", 0, "Random seed (overrides the config seed; 0 keeps it, and an unset config seed means 1)")
	showDetails := flag.Bool("details", false, "Print the first trials and a sample capital path per portfolio")
	runSensitivity := flag.Bool("sensitivity", false, "Run the withdrawal x return-shift sensitivity grid")
	runSustainable := flag.Bool("sustainable", false, "Search for the highest sustainable full withdrawal per portfolio")
	initConfig := flag.Bool("init", false, "Write the default configuration to -config and exit")
	serveMode := flag.Bool("serve", false, "Start the HTTP API instead of writing a report")
	serveAddr := flag.String("addr", defaultServerAddrFlag, "HTTP API address (for -serve)")
	maxTrials := flag.Int("max-trials", DefaultMaxRequestTrials, "Largest trial count one HTTP request may run (for -serve)")
	flag.Parse()

	if *initConfig {
		if err := writeDefaultConfig(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration written to '%s'\n", *configFile)
		return
	}

	config, err := loadConfigWithFallback(*configFile, *configFile == defaultConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *seed != 0 {
		config.Seed = *seed
	}
	if *outputFile != "" {
		config.Report.Output = *outputFile
	}

	if *serveMode {
		server := NewWebServer(config, *serveAddr)
		server.MaxTrials = *maxTrials
		if err := server.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Web server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	output := config.OutputFile()
	if _, err := ReportFormat(output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	PrintHeader(config)

	result, err := RunSeededSimulation(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running simulation: %v\n", err)
		os.Exit(1)
	}

	report := NewReport(config, result, nil, nil)
	PrintSummaryTable(report.Summary)

	if *showDetails {
		PrintDetails(config, result)
	}

	if *runSensitivity {
		fmt.Println("\nRunning sensitivity analysis...")
		analysis, err := RunSensitivityAnalysis(config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running sensitivity analysis: %v\n", err)
			os.Exit(1)
		}
		PrintSensitivity(analysis, config.Report.Currency)
		report.Sensitivity = analysis
	}

	if *runSustainable {
		fmt.Println("\nSearching for sustainable withdrawals...")
		sustainable, err := RunSustainableAnalysis(config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding sustainable withdrawal: %v\n", err)
			os.Exit(1)
		}
		PrintSustainable(sustainable, config.Report.Currency)
		report.Sustainable = sustainable
	}

	if err := WriteReport(output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nSimulation complete. Results saved to '%s'\n", output)
}

// loadConfigWithFallback loads filename; when it is the default config.yaml and
// missing, config.json is tried next
func loadConfigWithFallback(filename string, allowFallback bool) (*Config, error) {
	config, err := LoadConfig(filename)
	if err == nil || !allowFallback || !errors.Is(err, fs.ErrNotExist) {
		return config, err
	}
	return LoadConfig(fallbackConfigFile)
}

// writeDefaultConfig writes the embedded default configuration, refusing to
// overwrite an existing file
func writeDefaultConfig(filename string) error {
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("%s already exists", filename)
	}
	config, err := LoadDefaultConfig()
	if err != nil {
		return err
	}
	return SaveConfig(config, filename)
}

package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testYAMLConfig = `
n_simulations: 1000
initial_capital: 750000
start_age: 55
end_age: 90
reduced_spending_age: 75
full_withdrawal: 35000
reduced_withdrawal: 28000
pension_start_age: 67
state_pension_income: 11500
inheritance_age: 62
inheritance_amount: 50000
portfolios:
  - name: Equity
    real_return: 5%
    std: 18%
  - name: Bonds
    real_return: 0.015
    std: 0.06
seed: 7
report:
  percentiles: [5, 50, 95]
  currency: "£"
`

// Flat config.json layout with fractional rates
const testJSONConfig = `{
  "n_simulations": 500,
  "initial_capital": 1000000,
  "start_age": 50,
  "end_age": 95,
  "reduced_spending_age": 75,
  "full_withdrawal": 40000,
  "reduced_withdrawal": 30000,
  "inheritance_age": 65,
  "inheritance_amount": 100000,
  "pension_start_age": 67,
  "state_pension_income": 11500,
  "portfolios": [
    {"name": "Portfolio A", "real_return": 0.05, "std": 0.15},
    {"name": "Portfolio B", "real_return": 0.04, "std": 0.10}
  ]
}`

func TestParseConfig_YAML(t *testing.T) {
	config, err := ParseConfig([]byte(testYAMLConfig), "yaml")
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	if config.NSimulations != 1000 || config.InitialCapital != 750000 {
		t.Errorf("Got n_simulations=%d initial_capital=%v", config.NSimulations, config.InitialCapital)
	}
	if len(config.Portfolios) != 2 {
		t.Fatalf("Got %d portfolios, want 2", len(config.Portfolios))
	}
	if !almostEqual(config.Portfolios[0].RealReturn, 0.05) || !almostEqual(config.Portfolios[0].Std, 0.18) {
		t.Errorf("Percent values not converted: %+v", config.Portfolios[0])
	}
	if config.EffectiveSeed() != 7 {
		t.Errorf("EffectiveSeed = %d, want 7", config.EffectiveSeed())
	}
	if got := config.ReportPercentiles(); len(got) != 3 || got[2] != 95 {
		t.Errorf("ReportPercentiles = %v, want [5 50 95]", got)
	}
	if config.Report.Currency != "£" {
		t.Errorf("Currency = %q, want £", config.Report.Currency)
	}
}

func TestParseConfig_FlatJSON(t *testing.T) {
	config, err := ParseConfig([]byte(testJSONConfig), "json")
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	if config.StartAge != 50 || config.EndAge != 95 {
		t.Errorf("Ages = %d..%d, want 50..95", config.StartAge, config.EndAge)
	}
	if config.Portfolios[1].Name != "Portfolio B" {
		t.Errorf("Second portfolio = %q", config.Portfolios[1].Name)
	}

	// Omitted settings fall back to defaults
	if config.EffectiveSeed() != DefaultSeed {
		t.Errorf("EffectiveSeed = %d, want %d", config.EffectiveSeed(), DefaultSeed)
	}
	if config.OutputFile() != DefaultOutputFile {
		t.Errorf("OutputFile = %q, want %q", config.OutputFile(), DefaultOutputFile)
	}
	if len(config.ReportPercentiles()) != len(DefaultPercentiles) {
		t.Errorf("ReportPercentiles = %v, want %v", config.ReportPercentiles(), DefaultPercentiles)
	}
}

func TestParseConfig_UnknownFieldRejected(t *testing.T) {
	yamlDoc := testYAMLConfig + "\nwithdrawl_rate: 4%\n"
	if _, err := ParseConfig([]byte(yamlDoc), "yaml"); err == nil {
		t.Error("YAML with an unknown field was accepted")
	}

	jsonDoc := strings.Replace(testJSONConfig, `"n_simulations"`, `"n_sims": 1, "n_simulations"`, 1)
	_, err := ParseConfig([]byte(jsonDoc), "json")
	var cfgErr ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("JSON with an unknown field: got %v, want ConfigurationError", err)
	}
}

func TestParseConfig_Malformed(t *testing.T) {
	_, err := ParseConfig([]byte("n_simulations: [oops"), "yaml")
	var cfgErr ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Malformed YAML: got %v, want ConfigurationError", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"zero simulations", func(c *Config) { c.NSimulations = 0 }, "n_simulations"},
		{"end before start", func(c *Config) { c.EndAge = c.StartAge }, "end_age"},
		{"negative capital", func(c *Config) { c.InitialCapital = -1 }, "initial_capital"},
		{"negative withdrawal", func(c *Config) { c.FullWithdrawal = -100 }, "full_withdrawal"},
		{"negative reduced withdrawal", func(c *Config) { c.ReducedWithdrawal = -100 }, "reduced_withdrawal"},
		{"negative inheritance", func(c *Config) { c.InheritanceAmount = -5 }, "inheritance_amount"},
		{"negative pension", func(c *Config) { c.StatePensionIncome = -5 }, "state_pension_income"},
		{"no portfolios", func(c *Config) { c.Portfolios = nil }, "portfolios"},
		{"empty name", func(c *Config) { c.Portfolios[0].Name = " " }, "portfolios[0].name"},
		{"duplicate name", func(c *Config) { c.Portfolios[1].Name = c.Portfolios[0].Name }, "portfolios[1].name"},
		{"negative std", func(c *Config) { c.Portfolios[1].Std = -0.1 }, "portfolios[1].std"},
		{"percentile above 100", func(c *Config) { c.Report.Percentiles = []float64{50, 101} }, "report.percentiles"},
		{"target failure rate of 1", func(c *Config) { c.Sustainable.TargetFailureRate = float64Ptr(1) }, "sustainable.target_failure_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := ParseConfig([]byte(testJSONConfig), "json")
			if err != nil {
				t.Fatalf("ParseConfig failed: %v", err)
			}
			tt.mutate(config)

			err = config.Validate()
			var cfgErr ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() = %v, want ConfigurationError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
			if !strings.HasPrefix(err.Error(), "invalid configuration: ") {
				t.Errorf("Error message %q lacks prefix", err.Error())
			}
		})
	}
}

func TestValidate_ZeroStdAllowed(t *testing.T) {
	config := scenarioConfig()
	if err := config.Validate(); err != nil {
		t.Errorf("Zero-std portfolio rejected: %v", err)
	}
}

func TestResolvePortfolios_Presets(t *testing.T) {
	doc := strings.Replace(testYAMLConfig, `  - name: Bonds
    real_return: 0.015
    std: 0.06`, `  - index: sp500
  - name: Custom World
    index: msci_world
    std: 12%`, 1)

	config, err := ParseConfig([]byte(doc), "yaml")
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	sp500 := GetStockIndexByID("sp500")
	got := config.Portfolios[1]
	if got.Name != sp500.Name || got.RealReturn != sp500.RealReturn || got.Std != sp500.Volatility {
		t.Errorf("Preset portfolio = %+v, want values from %+v", got, sp500)
	}

	world := config.Portfolios[2]
	if world.Name != "Custom World" {
		t.Errorf("Explicit name overwritten: %q", world.Name)
	}
	if !almostEqual(world.Std, 0.12) {
		t.Errorf("Explicit std overwritten: %v", world.Std)
	}
	if world.RealReturn != GetStockIndexByID("msci_world").RealReturn {
		t.Errorf("Preset return not applied: %v", world.RealReturn)
	}
}

func TestResolvePortfolios_ExplicitZeroKept(t *testing.T) {
	// A preset with std: 0 is a deterministic run of that preset's mean, and an
	// explicit real_return: 0 must not be replaced either

	yamlDoc := strings.Replace(testYAMLConfig, `  - name: Bonds
    real_return: 0.015
    std: 0.06`, `  - name: Flat World
    index: msci_world
    std: 0
  - name: Cash World
    index: msci_world
    real_return: 0`, 1)
	jsonDoc := strings.Replace(testJSONConfig, `{"name": "Portfolio B", "real_return": 0.04, "std": 0.10}`,
		`{"name": "Flat World", "index": "msci_world", "std": 0},
    {"name": "Cash World", "index": "msci_world", "real_return": 0}`, 1)

	world := GetStockIndexByID("msci_world")
	for format, doc := range map[string]string{"yaml": yamlDoc, "json": jsonDoc} {
		config, err := ParseConfig([]byte(doc), format)
		if err != nil {
			t.Fatalf("%s: ParseConfig failed: %v", format, err)
		}
		if len(config.Portfolios) != 3 {
			t.Fatalf("%s: got %d portfolios, want 3", format, len(config.Portfolios))
		}

		flat := config.Portfolios[1]
		if flat.Std != 0 {
			t.Errorf("%s: explicit std: 0 replaced by %v", format, flat.Std)
		}
		if flat.RealReturn != world.RealReturn {
			t.Errorf("%s: omitted real_return = %v, want preset %v", format, flat.RealReturn, world.RealReturn)
		}

		cash := config.Portfolios[2]
		if cash.RealReturn != 0 {
			t.Errorf("%s: explicit real_return: 0 replaced by %v", format, cash.RealReturn)
		}
		if cash.Std != world.Volatility {
			t.Errorf("%s: omitted std = %v, want preset %v", format, cash.Std, world.Volatility)
		}
	}
}

func TestResolvePortfolios_CodeBuiltNonZeroKept(t *testing.T) {
	config := scenarioConfig()
	config.Portfolios[0].Index = "msci_world"
	config.Portfolios[0].RealReturn = 0.03

	if err := config.ResolvePortfolios(); err != nil {
		t.Fatalf("ResolvePortfolios failed: %v", err)
	}
	got := config.Portfolios[0]
	if got.RealReturn != 0.03 {
		t.Errorf("RealReturn = %v, want 0.03 kept", got.RealReturn)
	}
	if got.Std != GetStockIndexByID("msci_world").Volatility {
		t.Errorf("Std = %v, want preset volatility", got.Std)
	}
}

func TestValidate_ZeroTargetFailureRate(t *testing.T) {
	config := scenarioConfig()
	config.Sustainable.TargetFailureRate = float64Ptr(0)

	if err := config.Validate(); err != nil {
		t.Fatalf("Zero target failure rate rejected: %v", err)
	}
	if got := config.Sustainable.Target(); got != 0 {
		t.Errorf("Target() = %v, want 0", got)
	}
	if got := config.Clone().Sustainable.Target(); got != 0 {
		t.Errorf("Clone lost the target: %v", got)
	}

	config.Sustainable.TargetFailureRate = nil
	if got := config.Sustainable.Target(); got != DefaultTargetFailureRate {
		t.Errorf("Unset Target() = %v, want %v", got, DefaultTargetFailureRate)
	}
}

func TestResolvePortfolios_UnknownPreset(t *testing.T) {
	config := scenarioConfig()
	config.Portfolios[0].Index = "nikkei_9000"

	err := config.ResolvePortfolios()
	var cfgErr ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "portfolios[0].index" {
		t.Errorf("ResolvePortfolios() = %v, want ConfigurationError on portfolios[0].index", err)
	}
}

func TestGetIndicesByRegion(t *testing.T) {
	regions := GetIndicesByRegion()
	total := 0
	for region, indices := range regions {
		for i, idx := range indices {
			if idx.Country != region {
				t.Errorf("%s listed under %s", idx.ID, region)
			}
			if i > 0 && indices[i-1].ID > idx.ID {
				t.Errorf("%s: %s listed before %s", region, indices[i-1].ID, idx.ID)
			}
		}
		total += len(indices)
	}
	if total != len(StockIndices) {
		t.Errorf("Grouped %d indices, want %d", total, len(StockIndices))
	}
}

func TestLoadDefaultConfig(t *testing.T) {
	config, err := LoadDefaultConfig()
	if err != nil {
		t.Fatalf("LoadDefaultConfig failed: %v", err)
	}
	if config.NSimulations != 10000 {
		t.Errorf("NSimulations = %d, want 10000", config.NSimulations)
	}
	if len(config.Portfolios) != 2 {
		t.Errorf("Got %d portfolios, want 2", len(config.Portfolios))
	}
	if !almostEqual(config.Sustainable.Target(), 0.05) {
		t.Errorf("Target failure rate = %v, want 0.05", config.Sustainable.Target())
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	config, err := LoadDefaultConfig()
	if err != nil {
		t.Fatalf("LoadDefaultConfig failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := SaveConfig(config, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig of saved config failed: %v", err)
	}
	if loaded.FullWithdrawal != config.FullWithdrawal || loaded.Portfolios[1].Name != config.Portfolios[1].Name {
		t.Errorf("Saved config differs: %+v vs %+v", loaded.SimulationConfig, config.SimulationConfig)
	}
}

func TestLoadConfig_JSONByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(testJSONConfig), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.NSimulations != 500 {
		t.Errorf("NSimulations = %d, want 500", config.NSimulations)
	}
}

func TestLoadConfigWithFallback(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	if err := os.WriteFile(fallbackConfigFile, []byte(testJSONConfig), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := loadConfigWithFallback(defaultConfigFile, true)
	if err != nil {
		t.Fatalf("loadConfigWithFallback failed: %v", err)
	}
	if config.NSimulations != 500 {
		t.Errorf("NSimulations = %d, want 500 from config.json", config.NSimulations)
	}

	if _, err := loadConfigWithFallback(defaultConfigFile, false); err == nil {
		t.Error("Missing config.yaml without fallback should fail")
	}
}

func TestWithFullWithdrawal_ScalesReduced(t *testing.T) {
	config, err := ParseConfig([]byte(testJSONConfig), "json")
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	scaled := config.WithFullWithdrawal(20000)
	if scaled.FullWithdrawal != 20000 || scaled.ReducedWithdrawal != 15000 {
		t.Errorf("Scaled = %v/%v, want 20000/15000", scaled.FullWithdrawal, scaled.ReducedWithdrawal)
	}
	if config.FullWithdrawal != 40000 {
		t.Error("WithFullWithdrawal modified the original config")
	}

	scaled.Portfolios[0].Name = "changed"
	if config.Portfolios[0].Name == "changed" {
		t.Error("Clone shares the portfolio slice")
	}
}

func TestPreprocessPercentages(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"real_return: 5%", "real_return: 0.05"},
		{"std: 17.5%", "std: 0.175"},
		{"  - -2%", "  - -0.02"},
		{"name: 60/40", "name: 60/40"},
	}
	for _, tt := range tests {
		if got := preprocessPercentages(tt.in); got != tt.want {
			t.Errorf("preprocessPercentages(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

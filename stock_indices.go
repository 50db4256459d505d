package main

import "sort"

// StockIndex is a market preset a portfolio can reference instead of spelling out
// its return distribution
type StockIndex struct {
	ID          string  `json:"id"`          // Unique identifier used in config (e.g., "ftse100")
	Name        string  `json:"name"`        // Full name (e.g., "FTSE 100")
	Country     string  `json:"country"`     // Country/region (e.g., "UK", "US", "Global")
	RealReturn  float64 `json:"real_return"` // Long-run annualised real return as decimal (0.05 = 5%)
	Volatility  float64 `json:"volatility"`  // Standard deviation of annual real returns
	Description string  `json:"description"`
}

// StockIndices contains the available market presets.
// Long-run real (inflation-adjusted) figures, rounded. Sources: MSCI, FTSE Russell,
// S&P Dow Jones Indices, Bloomberg, Credit Suisse Global Investment Returns Yearbook.
// Past performance does not guarantee future results.
var StockIndices = []StockIndex{
	// Equities
	{ID: "msci_world", Name: "MSCI World", Country: "Global", RealReturn: 0.050, Volatility: 0.170,
		Description: "Developed markets large and mid cap"},
	{ID: "ftse_all_world", Name: "FTSE All-World", Country: "Global", RealReturn: 0.048, Volatility: 0.165,
		Description: "Developed and emerging markets"},
	{ID: "sp500", Name: "S&P 500", Country: "US", RealReturn: 0.066, Volatility: 0.180,
		Description: "US large cap - 500 leading companies"},
	{ID: "ftse100", Name: "FTSE 100", Country: "UK", RealReturn: 0.045, Volatility: 0.160,
		Description: "UK large cap - top 100 companies"},
	{ID: "ftse250", Name: "FTSE 250", Country: "UK", RealReturn: 0.060, Volatility: 0.200,
		Description: "UK mid cap - companies ranked 101-350"},
	{ID: "msci_em", Name: "MSCI Emerging Markets", Country: "Global", RealReturn: 0.045, Volatility: 0.230,
		Description: "Emerging markets large and mid cap"},

	// Mixed allocations
	{ID: "balanced_80_20", Name: "80/20 Equity/Bond", Country: "Global", RealReturn: 0.044, Volatility: 0.140,
		Description: "80% global equity, 20% global bonds"},
	{ID: "balanced_60_40", Name: "60/40 Equity/Bond", Country: "Global", RealReturn: 0.037, Volatility: 0.105,
		Description: "60% global equity, 40% global bonds"},
	{ID: "balanced_40_60", Name: "40/60 Equity/Bond", Country: "Global", RealReturn: 0.030, Volatility: 0.080,
		Description: "40% global equity, 60% global bonds"},

	// Bonds and cash
	{ID: "global_bonds", Name: "Global Aggregate Bonds (hedged)", Country: "Global", RealReturn: 0.015, Volatility: 0.060,
		Description: "Investment grade government and corporate bonds"},
	{ID: "uk_gilts", Name: "UK Gilts", Country: "UK", RealReturn: 0.010, Volatility: 0.085,
		Description: "UK government bonds, all maturities"},
	{ID: "cash", Name: "Cash", Country: "Global", RealReturn: 0.000, Volatility: 0.010,
		Description: "Short-term deposits"},
}

// GetStockIndexByID returns a stock index by its ID, or nil if not found
func GetStockIndexByID(id string) *StockIndex {
	for i := range StockIndices {
		if StockIndices[i].ID == id {
			return &StockIndices[i]
		}
	}
	return nil
}

// GetIndicesByRegion groups indices by their country/region, each group sorted by ID
func GetIndicesByRegion() map[string][]StockIndex {
	result := make(map[string][]StockIndex)
	for _, idx := range StockIndices {
		result[idx.Country] = append(result[idx.Country], idx)
	}
	for region := range result {
		sort.Slice(result[region], func(i, j int) bool {
			return result[region][i].ID < result[region][j].ID
		})
	}
	return result
}

package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Summary table row labels
const (
	MetricColumn      = "Metric"
	MetricMean        = "Mean"
	MetricMedian      = "Median"
	MetricFailureRate = "Failure Rate (Capital=0)"
)

// Sheet names used by every report writer
const (
	SummarySheetName = "Summary Statistics"
	RawDataSheetName = "Simulation Data"
)

// Table is a plain ordered table handed to the report writers.
// Values holds the numeric cells without the label column (if any), row by row.
type Table struct {
	Name    string      `json:"name"`
	Columns []string    `json:"columns"`
	Rows    [][]string  `json:"rows"`
	Values  [][]float64 `json:"values,omitempty"`
}

// HasLabelColumn reports whether the first column holds row labels rather than values
func (t Table) HasLabelColumn() bool {
	return len(t.Columns) > 0 && t.Columns[0] == MetricColumn
}

// SummaryTable builds one row per statistic and one column per portfolio.
// Money cells carry two fraction digits; the failure rate is a fraction.
func SummaryTable(result *SimulationResult, currency string) Table {
	labels := MetricLabels(result.Percentiles)

	table := Table{
		Name:    SummarySheetName,
		Columns: append([]string{MetricColumn}, result.PortfolioNames()...),
		Rows:    make([][]string, len(labels)),
		Values:  make([][]float64, len(labels)),
	}

	for i, label := range labels {
		table.Rows[i] = make([]string, 0, len(result.Runs)+1)
		table.Rows[i] = append(table.Rows[i], label)
		table.Values[i] = make([]float64, 0, len(result.Runs))
	}

	for _, run := range result.Runs {
		values := summaryValues(run.Summary)
		for i, v := range values {
			cell := FormatCurrency(v, currency)
			if i == len(values)-1 {
				cell = FormatRate(v)
			}
			table.Rows[i] = append(table.Rows[i], cell)
			table.Values[i] = append(table.Values[i], v)
		}
	}

	return table
}

// summaryValues lists a summary's statistics in MetricLabels order
func summaryValues(s PortfolioSummary) []float64 {
	values := make([]float64, 0, len(s.Percentiles)+3)
	values = append(values, s.Mean, s.Median)
	for _, p := range s.Percentiles {
		values = append(values, p.Value)
	}
	return append(values, s.FailureRate)
}

// MetricLabels returns the summary row labels for the given percentiles
func MetricLabels(percents []float64) []string {
	labels := make([]string, 0, len(percents)+3)
	labels = append(labels, MetricMean, MetricMedian)
	for _, p := range percents {
		labels = append(labels, PercentileLabel(p))
	}
	return append(labels, MetricFailureRate)
}

// RawDataTable holds every trial's ending capital, one column per portfolio
func RawDataTable(result *SimulationResult) Table {
	table := Table{
		Name:    RawDataSheetName,
		Columns: result.PortfolioNames(),
	}

	trials := 0
	for _, run := range result.Runs {
		trials = max(trials, len(run.EndingCapitals))
	}

	table.Rows = make([][]string, trials)
	table.Values = make([][]float64, trials)
	for t := 0; t < trials; t++ {
		row := make([]string, len(result.Runs))
		values := make([]float64, len(result.Runs))
		for p, run := range result.Runs {
			if t < len(run.EndingCapitals) {
				values[p] = run.EndingCapitals[t]
				row[p] = strconv.FormatFloat(run.EndingCapitals[t], 'f', -1, 64)
			}
		}
		table.Rows[t] = row
		table.Values[t] = values
	}

	return table
}

// PercentileLabel formats a percentile as "10th Percentile", "12.5th Percentile", ...
func PercentileLabel(p float64) string {
	if p == math.Trunc(p) {
		n := int(p)
		return fmt.Sprintf("%d%s Percentile", n, ordinalSuffix(n))
	}
	return strconv.FormatFloat(p, 'f', -1, 64) + "th Percentile"
}

func ordinalSuffix(n int) string {
	if n%100 >= 11 && n%100 <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// FormatCurrency formats an amount with thousands separators and exactly two
// fraction digits (the #,##0.00 pattern), prefixed by symbol.
func FormatCurrency(amount float64, symbol string) string {
	fixed := decimal.NewFromFloat(amount).StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if sign == "-" && strings.Trim(intPart+fracPart, "0") == "" {
		sign = ""
	}
	return sign + symbol + b.String() + "." + fracPart
}

// FormatRate formats a fraction with two fraction digits (0.125 -> "0.13")
func FormatRate(rate float64) string {
	return decimal.NewFromFloat(rate).StringFixed(2)
}

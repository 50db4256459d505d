package main

import (
	"fmt"
	"html"
	"io"
)

const htmlStyle = `
    <style>
        :root {
            --primary: #2563eb;
            --success: #16a34a;
            --warning: #ea580c;
            --danger: #dc2626;
            --bg: #f8fafc;
            --card-bg: #ffffff;
            --text: #1e293b;
            --text-muted: #64748b;
            --border: #e2e8f0;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: var(--bg);
            color: var(--text);
            line-height: 1.6;
            padding: 2rem;
        }
        .container { max-width: 1200px; margin: 0 auto; }
        h1 { font-size: 1.75rem; margin-bottom: 0.5rem; color: var(--primary); }
        h2 {
            font-size: 1.25rem;
            margin: 1.5rem 0 1rem;
            padding-bottom: 0.5rem;
            border-bottom: 2px solid var(--primary);
        }
        h3 { font-size: 1rem; margin: 1rem 0 0.5rem; }
        .subtitle { color: var(--text-muted); margin-bottom: 1.5rem; }
        .card {
            background: var(--card-bg);
            border-radius: 8px;
            box-shadow: 0 1px 3px rgba(0,0,0,0.1);
            padding: 1.5rem;
            margin-bottom: 1.5rem;
        }
        .grid { display: grid; gap: 1rem; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); }
        .metric { text-align: center; padding: 1rem; border-radius: 8px; background: var(--bg); }
        .metric-value { font-size: 1.5rem; font-weight: 700; color: var(--primary); }
        .metric-label { font-size: 0.875rem; color: var(--text-muted); }
        .metric.success .metric-value { color: var(--success); }
        .metric.warning .metric-value { color: var(--warning); }
        .metric.danger .metric-value { color: var(--danger); }
        table { width: 100%; border-collapse: collapse; font-size: 0.875rem; }
        th, td { padding: 0.5rem; text-align: right; border-bottom: 1px solid var(--border); }
        th { background: var(--bg); font-weight: 600; position: sticky; top: 0; }
        th:first-child, td:first-child { text-align: left; }
        tr:hover { background: #f1f5f9; }
        .balance-row { background: var(--bg); font-weight: 600; }
        .raw { max-height: 400px; overflow-y: auto; }
        .footer {
            text-align: center;
            color: var(--text-muted);
            font-size: 0.75rem;
            margin-top: 2rem;
            padding-top: 1rem;
            border-top: 1px solid var(--border);
        }
    </style>`

// WriteHTMLReport writes a self-contained HTML page with the summary metrics, the
// summary table, any sensitivity / sustainable results and the raw data
func WriteHTMLReport(w io.Writer, report *Report) error {
	cfg := report.Config
	sym := cfg.Report.Currency
	esc := html.EscapeString

	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>FIRE Simulation %s</title>%s
</head>
<body>
    <div class="container">
        <h1>FIRE Monte Carlo Simulation</h1>
        <p class="subtitle">%d trials per portfolio, age %d to %d, seed %d</p>
`, esc(report.RunID), htmlStyle, cfg.NSimulations, cfg.StartAge, cfg.EndAge, report.Result.Seed)

	// One metric per portfolio
	fmt.Fprintf(w, `
        <div class="card">
            <h2>Failure Rate</h2>
            <div class="grid">
`)
	for _, run := range report.Result.Runs {
		fmt.Fprintf(w, `                <div class="metric %s">
                    <div class="metric-value">%.1f%%</div>
                    <div class="metric-label">%s, median %s</div>
                </div>
`, failureClass(run.Summary.FailureRate), run.Summary.FailureRate*100,
			esc(run.Portfolio.Name), esc(FormatCurrency(run.Summary.Median, sym)))
	}
	fmt.Fprintf(w, `            </div>
        </div>
`)

	fmt.Fprintf(w, `
        <div class="card">
            <h2>%s</h2>
`, esc(SummarySheetName))
	writeHTMLTable(w, report.Summary.Columns, report.Summary.Rows, len(report.Summary.Rows)-1)
	fmt.Fprintf(w, `        </div>
`)

	if report.Sensitivity != nil {
		writeSensitivityHTML(w, report.Sensitivity, sym)
	}
	if len(report.Sustainable) > 0 {
		writeSustainableHTML(w, report.Sustainable, sym)
	}

	fmt.Fprintf(w, `
        <div class="card">
            <h2>%s</h2>
            <div class="raw">
`, esc(RawDataSheetName))
	writeHTMLTable(w, append([]string{"Trial"}, report.Raw.Columns...), numberedRows(report.Raw, sym), -1)
	fmt.Fprintf(w, `            </div>
        </div>
`)

	_, err := fmt.Fprintf(w, `
        <div class="footer">
            Run %s, generated %s. Returns are real and drawn from a normal distribution. Not financial advice.
        </div>
    </div>
</body>
</html>
`, esc(report.RunID), report.GeneratedAt.Format("2 January 2006 15:04"))
	return err
}

func failureClass(rate float64) string {
	switch {
	case rate <= 0.05:
		return "success"
	case rate <= 0.20:
		return "warning"
	default:
		return "danger"
	}
}

// writeHTMLTable writes a table; boldRow (if >= 0) is rendered as a balance row
func writeHTMLTable(w io.Writer, headers []string, rows [][]string, boldRow int) {
	fmt.Fprintf(w, "            <table>\n                <tr>")
	for _, h := range headers {
		fmt.Fprintf(w, "<th>%s</th>", html.EscapeString(h))
	}
	fmt.Fprintf(w, "</tr>\n")
	for i, row := range rows {
		if i == boldRow {
			fmt.Fprintf(w, `                <tr class="balance-row">`)
		} else {
			fmt.Fprintf(w, "                <tr>")
		}
		for _, cell := range row {
			fmt.Fprintf(w, "<td>%s</td>", html.EscapeString(cell))
		}
		fmt.Fprintf(w, "</tr>\n")
	}
	fmt.Fprintf(w, "            </table>\n")
}

func numberedRows(raw Table, sym string) [][]string {
	rows := make([][]string, len(raw.Values))
	for t, values := range raw.Values {
		row := make([]string, 0, len(values)+1)
		row = append(row, fmt.Sprintf("%d", t+1))
		for _, v := range values {
			row = append(row, FormatCurrency(v, sym))
		}
		rows[t] = row
	}
	return rows
}

func writeSensitivityHTML(w io.Writer, analysis *SensitivityAnalysis, sym string) {
	fmt.Fprintf(w, `
        <div class="card">
            <h2>Sensitivity Analysis</h2>
            <p class="subtitle">Failure rate by full withdrawal and shift in mean real return. %d trials per cell, seed %d.</p>
`, analysis.Trials, analysis.Seed)

	headers := []string{"Withdrawal"}
	for _, shift := range analysis.ReturnShifts {
		headers = append(headers, fmt.Sprintf("%+.1f%%", shift*100))
	}

	for _, grid := range analysis.Portfolios {
		fmt.Fprintf(w, "            <h3>%s</h3>\n", html.EscapeString(grid.Portfolio))
		rows := make([][]string, len(grid.Cells))
		for wi, cells := range grid.Cells {
			row := []string{FormatCurrency(analysis.Withdrawals[wi], sym)}
			for _, cell := range cells {
				row = append(row, fmt.Sprintf("%.1f%%", cell.FailureRate*100))
			}
			rows[wi] = row
		}
		writeHTMLTable(w, headers, rows, -1)
	}
	fmt.Fprintf(w, "        </div>\n")
}

func writeSustainableHTML(w io.Writer, results []SustainableResult, sym string) {
	fmt.Fprintf(w, `
        <div class="card">
            <h2>Sustainable Withdrawal</h2>
`)
	rows := make([][]string, len(results))
	for i, r := range results {
		full := FormatCurrency(r.FullWithdrawal, sym)
		if r.AtUpperBound {
			full = ">= " + full
		}
		rows[i] = []string{
			r.Portfolio,
			full,
			FormatCurrency(r.ReducedWithdrawal, sym),
			fmt.Sprintf("%.2f%%", r.FailureRate*100),
			fmt.Sprintf("%.2f%%", r.TargetFailureRate*100),
		}
	}
	writeHTMLTable(w, []string{"Portfolio", "Full", "Reduced", "Failure Rate", "Target"}, rows, -1)
	fmt.Fprintf(w, "        </div>\n")
}

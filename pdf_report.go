package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight

	labelColumnWidth = 50.0
	rawPreviewRows   = 20
)

// pdfText converts UTF-8 text to PDF-safe encoding
// The £ sign in UTF-8 is 0xC2 0xA3, but PDF standard fonts expect Latin-1 (just 0xA3)
func pdfText(s string) string {
	return strings.ReplaceAll(s, "£", "\xa3")
}

// PDFSimulationReport renders a finished run onto A4 pages
type PDFSimulationReport struct {
	pdf    *fpdf.Fpdf
	report *Report
}

// WritePDFReport writes a title page, the summary table, a preview of the raw
// data and any sensitivity / sustainable withdrawal results
func WritePDFReport(w io.Writer, report *Report) error {
	r := &PDFSimulationReport{
		pdf:    fpdf.New("P", "mm", "A4", ""),
		report: report,
	}

	r.pdf.SetMargins(marginLeft, marginTop, marginRight)
	r.pdf.SetAutoPageBreak(true, marginBottom)

	r.addTitlePage()
	r.addSummaryPage()
	if report.Sensitivity != nil {
		r.addSensitivityPage()
	}
	if len(report.Sustainable) > 0 {
		r.addSustainablePage()
	}

	return r.pdf.Output(w)
}

func (r *PDFSimulationReport) addTitlePage() {
	r.pdf.AddPage()
	cfg := r.report.Config

	r.pdf.SetFont("Arial", "B", 28)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.Ln(50)
	r.pdf.CellFormat(contentWidth, 15, "FIRE Monte Carlo Simulation", "", 1, "C", false, 0, "")

	r.pdf.SetFont("Arial", "I", 11)
	r.pdf.SetTextColor(80, 80, 80)
	r.pdf.Ln(10)
	r.pdf.CellFormat(contentWidth, 8, fmt.Sprintf("Generated: %s", r.report.GeneratedAt.Format("2 January 2006")), "", 1, "C", false, 0, "")
	r.pdf.CellFormat(contentWidth, 8, fmt.Sprintf("Run %s", r.report.RunID), "", 1, "C", false, 0, "")

	// Assumptions box
	r.pdf.Ln(20)
	r.pdf.SetFillColor(245, 247, 250)
	r.pdf.SetDrawColor(200, 200, 200)

	r.pdf.SetFont("Arial", "B", 12)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 8, "Assumptions", "1", 1, "C", true, 0, "")

	r.pdf.SetFont("Arial", "", 11)
	r.pdf.SetTextColor(50, 50, 50)
	sym := cfg.Report.Currency
	lines := []string{
		fmt.Sprintf("Initial capital %s", FormatCurrency(cfg.InitialCapital, sym)),
		fmt.Sprintf("Age %d to %d (%d years), %d trials, seed %d",
			cfg.StartAge, cfg.EndAge, r.report.Result.Schedule.NYears, cfg.NSimulations, r.report.Result.Seed),
		fmt.Sprintf("Withdraw %s a year, %s from age %d",
			FormatCurrency(cfg.FullWithdrawal, sym), FormatCurrency(cfg.ReducedWithdrawal, sym), cfg.ReducedSpendingAge),
		fmt.Sprintf("Pension %s a year from age %d", FormatCurrency(cfg.StatePensionIncome, sym), cfg.PensionStartAge),
		fmt.Sprintf("Inheritance %s at age %d", FormatCurrency(cfg.InheritanceAmount, sym), cfg.InheritanceAge),
	}
	for i, line := range lines {
		border := "LR"
		if i == len(lines)-1 {
			border = "LRB"
		}
		r.pdf.CellFormat(contentWidth, 7, pdfText(line), border, 1, "C", true, 0, "")
	}

	// Portfolios box
	r.pdf.Ln(10)
	r.pdf.SetFont("Arial", "B", 12)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 8, "Portfolios", "1", 1, "C", true, 0, "")

	r.pdf.SetFont("Arial", "", 11)
	r.pdf.SetTextColor(50, 50, 50)
	for _, p := range cfg.Portfolios {
		text := fmt.Sprintf("%s - real return %.2f%%, volatility %.2f%%", p.Name, p.RealReturn*100, p.Std*100)
		r.pdf.CellFormat(contentWidth, 7, pdfText(text), "LR", 1, "C", true, 0, "")
	}
	r.pdf.CellFormat(contentWidth, 1, "", "LRB", 1, "C", true, 0, "")

	r.pdf.Ln(15)
	r.pdf.SetFont("Arial", "I", 9)
	r.pdf.SetTextColor(120, 120, 120)
	r.pdf.MultiCell(contentWidth, 4.5,
		"Returns are drawn from a normal distribution and are in real terms. "+
			"This document is for informational purposes only and does not constitute financial advice.", "", "C", false)
}

func (r *PDFSimulationReport) addSummaryPage() {
	r.pdf.AddPage()
	r.drawSectionHeader(SummarySheetName)

	summary := r.report.Summary
	widths := tableWidths(len(summary.Columns), labelColumnWidth)
	r.drawTableHeader(summary.Columns, widths)
	for i, row := range summary.Rows {
		r.drawTableRow(row, widths, i == len(summary.Rows)-1)
	}

	// Raw data is usually too long to print in full
	raw := r.report.Raw
	r.pdf.Ln(10)
	r.drawSectionHeader(RawDataSheetName)
	r.pdf.SetFont("Arial", "I", 9)
	r.pdf.SetTextColor(80, 80, 80)
	shown := min(len(raw.Rows), rawPreviewRows)
	r.pdf.CellFormat(contentWidth, 6, fmt.Sprintf("First %d of %d trials", shown, len(raw.Rows)), "", 1, "L", false, 0, "")

	headers := append([]string{"Trial"}, raw.Columns...)
	widths = tableWidths(len(headers), 20)
	r.drawTableHeader(headers, widths)
	sym := r.report.Config.Report.Currency
	for t := 0; t < shown; t++ {
		cells := make([]string, 0, len(headers))
		cells = append(cells, fmt.Sprintf("%d", t+1))
		for _, v := range raw.Values[t] {
			cells = append(cells, FormatCurrency(v, sym))
		}
		r.drawTableRow(cells, widths, false)
	}
}

func (r *PDFSimulationReport) addSensitivityPage() {
	r.pdf.AddPage()
	r.drawSectionHeader("Sensitivity Analysis")

	analysis := r.report.Sensitivity
	sym := r.report.Config.Report.Currency

	r.pdf.SetFont("Arial", "", 10)
	r.pdf.SetTextColor(50, 50, 50)
	r.pdf.MultiCell(contentWidth, 5,
		fmt.Sprintf("Failure rate by full withdrawal (rows) and shift in mean real return (columns). %d trials per cell, seed %d.",
			analysis.Trials, analysis.Seed), "", "L", false)
	r.pdf.Ln(3)

	headers := []string{"Withdrawal"}
	for _, shift := range analysis.ReturnShifts {
		headers = append(headers, fmt.Sprintf("%+.1f%%", shift*100))
	}
	widths := tableWidths(len(headers), 35)

	for _, grid := range analysis.Portfolios {
		r.pdf.SetFont("Arial", "B", 11)
		r.pdf.SetTextColor(0, 51, 102)
		r.pdf.CellFormat(contentWidth, 8, pdfText(grid.Portfolio), "", 1, "L", false, 0, "")

		r.drawTableHeader(headers, widths)
		for wi, cells := range grid.Cells {
			row := make([]string, 0, len(headers))
			row = append(row, FormatCurrency(analysis.Withdrawals[wi], sym))
			for _, cell := range cells {
				row = append(row, fmt.Sprintf("%.1f%%", cell.FailureRate*100))
			}
			r.drawTableRow(row, widths, false)
		}
		r.pdf.Ln(5)
	}
}

func (r *PDFSimulationReport) addSustainablePage() {
	r.pdf.AddPage()
	r.drawSectionHeader("Sustainable Withdrawal")

	sym := r.report.Config.Report.Currency
	headers := []string{"Portfolio", "Full", "Reduced", "Failure Rate", "Target"}
	widths := tableWidths(len(headers), labelColumnWidth)
	r.drawTableHeader(headers, widths)

	for _, res := range r.report.Sustainable {
		full := FormatCurrency(res.FullWithdrawal, sym)
		if res.AtUpperBound {
			full = ">= " + full
		}
		r.drawTableRow([]string{
			res.Portfolio,
			full,
			FormatCurrency(res.ReducedWithdrawal, sym),
			fmt.Sprintf("%.2f%%", res.FailureRate*100),
			fmt.Sprintf("%.2f%%", res.TargetFailureRate*100),
		}, widths, false)
	}
}

// Helper functions

// tableWidths gives the first column labelWidth and splits the rest of the page evenly
func tableWidths(columns int, labelWidth float64) []float64 {
	widths := make([]float64, columns)
	if columns == 0 {
		return widths
	}
	if columns == 1 {
		widths[0] = contentWidth
		return widths
	}
	widths[0] = labelWidth
	rest := (contentWidth - labelWidth) / float64(columns-1)
	for i := 1; i < columns; i++ {
		widths[i] = rest
	}
	return widths
}

func (r *PDFSimulationReport) drawSectionHeader(title string) {
	r.pdf.SetFont("Arial", "B", 16)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 10, title, "", 1, "L", false, 0, "")
	r.pdf.SetDrawColor(0, 51, 102)
	r.pdf.Line(marginLeft, r.pdf.GetY(), marginLeft+contentWidth, r.pdf.GetY())
	r.pdf.Ln(5)
}

func (r *PDFSimulationReport) drawTableHeader(headers []string, widths []float64) {
	r.pdf.SetFillColor(0, 51, 102)
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.SetFont("Arial", "B", 9)

	for i, header := range headers {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 6, pdfText(header), "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}

func (r *PDFSimulationReport) drawTableRow(cells []string, widths []float64, isBold bool) {
	r.pdf.SetFillColor(250, 250, 250)
	r.pdf.SetTextColor(50, 50, 50)

	if isBold {
		r.pdf.SetFont("Arial", "B", 9)
		r.pdf.SetFillColor(240, 240, 240)
	} else {
		r.pdf.SetFont("Arial", "", 9)
	}

	for i, cell := range cells {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 5, pdfText(cell), "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}

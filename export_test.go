package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

func testReport(t *testing.T) *Report {
	t.Helper()

	config := volatileConfig()
	config.NSimulations = 25
	config.Portfolios[1].Name = "Bonds <60/40>"
	config.Report.Currency = "£"

	result, err := RunSeededSimulation(config)
	if err != nil {
		t.Fatalf("RunSeededSimulation failed: %v", err)
	}
	return NewReport(config, result, nil, nil)
}

func TestReportFormat(t *testing.T) {
	tests := map[string]string{
		"out.xlsx":        FormatXLSX,
		"dir/Report.PDF":  FormatPDF,
		"page.htm":        FormatHTML,
		"page.html":       FormatHTML,
		"data.csv":        FormatCSV,
		"fire.json":       FormatJSON,
		"no_extension":    "",
		"spreadsheet.ods": "",
	}
	for name, want := range tests {
		got, err := ReportFormat(name)
		if want == "" {
			if err == nil {
				t.Errorf("ReportFormat(%q) = %q, want error", name, got)
			}
			continue
		}
		if err != nil || got != want {
			t.Errorf("ReportFormat(%q) = %q, %v; want %q", name, got, err, want)
		}
	}
}

func TestNewReport_RunID(t *testing.T) {
	report := testReport(t)
	if _, err := uuid.Parse(report.RunID); err != nil {
		t.Errorf("RunID %q is not a UUID: %v", report.RunID, err)
	}
	if other := NewReport(report.Config, report.Result, nil, nil); other.RunID == report.RunID {
		t.Error("Two reports share a run ID")
	}
}

func TestWriteXLSXReport(t *testing.T) {
	report := testReport(t)

	var buf bytes.Buffer
	if err := WriteXLSXReport(&buf, report); err != nil {
		t.Fatalf("WriteXLSXReport failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != SummarySheetName || sheets[1] != RawDataSheetName {
		t.Fatalf("Sheets = %v, want [%s %s]", sheets, SummarySheetName, RawDataSheetName)
	}

	if v, _ := f.GetCellValue(SummarySheetName, "A1"); v != MetricColumn {
		t.Errorf("A1 = %q, want %q", v, MetricColumn)
	}
	if v, _ := f.GetCellValue(SummarySheetName, "C1"); v != "Bonds <60/40>" {
		t.Errorf("C1 = %q, want the second portfolio name", v)
	}
	if v, _ := f.GetCellValue(SummarySheetName, "A2"); v != MetricMean {
		t.Errorf("A2 = %q, want %q", v, MetricMean)
	}

	width, err := f.GetColWidth(SummarySheetName, "B")
	if err != nil || width != xlsxColumnWidth {
		t.Errorf("Column B width = %v (%v), want %v", width, err, xlsxColumnWidth)
	}

	rows, err := f.GetRows(RawDataSheetName)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != report.Result.Runs[0].Summary.Trials+1 {
		t.Errorf("Raw sheet has %d rows, want header + %d trials", len(rows), report.Result.Runs[0].Summary.Trials)
	}
}

func TestWriteXLSXReport_AnalysisSheets(t *testing.T) {
	report := testReport(t)
	report.Sensitivity = &SensitivityAnalysis{
		Withdrawals:  []float64{10000},
		ReturnShifts: []float64{0},
		Portfolios: []PortfolioSensitivity{
			{Portfolio: "Equity", Cells: [][]SensitivityCell{{{FullWithdrawal: 10000, FailureRate: 0.1}}}},
		},
	}
	report.Sustainable = []SustainableResult{{Portfolio: "Equity", FullWithdrawal: 21000, Converged: true}}

	var buf bytes.Buffer
	if err := WriteXLSXReport(&buf, report); err != nil {
		t.Fatalf("WriteXLSXReport failed: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	if got := len(f.GetSheetList()); got != 4 {
		t.Errorf("Got %d sheets, want 4", got)
	}
	if v, _ := f.GetCellValue(sustainableSheet, "A2"); v != "Equity" {
		t.Errorf("Sustainable A2 = %q, want Equity", v)
	}
}

func TestWriteCSVReport(t *testing.T) {
	report := testReport(t)

	var buf bytes.Buffer
	if err := WriteCSVReport(&buf, report); err != nil {
		t.Fatalf("WriteCSVReport failed: %v", err)
	}

	r := csv.NewReader(&buf)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("Reading CSV back failed: %v", err)
	}

	// csv.Reader skips the blank separator line
	summaryRows := len(report.Summary.Rows) + 1
	wantRecords := summaryRows + 1 + len(report.Raw.Rows)
	if len(records) != wantRecords {
		t.Errorf("Got %d records, want %d", len(records), wantRecords)
	}
	if records[0][0] != MetricColumn {
		t.Errorf("First header = %q, want %q", records[0][0], MetricColumn)
	}
	if !strings.HasPrefix(records[1][1], "£") {
		t.Errorf("Mean cell %q lacks the currency symbol", records[1][1])
	}
	if records[summaryRows][0] != "Equity" {
		t.Errorf("Raw header = %v, want portfolio names", records[summaryRows])
	}
}

func TestWriteJSONReport(t *testing.T) {
	report := testReport(t)

	var buf bytes.Buffer
	if err := WriteJSONReport(&buf, report); err != nil {
		t.Fatalf("WriteJSONReport failed: %v", err)
	}

	var doc JSONReport
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if doc.RunID != report.RunID || doc.Seed != 42 {
		t.Errorf("RunID/Seed = %q/%d, want %q/42", doc.RunID, doc.Seed, report.RunID)
	}
	if doc.Raw == nil || len(doc.Raw.Values) != 25 {
		t.Errorf("Raw table missing or wrong size")
	}
	summary, ok := doc.Summaries["Equity"]
	if !ok {
		t.Fatalf("Summaries = %v, want an Equity entry", doc.Summaries)
	}
	if summary.Median != report.Result.Runs[0].Summary.Median {
		t.Errorf("Median = %v, want %v", summary.Median, report.Result.Runs[0].Summary.Median)
	}
}

func TestWritePDFReport(t *testing.T) {
	report := testReport(t)
	report.Sustainable = []SustainableResult{{Portfolio: "Equity", FullWithdrawal: 21000, AtUpperBound: true}}

	var buf bytes.Buffer
	if err := WritePDFReport(&buf, report); err != nil {
		t.Fatalf("WritePDFReport failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("Output is not a PDF")
	}
}

func TestWriteHTMLReport_EscapesNames(t *testing.T) {
	report := testReport(t)

	var buf bytes.Buffer
	if err := WriteHTMLReport(&buf, report); err != nil {
		t.Fatalf("WriteHTMLReport failed: %v", err)
	}
	page := buf.String()

	if strings.Contains(page, "Bonds <60/40>") {
		t.Error("Portfolio name was not escaped")
	}
	if !strings.Contains(page, "Bonds &lt;60/40&gt;") {
		t.Error("Escaped portfolio name missing")
	}
	if !strings.Contains(page, MetricFailureRate) {
		t.Error("Summary table missing")
	}
}

func TestWriteReport_UnsupportedFormatWritesNothing(t *testing.T) {
	report := testReport(t)
	path := filepath.Join(t.TempDir(), "report.ods")

	if err := WriteReport(path, report); err == nil {
		t.Fatal("WriteReport accepted .ods")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Unsupported format left a file behind: %v", err)
	}
}

package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Supported report formats, selected by output file extension
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
	FormatHTML = "html"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Report bundles everything the report writers render for one run
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Config      *Config
	Result      *SimulationResult
	Summary     Table
	Raw         Table
	Sensitivity *SensitivityAnalysis // nil unless requested
	Sustainable []SustainableResult  // nil unless requested
}

// NewReport builds the summary and raw-data tables for a finished run
func NewReport(config *Config, result *SimulationResult, sensitivity *SensitivityAnalysis, sustainable []SustainableResult) *Report {
	return &Report{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now(),
		Config:      config,
		Result:      result,
		Summary:     SummaryTable(result, config.Report.Currency),
		Raw:         RawDataTable(result),
		Sensitivity: sensitivity,
		Sustainable: sustainable,
	}
}

// ReportFormat maps a file name to a report format
func ReportFormat(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case FormatXLSX, FormatPDF, FormatCSV, FormatJSON:
		return ext, nil
	case "htm", FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported report format %q (use .xlsx, .pdf, .html, .csv or .json)", filepath.Ext(filename))
	}
}

// ContentType returns the MIME type served for a report format
func ContentType(format string) string {
	switch format {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/json"
	}
}

// WriteReport writes the report to filename in the format its extension selects
func WriteReport(filename string, report *Report) error {
	format, err := ReportFormat(filename)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := WriteReportTo(f, format, report); err != nil {
		f.Close()
		os.Remove(filename)
		return err
	}
	return f.Close()
}

// WriteReportTo renders the report in the given format
func WriteReportTo(w io.Writer, format string, report *Report) error {
	switch format {
	case FormatXLSX:
		return WriteXLSXReport(w, report)
	case FormatPDF:
		return WritePDFReport(w, report)
	case FormatHTML:
		return WriteHTMLReport(w, report)
	case FormatCSV:
		return WriteCSVReport(w, report)
	case FormatJSON:
		return WriteJSONReport(w, report)
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

// WriteCSVReport writes the summary table, a blank line, then the raw data table
func WriteCSVReport(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(report.Summary.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(report.Summary.Rows); err != nil {
		return err
	}
	if err := cw.Write(nil); err != nil {
		return err
	}
	if err := cw.Write(report.Raw.Columns); err != nil {
		return err
	}
	for _, row := range report.Raw.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// JSONReport is the document written for .json reports and returned by the API
type JSONReport struct {
	RunID       string                      `json:"run_id"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Seed        uint64                      `json:"seed"`
	Schedule    Schedule                    `json:"schedule"`
	Config      *Config                     `json:"config"`
	Summaries   map[string]PortfolioSummary `json:"summaries"`
	Summary     Table                       `json:"summary"`
	Raw         *Table                      `json:"raw,omitempty"`
	Sensitivity *SensitivityAnalysis        `json:"sensitivity,omitempty"`
	Sustainable []SustainableResult         `json:"sustainable,omitempty"`
}

// NewJSONReport converts a report into its JSON document; includeRaw controls
// whether every trial's ending capital is embedded
func NewJSONReport(report *Report, includeRaw bool) JSONReport {
	doc := JSONReport{
		RunID:       report.RunID,
		GeneratedAt: report.GeneratedAt,
		Seed:        report.Result.Seed,
		Schedule:    report.Result.Schedule,
		Config:      report.Config,
		Summaries:   make(map[string]PortfolioSummary, len(report.Result.Runs)),
		Summary:     report.Summary,
		Sensitivity: report.Sensitivity,
		Sustainable: report.Sustainable,
	}
	for _, run := range report.Result.Runs {
		doc.Summaries[run.Portfolio.Name] = run.Summary
	}
	if includeRaw {
		raw := report.Raw
		doc.Raw = &raw
	}
	return doc
}

// WriteJSONReport writes the full JSON document, raw data included
func WriteJSONReport(w io.Writer, report *Report) error {
	data, err := json.MarshalIndent(NewJSONReport(report, true), "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

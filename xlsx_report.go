package main

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	xlsxNumberFormat = "#,##0.00"
	xlsxColumnWidth  = 20.0
	sensitivitySheet = "Sensitivity"
	sustainableSheet = "Sustainable Withdrawal"
)

// WriteXLSXReport writes the summary and raw-data tables as two worksheets, plus the
// sensitivity grid and sustainable withdrawals when they were computed
func WriteXLSXReport(w io.Writer, report *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheetName); err != nil {
		return err
	}

	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: stringPtr(xlsxNumberFormat)})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := writeXLSXTable(f, SummarySheetName, report.Summary, moneyStyle, headerStyle); err != nil {
		return err
	}

	if _, err := f.NewSheet(RawDataSheetName); err != nil {
		return err
	}
	if err := writeXLSXTable(f, RawDataSheetName, report.Raw, moneyStyle, headerStyle); err != nil {
		return err
	}

	if report.Sensitivity != nil {
		if err := writeXLSXSensitivity(f, report.Sensitivity, moneyStyle, headerStyle); err != nil {
			return err
		}
	}
	if len(report.Sustainable) > 0 {
		if err := writeXLSXSustainable(f, report.Sustainable, moneyStyle, headerStyle); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	_, err = f.WriteTo(w)
	return err
}

// writeXLSXTable writes a header row and the table body. Label columns are written
// as text, numeric cells as numbers formatted with #,##0.00.
func writeXLSXTable(f *excelize.File, sheet string, table Table, moneyStyle, headerStyle int) error {
	for c, name := range table.Columns {
		if err := setCell(f, sheet, c+1, 1, name); err != nil {
			return err
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(table.Columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", fmt.Sprintf("%s1", lastCol), headerStyle); err != nil {
		return err
	}

	offset := 0
	if table.HasLabelColumn() {
		offset = 1
		for r, row := range table.Rows {
			if err := setCell(f, sheet, 1, r+2, row[0]); err != nil {
				return err
			}
		}
	}

	for r, values := range table.Values {
		for c, v := range values {
			if err := setCell(f, sheet, c+1+offset, r+2, v); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", lastCol, xlsxColumnWidth); err != nil {
		return err
	}
	if len(table.Values) == 0 {
		return nil
	}
	firstValueCol, err := excelize.ColumnNumberToName(1 + offset)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet,
		fmt.Sprintf("%s2", firstValueCol),
		fmt.Sprintf("%s%d", lastCol, len(table.Values)+1),
		moneyStyle)
}

func writeXLSXSensitivity(f *excelize.File, analysis *SensitivityAnalysis, moneyStyle, headerStyle int) error {
	if _, err := f.NewSheet(sensitivitySheet); err != nil {
		return err
	}

	headers := []string{"Portfolio", "Full Withdrawal", "Return Shift", "Failure Rate", "Median"}
	for c, h := range headers {
		if err := setCell(f, sensitivitySheet, c+1, 1, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sensitivitySheet, "A1", "E1", headerStyle); err != nil {
		return err
	}

	row := 2
	for _, grid := range analysis.Portfolios {
		for _, cells := range grid.Cells {
			for _, cell := range cells {
				values := []any{grid.Portfolio, cell.FullWithdrawal, cell.ReturnShift, cell.FailureRate, cell.Median}
				for c, v := range values {
					if err := setCell(f, sensitivitySheet, c+1, row, v); err != nil {
						return err
					}
				}
				row++
			}
		}
	}

	if err := f.SetColWidth(sensitivitySheet, "A", "E", xlsxColumnWidth); err != nil {
		return err
	}
	if row == 2 {
		return nil
	}
	return f.SetCellStyle(sensitivitySheet, "B2", fmt.Sprintf("E%d", row-1), moneyStyle)
}

func writeXLSXSustainable(f *excelize.File, results []SustainableResult, moneyStyle, headerStyle int) error {
	if _, err := f.NewSheet(sustainableSheet); err != nil {
		return err
	}

	headers := []string{"Portfolio", "Full Withdrawal", "Reduced Withdrawal", "Failure Rate", "Target Failure Rate", "Converged"}
	for c, h := range headers {
		if err := setCell(f, sustainableSheet, c+1, 1, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sustainableSheet, "A1", "F1", headerStyle); err != nil {
		return err
	}

	for i, res := range results {
		values := []any{res.Portfolio, res.FullWithdrawal, res.ReducedWithdrawal, res.FailureRate, res.TargetFailureRate, res.Converged}
		for c, v := range values {
			if err := setCell(f, sustainableSheet, c+1, i+2, v); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(sustainableSheet, "A", "F", xlsxColumnWidth); err != nil {
		return err
	}
	return f.SetCellStyle(sustainableSheet, "B2", fmt.Sprintf("E%d", len(results)+1), moneyStyle)
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}

func stringPtr(s string) *string {
	return &s
}

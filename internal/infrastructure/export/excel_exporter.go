package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	appdispatch "github.com/codledger/backend/internal/application/dispatch"
	"github.com/xuri/excelize/v2"
)

// ExcelExporter renders dispatch sessions as xlsx workbooks. The sheet doubles
// as the form the carrier fills in: before results are imported the outcome
// columns are empty.
type ExcelExporter struct{}

// NewExcelExporter creates a new ExcelExporter
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// SessionWorkbook renders one session's orders and outcomes into a workbook
func (e *ExcelExporter) SessionWorkbook(sessionCode string, rows []appdispatch.ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"

	f.SetCellValue(sheet, "A1", "Session")
	f.SetCellValue(sheet, "B1", sessionCode)

	f.SetCellValue(sheet, "A2", "Order Code")
	f.SetCellValue(sheet, "B2", "COD Amount")
	f.SetCellValue(sheet, "C2", "Delivered")
	f.SetCellValue(sheet, "D2", "Collected Amount")

	for i, row := range rows {
		line := i + 3
		f.SetCellValue(sheet, fmt.Sprintf("A%d", line), row.OrderCode)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", line), row.Amount.String())
		if row.Delivered != nil {
			delivered := "no"
			if *row.Delivered {
				delivered = "yes"
			}
			f.SetCellValue(sheet, fmt.Sprintf("C%d", line), delivered)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", line), row.CollectedAmount.String())
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render session workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// SessionCSV renders the same sheet as comma-separated values
func (e *ExcelExporter) SessionCSV(sessionCode string, rows []appdispatch.ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{"Session", sessionCode, "", ""},
		{"Order Code", "COD Amount", "Delivered", "Collected Amount"},
	}
	for _, row := range rows {
		record := []string{row.OrderCode, row.Amount.String(), "", ""}
		if row.Delivered != nil {
			record[2] = "no"
			if *row.Delivered {
				record[2] = "yes"
			}
			record[3] = row.CollectedAmount.String()
		}
		records = append(records, record)
	}

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to render session csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Ensure ExcelExporter implements the dispatch Exporter
var _ appdispatch.Exporter = (*ExcelExporter)(nil)

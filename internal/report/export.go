// Package report renders administrative spreadsheet exports.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
)

const requestsSheet = "Service Requests"

var requestHeaders = []string{
	"Reference Number",
	"Service Type",
	"Subtype",
	"Priority",
	"Status",
	"Total (NGN)",
	"Paid (NGN)",
	"Payment Status",
	"Estimated Completion",
	"Actual Completion",
	"Created At",
}

var requestColumnWidths = []float64{26, 22, 22, 12, 16, 14, 14, 14, 22, 22, 22}

// RequestsWorkbook renders requests as an .xlsx document.
func RequestsWorkbook(requests []domain.ServiceRequest) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(requestsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, header := range requestHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellValue(requestsSheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(requestsSheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("style header %s: %w", cell, err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetColWidth(requestsSheet, name, name, requestColumnWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for i, req := range requests {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := []interface{}{
			req.ReferenceNumber,
			string(req.ServiceType),
			req.ServiceSubtype,
			string(req.Priority),
			string(req.Status),
			float64(req.TotalAmount) / 100,
			float64(req.PaidAmount) / 100,
			string(req.PaymentStatus),
			formatTime(&req.EstimatedCompletion),
			formatTime(req.ActualCompletion),
			formatTime(&req.CreatedAt),
		}
		if err := f.SetSheetRow(requestsSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(requestsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

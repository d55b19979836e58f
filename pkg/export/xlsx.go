package export

import (
	"fmt"
	"io"

	"github.com/Sternrassler/falcon-vulns/pkg/models"
	"github.com/xuri/excelize/v2"
)

// sheetName is the worksheet holding the report.
const sheetName = "Vulnerabilities"

// XLSXExporter renders records as an Excel workbook with a single
// Vulnerabilities sheet.
type XLSXExporter struct{}

// Export implements Exporter.
func (e *XLSXExporter) Export(w io.Writer, records []models.VulnerabilityRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, 1, Columns); err != nil {
		return err
	}
	for i, record := range records {
		if err := writeRow(f, i+2, record.Row()); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}

	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheetName, cell, &cells)
}

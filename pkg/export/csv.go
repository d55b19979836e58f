package export

import (
	"encoding/csv"
	"io"

	"github.com/Sternrassler/falcon-vulns/pkg/models"
)

// CSVExporter renders records as RFC 4180 CSV with minimal quoting.
type CSVExporter struct{}

// Export implements Exporter.
func (e *CSVExporter) Export(w io.Writer, records []models.VulnerabilityRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, record := range records {
		if err := cw.Write(record.Row()); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

package export

import (
	"bufio"
	"io"
	"strings"

	"github.com/Sternrassler/falcon-vulns/pkg/models"
)

// TXTExporter renders records as tab-delimited text.
type TXTExporter struct{}

// Export implements Exporter.
func (e *TXTExporter) Export(w io.Writer, records []models.VulnerabilityRecord) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(strings.Join(Columns, "\t") + "\n"); err != nil {
		return err
	}
	for _, record := range records {
		if _, err := bw.WriteString(strings.Join(record.Row(), "\t") + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}

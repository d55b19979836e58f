// Package export renders vulnerability records as XLSX workbooks,
// CSV files, or tab-delimited text reports.
package export

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Sternrassler/falcon-vulns/pkg/models"
)

// Columns is the fixed column order shared by every export format.
var Columns = []string{
	"Hostname",
	"Local IP",
	"Host groups",
	"Cloud service account ID",
	"Cloud service instance ID",
	"OS version",
	"Active Directory domain",
	"Vulnerability ID",
	"CVSS severity",
	"Vulnerable product versions",
	"Days open",
}

// timestampLayout renders the timestamp embedded in generated filenames.
const timestampLayout = "20060102_150405"

// Exporter renders vulnerability records into one output format.
type Exporter interface {
	// Export writes the header and one row per record to w.
	Export(w io.Writer, records []models.VulnerabilityRecord) error
}

// New returns the exporter for the given format.
func New(format models.ExportFormat) (Exporter, error) {
	switch format {
	case models.FormatXLSX:
		return &XLSXExporter{}, nil
	case models.FormatCSV:
		return &CSVExporter{}, nil
	case models.FormatTXT:
		return &TXTExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}
}

// DefaultFilename generates a timestamped filename for the format,
// for example falcon_vulns_20240131_154500.xlsx.
func DefaultFilename(format models.ExportFormat, now time.Time) string {
	return fmt.Sprintf("falcon_vulns_%s.%s", now.Format(timestampLayout), format.Extension())
}

// ResolvePath returns the explicit output path unchanged, or a
// generated timestamped filename when path is empty.
func ResolvePath(path string, format models.ExportFormat) string {
	if path != "" {
		return path
	}
	return DefaultFilename(format, time.Now())
}

// WriteFile renders the records to a file at the given path.
func WriteFile(path string, format models.ExportFormat, records []models.VulnerabilityRecord) error {
	exporter, err := New(format)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := exporter.Export(f, records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

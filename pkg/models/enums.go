// Package models defines the domain types shared across the falcon-vulns
// packages: filter criteria, vulnerability records, and their constrained
// enumerations.
package models

import (
	"fmt"
	"strings"
)

// Severity represents a vulnerability severity level.
type Severity string

const (
	// SeverityCritical is the highest severity level.
	SeverityCritical Severity = "CRITICAL"

	// SeverityHigh is the second highest severity level.
	SeverityHigh Severity = "HIGH"

	// SeverityMedium is the default severity level.
	SeverityMedium Severity = "MEDIUM"
)

// ParseSeverity parses a severity string case-insensitively.
// Returns an error for values outside the known set.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToUpper(s)) {
	case SeverityCritical:
		return SeverityCritical, nil
	case SeverityHigh:
		return SeverityHigh, nil
	case SeverityMedium:
		return SeverityMedium, nil
	default:
		return "", fmt.Errorf("unknown severity %q (valid: CRITICAL, HIGH, MEDIUM)", s)
	}
}

// SeverityOrDefault parses a severity string case-insensitively,
// falling back to SeverityMedium for unknown or empty values.
func SeverityOrDefault(s string) Severity {
	sev, err := ParseSeverity(s)
	if err != nil {
		return SeverityMedium
	}
	return sev
}

// DeviceType classifies the queried endpoint population.
type DeviceType string

const (
	// DeviceTypeClient selects workstations and desktops.
	DeviceTypeClient DeviceType = "CLIENT"

	// DeviceTypeServer selects servers.
	DeviceTypeServer DeviceType = "SERVER"

	// DeviceTypeBoth selects all device classes.
	DeviceTypeBoth DeviceType = "BOTH"
)

// ParseDeviceType parses a device type string case-insensitively.
func ParseDeviceType(s string) (DeviceType, error) {
	switch DeviceType(strings.ToUpper(s)) {
	case DeviceTypeClient:
		return DeviceTypeClient, nil
	case DeviceTypeServer:
		return DeviceTypeServer, nil
	case DeviceTypeBoth:
		return DeviceTypeBoth, nil
	default:
		return "", fmt.Errorf("unknown device type %q (valid: CLIENT, SERVER, BOTH)", s)
	}
}

// ExportFormat identifies an output file format.
type ExportFormat string

const (
	// FormatXLSX exports an Excel workbook.
	FormatXLSX ExportFormat = "XLSX"

	// FormatCSV exports comma-separated values.
	FormatCSV ExportFormat = "CSV"

	// FormatTXT exports tab-delimited text.
	FormatTXT ExportFormat = "TXT"
)

// ParseExportFormat parses an export format string case-insensitively.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToUpper(s)) {
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatTXT:
		return FormatTXT, nil
	default:
		return "", fmt.Errorf("unknown export format %q (valid: XLSX, CSV, TXT)", s)
	}
}

// Extension returns the lowercase file extension for the format, without a dot.
func (f ExportFormat) Extension() string {
	return strings.ToLower(string(f))
}

package models

import (
	"strconv"
	"strings"
	"time"
)

// Vulnerability describes a single CVE finding on a device.
type Vulnerability struct {
	// CVEID is the CVE identifier ("UNKNOWN" when the API omits it).
	CVEID string

	// Severity is the CVSS severity classification.
	Severity Severity

	// ProductVersions lists the affected product/version strings.
	ProductVersions []string

	// DaysOpen is the age of the finding in whole days.
	DaysOpen int

	// DetectedDate is when the finding was first created in the platform.
	DetectedDate time.Time

	// CVSSScore is the numeric CVSS base score (0.0-10.0), nil when absent.
	CVSSScore *float64

	// Description is the CVE description, empty when absent.
	Description string
}

// Device describes the managed endpoint a finding was observed on.
type Device struct {
	DeviceID     string
	Hostname     string
	LocalIP      string
	HostGroups   []string
	OSVersion    string
	DeviceType   DeviceType
	PlatformName string

	// CloudAccountID is the cloud provider account, empty for on-prem hosts.
	CloudAccountID string

	// CloudInstanceID is the cloud instance identifier, empty for on-prem hosts.
	CloudInstanceID string

	// ADDomain is the Active Directory domain, empty when unjoined.
	ADDomain string
}

// VulnerabilityRecord pairs one vulnerability with the device it was found on.
// Records are immutable once constructed and ordered as received from the API.
type VulnerabilityRecord struct {
	Vulnerability Vulnerability
	Device        Device
}

// Row flattens the record into the fixed export column order:
// Hostname, Local IP, Host groups, Cloud service account ID,
// Cloud service instance ID, OS version, Active Directory domain,
// Vulnerability ID, CVSS severity, Vulnerable product versions, Days open.
func (r VulnerabilityRecord) Row() []string {
	return []string{
		r.Device.Hostname,
		r.Device.LocalIP,
		strings.Join(r.Device.HostGroups, ", "),
		r.Device.CloudAccountID,
		r.Device.CloudInstanceID,
		r.Device.OSVersion,
		r.Device.ADDomain,
		r.Vulnerability.CVEID,
		string(r.Vulnerability.Severity),
		strings.Join(r.Vulnerability.ProductVersions, ", "),
		strconv.Itoa(r.Vulnerability.DaysOpen),
	}
}

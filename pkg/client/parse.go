package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/falcon-vulns/pkg/models"
)

// Wire types for the Spotlight combined vulnerabilities response.
// Only the fields the engine reads are declared; unknown fields are ignored.
type pageResponse struct {
	Resources []json.RawMessage `json:"resources"`
	Meta      struct {
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	} `json:"meta"`
}

type rawResource struct {
	ID               string   `json:"id"`
	CreatedTimestamp string   `json:"created_timestamp"`
	CVE              *rawCVE  `json:"cve"`
	Apps             []rawApp `json:"apps"`
	Host             *rawHost `json:"host"`
}

type rawCVE struct {
	ID          string   `json:"id"`
	Severity    string   `json:"severity"`
	BaseScore   *float64 `json:"base_score"`
	Description string   `json:"description"`
}

type rawApp struct {
	ProductNameVersion string `json:"product_name_version"`
}

type rawHost struct {
	DeviceID       string   `json:"device_id"`
	Hostname       string   `json:"hostname"`
	LocalIP        string   `json:"local_ip"`
	Groups         []string `json:"groups"`
	OSVersion      string   `json:"os_version"`
	PlatformName   string   `json:"platform_name"`
	CloudAccountID string   `json:"cloud_service_account_id"`
	CloudInstance  string   `json:"instance_id"`
	ADDomain       string   `json:"ad_domain"`
}

// parseResource translates one raw API resource into a VulnerabilityRecord.
// Missing or empty fields are substituted with defaults so a sparse
// resource still yields a complete record. Only malformed JSON produces
// an error, which the pagination loop treats as skip-and-continue.
func parseResource(raw json.RawMessage, criteria models.FilterCriteria) (models.VulnerabilityRecord, error) {
	var res rawResource
	if err := json.Unmarshal(raw, &res); err != nil {
		return models.VulnerabilityRecord{}, fmt.Errorf("unmarshal resource: %w", err)
	}

	now := time.Now().UTC()

	vuln := models.Vulnerability{
		CVEID:    "UNKNOWN",
		Severity: models.SeverityMedium,
	}
	if res.CVE != nil {
		if res.CVE.ID != "" {
			vuln.CVEID = res.CVE.ID
		}
		vuln.Severity = models.SeverityOrDefault(res.CVE.Severity)
		vuln.CVSSScore = res.CVE.BaseScore
		vuln.Description = res.CVE.Description
	}

	for _, app := range res.Apps {
		if app.ProductNameVersion != "" {
			vuln.ProductVersions = append(vuln.ProductVersions, app.ProductNameVersion)
		}
	}
	if len(vuln.ProductVersions) == 0 {
		vuln.ProductVersions = []string{"Unknown"}
	}

	// An unparseable detection timestamp means the age cannot be
	// established, so the record counts as zero days open.
	detected, err := time.Parse(time.RFC3339, res.CreatedTimestamp)
	if err != nil {
		detected = now
	}
	vuln.DetectedDate = detected.UTC()
	vuln.DaysOpen = int(now.Sub(vuln.DetectedDate).Hours() / 24)

	device := models.Device{
		DeviceID:     "UNKNOWN",
		Hostname:     "UNKNOWN",
		LocalIP:      "0.0.0.0",
		HostGroups:   []string{},
		OSVersion:    "Unknown",
		PlatformName: "Unknown",
	}
	if res.Host != nil {
		if res.Host.DeviceID != "" {
			device.DeviceID = res.Host.DeviceID
		}
		if res.Host.Hostname != "" {
			device.Hostname = res.Host.Hostname
		}
		if res.Host.LocalIP != "" {
			device.LocalIP = res.Host.LocalIP
		}
		if res.Host.Groups != nil {
			device.HostGroups = res.Host.Groups
		}
		if res.Host.OSVersion != "" {
			device.OSVersion = res.Host.OSVersion
		}
		if res.Host.PlatformName != "" {
			device.PlatformName = res.Host.PlatformName
		}
		device.CloudAccountID = res.Host.CloudAccountID
		device.CloudInstanceID = res.Host.CloudInstance
		device.ADDomain = res.Host.ADDomain
	}
	device.DeviceType = inferDeviceType(device.PlatformName, criteria.DeviceType)

	return models.VulnerabilityRecord{Vulnerability: vuln, Device: device}, nil
}

// inferDeviceType derives the device class from the reported platform
// name, falling back to the queried device type when the platform name
// matches neither class.
func inferDeviceType(platformName string, queried models.DeviceType) models.DeviceType {
	switch {
	case strings.Contains(platformName, "Workstation") || strings.Contains(platformName, "Desktop"):
		return models.DeviceTypeClient
	case strings.Contains(platformName, "Server"):
		return models.DeviceTypeServer
	default:
		return queried
	}
}

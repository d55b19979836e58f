package models

import (
	"fmt"
	"strings"
)

// FilterCriteria holds the operator-specified query parameters for a
// vulnerability retrieval. Build it once per invocation from validated
// input and treat it as immutable afterwards.
type FilterCriteria struct {
	// DeviceType restricts results to a device class (BOTH = no restriction).
	DeviceType DeviceType

	// Severities is the set of severity levels to match. Must be non-empty.
	Severities []Severity

	// MinDaysOpen excludes vulnerabilities younger than this many days.
	// Zero matches all ages. Must not be negative.
	MinDaysOpen int

	// ADDomain optionally restricts results to one Active Directory domain.
	ADDomain string

	// Hostname optionally restricts results to a single host.
	Hostname string
}

// Validate checks the criteria invariants.
func (c FilterCriteria) Validate() error {
	if len(c.Severities) == 0 {
		return fmt.Errorf("severities cannot be empty")
	}
	if c.MinDaysOpen < 0 {
		return fmt.Errorf("min days open must be >= 0, got %d", c.MinDaysOpen)
	}
	return nil
}

// ToFQL renders the criteria as a Falcon Query Language filter string.
// Clauses are emitted in a fixed order and joined with the FQL conjunction
// operator. The minimum-age clause is not part of this output; it depends
// on the current time and is appended by the query client.
func (c FilterCriteria) ToFQL() string {
	var clauses []string

	switch c.DeviceType {
	case DeviceTypeClient:
		clauses = append(clauses, "platform_name:*'Workstation'")
	case DeviceTypeServer:
		clauses = append(clauses, "platform_name:*'Server'")
	}
	// BOTH emits no device type clause.

	if len(c.Severities) > 0 {
		quoted := make([]string, len(c.Severities))
		for i, s := range c.Severities {
			quoted[i] = fmt.Sprintf("'%s'", s)
		}
		clauses = append(clauses, fmt.Sprintf("cve.severity:[%s]", strings.Join(quoted, ",")))
	}

	if c.ADDomain != "" {
		clauses = append(clauses, fmt.Sprintf("host.ad_domain:'%s'", c.ADDomain))
	}

	if c.Hostname != "" {
		clauses = append(clauses, fmt.Sprintf("host.hostname:'%s'", c.Hostname))
	}

	return strings.Join(clauses, "+")
}

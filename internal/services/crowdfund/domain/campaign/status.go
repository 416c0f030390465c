package campaign

import "strings"

// Status describes the derived campaign lifecycle label.
//
// It is never stored: it is recomputed from the clock, deadline, raised and
// goal on every read.
type Status string

const (
	StatusUnspecified Status = ""
	StatusOpen        Status = "open"
	StatusSucceeded   Status = "ended_successful"
	StatusFailed      Status = "ended_failed"
)

// AcceptsDonations reports whether donations are allowed in this status.
func (s Status) AcceptsDonations() bool {
	return s == StatusOpen
}

// AllowsRefunds reports whether refunds are allowed in this status.
func (s Status) AllowsRefunds() bool {
	return s == StatusFailed
}

// ParseStatus canonicalizes a status label.
func ParseStatus(value string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "open", "campaign_status_open":
		return StatusOpen, true
	case "ended_successful", "succeeded", "campaign_status_ended_successful":
		return StatusSucceeded, true
	case "ended_failed", "failed", "campaign_status_ended_failed":
		return StatusFailed, true
	default:
		return StatusUnspecified, false
	}
}

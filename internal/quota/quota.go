// Package quota holds the plan-relative usage policy shared by the usage
// endpoints: threshold classification, percentage and remaining math, and the
// byte to megabyte conversion used for storage accounting.
package quota

import "math"

// BytesPerMB is the storage accounting unit (MiB).
const BytesPerMB int64 = 1024 * 1024

// Status is the severity bucket for a usage percentage.
type Status string

const (
	StatusGood     Status = "good"
	StatusModerate Status = "moderate"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// ClassifyUsage maps a percentage to its status. Boundary values belong to the
// higher severity bucket.
func ClassifyUsage(percentage int) Status {
	switch {
	case percentage >= 95:
		return StatusCritical
	case percentage >= 80:
		return StatusWarning
	case percentage >= 60:
		return StatusModerate
	default:
		return StatusGood
	}
}

// Percentage returns round(used / limit * 100). A non-positive limit yields 0.
func Percentage(used, limit int64) int {
	if limit <= 0 || used <= 0 {
		return 0
	}
	return int(math.Round(float64(used) / float64(limit) * 100))
}

// Remaining returns max(0, limit - used).
func Remaining(used, limit int64) int64 {
	if used >= limit {
		return 0
	}
	return limit - used
}

// BytesToMB converts a byte count to storage megabytes, rounding up so that any
// non-empty file consumes at least 1 MB. Every byte/MB conversion in the service
// goes through here, for increments, decrements and reconciliation alike, so an
// upload followed by a delete of the same file nets to zero.
func BytesToMB(bytes int64) int64 {
	if bytes <= 0 {
		return 0
	}
	return (bytes + BytesPerMB - 1) / BytesPerMB
}

// Resource is the plan-relative view of one counter.
type Resource struct {
	Used       int64  `json:"used"`
	Limit      int64  `json:"limit"`
	Remaining  int64  `json:"remaining"`
	Percentage int    `json:"percentage"`
	Status     Status `json:"status"`
}

func Summarize(used, limit int64) Resource {
	pct := Percentage(used, limit)
	return Resource{
		Used:       used,
		Limit:      limit,
		Remaining:  Remaining(used, limit),
		Percentage: pct,
		Status:     ClassifyUsage(pct),
	}
}

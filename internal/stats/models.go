package stats

import (
	"strings"
	"time"

	"callrecord-intelligence/internal/apperror"
	"callrecord-intelligence/internal/records"
)

// Granularity selects the bucket size for period-based statistics.
type Granularity string

const (
	Hourly  Granularity = "hourly"
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// ParseGranularity accepts the enum values case-insensitively.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case Hourly:
		return Hourly, nil
	case Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	case Yearly:
		return Yearly, nil
	}
	return "", apperror.Validation("invalid_granularity",
		"granularity must be one of hourly, daily, weekly, monthly, yearly")
}

// Filter is the shared criteria shape every statistics operation accepts.
type Filter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	PhoneNumber string
	Currency    string
}

func (f Filter) recordFilter() records.Filter {
	return records.Filter{
		StartDate:   f.StartDate,
		EndDate:     f.EndDate,
		PhoneNumber: f.PhoneNumber,
		Currency:    f.Currency,
	}
}

// VolumePoint is one bucket of the call volume trend.
type VolumePoint struct {
	Period    time.Time `json:"period"`
	CallCount int       `json:"call_count"`
}

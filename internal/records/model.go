package records

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"callrecord-intelligence/internal/apperror"
)

// CallRecord is a single billed call between two parties.
//
// Duration and the calendar call date are always derived from the two
// timestamps, never stored, so they cannot drift out of sync with them.
// Inserted and LastUpdated are assigned by the repository, never by callers.
type CallRecord struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	CallerID  string          `json:"caller_id" db:"caller_id"`
	Recipient string          `json:"recipient" db:"recipient"`
	StartTime time.Time       `json:"start_time" db:"start_time"`
	EndTime   time.Time       `json:"end_time" db:"end_time"`
	Cost      decimal.Decimal `json:"cost" db:"cost"`
	Reference string          `json:"reference" db:"reference"`
	Currency  string          `json:"currency" db:"currency"`

	Inserted    time.Time `json:"inserted" db:"inserted"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// Duration is the call length in whole seconds.
func (r CallRecord) Duration() int {
	return int(r.EndTime.Sub(r.StartTime) / time.Second)
}

// CallDate is the calendar date portion of StartTime, in UTC.
func (r CallRecord) CallDate() time.Time {
	utc := r.StartTime.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

const maxPartyLength = 20

// AddRecordRequest carries the client-writable fields for a new record.
type AddRecordRequest struct {
	CallerID  string          `json:"caller_id"`
	Recipient string          `json:"recipient"`
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
	Cost      decimal.Decimal `json:"cost"`
	Reference string          `json:"reference"`
	Currency  string          `json:"currency"`
}

// Validate checks the request against the record invariants.
func (req AddRecordRequest) Validate() error {
	switch {
	case strings.TrimSpace(req.CallerID) == "":
		return apperror.Validation("caller_id_is_required", "caller id is required")
	case len(req.CallerID) > maxPartyLength:
		return apperror.Validation("caller_id_too_long", "caller id cannot exceed 20 characters")
	case strings.TrimSpace(req.Recipient) == "":
		return apperror.Validation("recipient_is_required", "recipient is required")
	case len(req.Recipient) > maxPartyLength:
		return apperror.Validation("recipient_too_long", "recipient cannot exceed 20 characters")
	case req.StartTime.IsZero():
		return apperror.Validation("start_time_is_required", "call start time is required")
	case req.EndTime.IsZero():
		return apperror.Validation("end_time_is_required", "call end time is required")
	case req.EndTime.Before(req.StartTime):
		return apperror.Validation("end_time_before_start_time", "call end time must not precede start time")
	case req.Cost.LessThanOrEqual(decimal.Zero):
		return apperror.Validation("cost_must_be_positive", "cost must be greater than 0")
	case strings.TrimSpace(req.Reference) == "":
		return apperror.Validation("reference_is_required", "reference is required")
	case len(req.Currency) != 3:
		return apperror.Validation("currency_must_be_three_letters", "currency must be a 3-letter code")
	}
	return nil
}

// record builds the entity from a validated request.
func (req AddRecordRequest) record() CallRecord {
	return CallRecord{
		CallerID:  req.CallerID,
		Recipient: req.Recipient,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Cost:      req.Cost,
		Reference: req.Reference,
		Currency:  req.Currency,
	}
}

// RecordPatch is a partial update: nil fields leave the current value alone.
type RecordPatch struct {
	CallerID  *string          `json:"caller_id"`
	Recipient *string          `json:"recipient"`
	StartTime *time.Time       `json:"start_time"`
	EndTime   *time.Time       `json:"end_time"`
	Cost      *decimal.Decimal `json:"cost"`
	Reference *string          `json:"reference"`
	Currency  *string          `json:"currency"`
}

// Apply merges the patch into rec: present fields overwrite, absent fields
// are retained.
func (p RecordPatch) Apply(rec CallRecord) CallRecord {
	if p.CallerID != nil {
		rec.CallerID = *p.CallerID
	}
	if p.Recipient != nil {
		rec.Recipient = *p.Recipient
	}
	if p.StartTime != nil {
		rec.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		rec.EndTime = *p.EndTime
	}
	if p.Cost != nil {
		rec.Cost = *p.Cost
	}
	if p.Reference != nil {
		rec.Reference = *p.Reference
	}
	if p.Currency != nil {
		rec.Currency = *p.Currency
	}
	return rec
}

// Validate rejects patch values that would break record invariants.
func (p RecordPatch) Validate() error {
	if p.CallerID != nil {
		if strings.TrimSpace(*p.CallerID) == "" {
			return apperror.Validation("caller_id_is_required", "caller id cannot be blank")
		}
		if len(*p.CallerID) > maxPartyLength {
			return apperror.Validation("caller_id_too_long", "caller id cannot exceed 20 characters")
		}
	}
	if p.Recipient != nil {
		if strings.TrimSpace(*p.Recipient) == "" {
			return apperror.Validation("recipient_is_required", "recipient cannot be blank")
		}
		if len(*p.Recipient) > maxPartyLength {
			return apperror.Validation("recipient_too_long", "recipient cannot exceed 20 characters")
		}
	}
	if p.Cost != nil && p.Cost.LessThanOrEqual(decimal.Zero) {
		return apperror.Validation("cost_must_be_positive", "cost must be greater than 0")
	}
	if p.Reference != nil && strings.TrimSpace(*p.Reference) == "" {
		return apperror.Validation("reference_is_required", "reference cannot be blank")
	}
	if p.Currency != nil && len(*p.Currency) != 3 {
		return apperror.Validation("currency_must_be_three_letters", "currency must be a 3-letter code")
	}
	return nil
}

// validateTimes checks the patched record still has an ordered time range.
func validateTimes(rec CallRecord) error {
	if rec.EndTime.Before(rec.StartTime) {
		return apperror.Validation("end_time_before_start_time", "call end time must not precede start time")
	}
	return nil
}

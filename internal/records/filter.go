package records

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Filter holds optional record-matching criteria. Absent (nil/blank)
// criteria do not restrict the result; active criteria combine with AND.
type Filter struct {
	ID        *uuid.UUID
	Reference *string

	StartDate   *time.Time
	EndDate     *time.Time
	PhoneNumber string
	Currency    string
}

// ByID matches exactly one record by primary key.
func ByID(id uuid.UUID) Filter { return Filter{ID: &id} }

// ByReference matches records by the alternate reference key.
func ByReference(ref string) Filter { return Filter{Reference: &ref} }

// Predicate is a boolean test over a single record.
type Predicate func(CallRecord) bool

// True matches every record.
func True() Predicate { return func(CallRecord) bool { return true } }

// And combines predicates so that all must hold.
func And(ps ...Predicate) Predicate {
	return func(r CallRecord) bool {
		for _, p := range ps {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Or combines predicates so that at least one must hold.
func Or(ps ...Predicate) Predicate {
	return func(r CallRecord) bool {
		for _, p := range ps {
			if p(r) {
				return true
			}
		}
		return false
	}
}

// Predicate composes the filter's active clauses into one test. Repositories
// that evaluate in memory run this directly; the Postgres repository
// translates the same clauses into SQL, and the two must agree.
func (f Filter) Predicate() Predicate {
	pred := True()

	if f.ID != nil {
		id := *f.ID
		pred = And(pred, func(r CallRecord) bool { return r.ID == id })
	}
	if f.Reference != nil {
		ref := *f.Reference
		pred = And(pred, func(r CallRecord) bool { return r.Reference == ref })
	}
	if f.StartDate != nil {
		start := f.StartDate.UTC()
		pred = And(pred, func(r CallRecord) bool { return !r.StartTime.UTC().Before(start) })
	}
	if f.EndDate != nil {
		end := f.EndDate.UTC()
		pred = And(pred, func(r CallRecord) bool { return !r.EndTime.UTC().After(end) })
	}
	if phone := strings.ToLower(strings.TrimSpace(f.PhoneNumber)); phone != "" {
		caller := func(r CallRecord) bool {
			return strings.Contains(strings.ToLower(strings.TrimSpace(r.CallerID)), phone)
		}
		recipient := func(r CallRecord) bool {
			return strings.Contains(strings.ToLower(strings.TrimSpace(r.Recipient)), phone)
		}
		pred = And(pred, Or(caller, recipient))
	}
	if currency := strings.ToLower(strings.TrimSpace(f.Currency)); currency != "" {
		pred = And(pred, func(r CallRecord) bool {
			return strings.ToLower(strings.TrimSpace(r.Currency)) == currency
		})
	}

	return pred
}

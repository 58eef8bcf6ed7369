package records

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by repositories when an update or remove targets a
// record that no longer exists.
var ErrNotFound = errors.New("records: not found")

// Field selects the numeric column an aggregate runs over.
type Field int

const (
	// FieldCost is the decimal call cost.
	FieldCost Field = iota
	// FieldDuration is the call length in seconds, derived from the two
	// timestamps.
	FieldDuration
)

// Order selects the result ordering of a list query.
type Order int

const (
	// OrderDefault is a stable order (start time, then id).
	OrderDefault Order = iota
	// OrderDurationDesc sorts longest calls first.
	OrderDurationDesc
)

// ListOptions bounds and orders a list query. Take <= 0 means no limit.
type ListOptions struct {
	Order Order
	Skip  int
	Take  int
}

// Repository is the record store consumed by the CRUD service and the
// statistics engine. Implementations must be behaviorally equivalent to
// evaluating Filter.Predicate over the full record set, whether they filter
// in memory or push the criteria into a query engine.
type Repository interface {
	Count(ctx context.Context, f Filter) (int, error)
	Sum(ctx context.Context, f Filter, field Field) (decimal.Decimal, error)
	// Average returns zero (not an error) when no record matches.
	Average(ctx context.Context, f Filter, field Field) (decimal.Decimal, error)
	List(ctx context.Context, f Filter, opts ListOptions) ([]CallRecord, error)

	Add(ctx context.Context, rec CallRecord) (CallRecord, error)
	AddRange(ctx context.Context, recs []CallRecord) error
	Update(ctx context.Context, rec CallRecord) (CallRecord, error)
	Remove(ctx context.Context, rec CallRecord) (CallRecord, error)
}

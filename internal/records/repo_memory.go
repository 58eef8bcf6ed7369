package records

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryRepo is an in-memory repository for tests and early development.
// It evaluates filters via Filter.Predicate, which makes it the reference
// implementation for filter semantics.
type MemoryRepo struct {
	mu      sync.Mutex
	Records []CallRecord

	now func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{now: func() time.Time { return time.Now().UTC() }}
}

func (m *MemoryRepo) matching(f Filter) []CallRecord {
	pred := f.Predicate()
	out := make([]CallRecord, 0)
	for _, r := range m.Records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

func (m *MemoryRepo) Count(ctx context.Context, f Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matching(f)), nil
}

func fieldValue(r CallRecord, field Field) decimal.Decimal {
	if field == FieldCost {
		return r.Cost
	}
	return decimal.NewFromInt(int64(r.Duration()))
}

func (m *MemoryRepo) Sum(ctx context.Context, f Filter, field Field) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, r := range m.matching(f) {
		total = total.Add(fieldValue(r, field))
	}
	return total, nil
}

func (m *MemoryRepo) Average(ctx context.Context, f Filter, field Field) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := m.matching(f)
	if len(matched) == 0 {
		return decimal.Zero, nil
	}
	total := decimal.Zero
	for _, r := range matched {
		total = total.Add(fieldValue(r, field))
	}
	return total.Div(decimal.NewFromInt(int64(len(matched)))), nil
}

func (m *MemoryRepo) List(ctx context.Context, f Filter, opts ListOptions) ([]CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := m.matching(f)

	switch opts.Order {
	case OrderDurationDesc:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Duration() > matched[j].Duration()
		})
	default:
		sort.SliceStable(matched, func(i, j int) bool {
			if !matched[i].StartTime.Equal(matched[j].StartTime) {
				return matched[i].StartTime.Before(matched[j].StartTime)
			}
			return bytes.Compare(matched[i].ID[:], matched[j].ID[:]) < 0
		})
	}

	if opts.Skip > 0 {
		if opts.Skip >= len(matched) {
			return []CallRecord{}, nil
		}
		matched = matched[opts.Skip:]
	}
	if opts.Take > 0 && opts.Take < len(matched) {
		matched = matched[:opts.Take]
	}
	return matched, nil
}

func (m *MemoryRepo) Add(ctx context.Context, rec CallRecord) (CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec = m.stamp(rec)
	m.Records = append(m.Records, rec)
	return rec, nil
}

func (m *MemoryRepo) AddRange(ctx context.Context, recs []CallRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		m.Records = append(m.Records, m.stamp(rec))
	}
	return nil
}

func (m *MemoryRepo) Update(ctx context.Context, rec CallRecord) (CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.Records {
		if existing.ID == rec.ID {
			rec.Inserted = existing.Inserted
			rec.LastUpdated = m.now()
			m.Records[i] = rec
			return rec, nil
		}
	}
	return CallRecord{}, ErrNotFound
}

func (m *MemoryRepo) Remove(ctx context.Context, rec CallRecord) (CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.Records {
		if existing.ID == rec.ID {
			m.Records = append(m.Records[:i], m.Records[i+1:]...)
			return existing, nil
		}
	}
	return CallRecord{}, ErrNotFound
}

// stamp assigns the store-owned fields.
func (m *MemoryRepo) stamp(rec CallRecord) CallRecord {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := m.now()
	rec.Inserted = now
	rec.LastUpdated = now
	return rec
}

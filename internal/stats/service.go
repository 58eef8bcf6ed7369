package stats

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"callrecord-intelligence/internal/apperror"
	"callrecord-intelligence/internal/records"
	"callrecord-intelligence/pkg/logger"
)

// Service computes aggregate statistics over the record store. Every
// operation pipes its filter through the shared predicate builder
// (records.Filter) and issues its store calls sequentially. Store failures
// are logged with the filter and re-coded as typed errors; nothing
// propagates raw past this boundary.
//
// cache is optional: when set, scalar, trend and by-currency results are
// cached under a canonical op+filter key with a short TTL. Cache failures
// only cost a recompute.
type Service struct {
	repo  records.Repository
	cache Cache
	ttl   time.Duration
}

func NewService(repo records.Repository, cache Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Service{repo: repo, cache: cache, ttl: ttl}
}

// cached wraps compute with a cache lookup when the service has a cache.
func cached[T any](ctx context.Context, s *Service, op string, f Filter, g Granularity, compute func() (T, error)) (T, error) {
	if s.cache == nil {
		return compute()
	}
	key := cacheKey(op, f, g)

	var hit T
	ok, err := s.cache.Get(ctx, key, &hit)
	if err != nil {
		logger.From(ctx).Warn("statistics cache read failed", "op", op, "err", err)
	} else if ok {
		return hit, nil
	}

	out, err := compute()
	if err != nil {
		return out, err
	}
	if err := s.cache.Set(ctx, key, out, s.ttl); err != nil {
		logger.From(ctx).Warn("statistics cache write failed", "op", op, "err", err)
	}
	return out, nil
}

// AverageCost is sum(cost)/count rounded to 3 decimal places, half away
// from zero. An empty match yields zero, not an error.
func (s *Service) AverageCost(ctx context.Context, f Filter) (decimal.Decimal, error) {
	return cached(ctx, s, "average-cost", f, "", func() (decimal.Decimal, error) {
		pred := f.recordFilter()

		totalCost, err := s.repo.Sum(ctx, pred, records.FieldCost)
		if err != nil {
			logger.From(ctx).Error("summing call costs failed", "filter", f, "err", err)
			return decimal.Zero, apperror.Unexpected("error_summing_call_costs", "").Wrap(err)
		}
		totalCount, err := s.repo.Count(ctx, pred)
		if err != nil {
			logger.From(ctx).Error("counting calls for average cost failed", "filter", f, "err", err)
			return decimal.Zero, apperror.Unexpected("error_counting_calls_for_average_cost", "").Wrap(err)
		}

		if totalCount == 0 {
			return decimal.Zero, nil
		}
		return totalCost.Div(decimal.NewFromInt(int64(totalCount))).Round(3), nil
	})
}

// TotalCalls is a pass-through of the filtered count.
func (s *Service) TotalCalls(ctx context.Context, f Filter) (int, error) {
	return cached(ctx, s, "total-calls", f, "", func() (int, error) {
		total, err := s.repo.Count(ctx, f.recordFilter())
		if err != nil {
			logger.From(ctx).Error("counting calls failed", "filter", f, "err", err)
			return 0, apperror.Unexpected("error_counting_calls", "").Wrap(err)
		}
		return total, nil
	})
}

// AverageDuration averages end-start in seconds, truncated to whole seconds.
// A zero average is confirmed against a count before being trusted, in case
// the store reported zero for a non-empty set.
func (s *Service) AverageDuration(ctx context.Context, f Filter) (time.Duration, error) {
	return cached(ctx, s, "average-duration", f, "", func() (time.Duration, error) {
		pred := f.recordFilter()

		avg, err := s.repo.Average(ctx, pred, records.FieldDuration)
		if err != nil {
			logger.From(ctx).Error("averaging call durations failed", "filter", f, "err", err)
			return 0, apperror.Unexpected("error_calculating_average_duration_in_repository", "").Wrap(err)
		}

		if avg.IsZero() {
			total, err := s.repo.Count(ctx, pred)
			if err != nil {
				logger.From(ctx).Error("counting calls for average duration failed", "filter", f, "err", err)
				return 0, apperror.Unexpected("error_counting_calls_for_average_duration", "").Wrap(err)
			}
			if total == 0 {
				return 0, nil
			}
		}
		return time.Duration(avg.IntPart()) * time.Second, nil
	})
}

// LongestCalls returns up to count records ordered by descending duration.
// A non-positive count returns an empty list without touching the store.
func (s *Service) LongestCalls(ctx context.Context, count int, f Filter) ([]records.CallRecord, error) {
	if count <= 0 {
		return []records.CallRecord{}, nil
	}
	longest, err := s.repo.List(ctx, f.recordFilter(), records.ListOptions{
		Order: records.OrderDurationDesc,
		Take:  count,
	})
	if err != nil {
		logger.From(ctx).Error("fetching longest calls failed", "filter", f, "count", count, "err", err)
		return nil, apperror.Unexpected("error_fetching_longest_calls", "").Wrap(err)
	}
	return longest, nil
}

// CallsPerPeriod divides the filtered call count by the number of whole
// periods spanned by the filter's date range. Both dates are required.
// Weekly granularity is not supported for this operation.
func (s *Service) CallsPerPeriod(ctx context.Context, f Filter, g Granularity) (float64, error) {
	if f.StartDate == nil || f.EndDate == nil {
		return 0, apperror.Validation("dates_are_required_for_calls_per_period",
			"start and end dates are required for calls per period")
	}
	if g == Weekly {
		return 0, apperror.Validation("granularity_not_supported_for_calls_per_period",
			"weekly granularity is not supported for calls per period")
	}

	return cached(ctx, s, "calls-per-period", f, g, func() (float64, error) {
		totalCalls, err := s.repo.Count(ctx, f.recordFilter())
		if err != nil {
			logger.From(ctx).Error("counting calls for calls per period failed", "filter", f, "err", err)
			return 0, apperror.Unexpected("error_getting_total_call_count_for_calls_per_period", "").Wrap(err)
		}
		if totalCalls == 0 {
			return 0, nil
		}

		start := f.StartDate.UTC()
		end := f.EndDate.UTC()
		span := end.Sub(start)

		var periods float64
		switch g {
		case Hourly:
			periods = span.Hours()
		case Daily:
			periods = span.Hours() / 24
		case Monthly:
			periods = float64((end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month()))
			if end.Day() < start.Day() && periods > 0 {
				periods--
			}
		case Yearly:
			periods = float64(end.Year() - start.Year())
			if end.YearDay() < start.YearDay() && periods > 0 {
				periods--
			}
		}
		if periods <= 0 {
			periods = 1
		}
		return float64(totalCalls) / periods, nil
	})
}

// VolumeTrend buckets matching calls by the UTC start of their period and
// returns the buckets in ascending period order. Both dates are required.
func (s *Service) VolumeTrend(ctx context.Context, f Filter, g Granularity) ([]VolumePoint, error) {
	if f.StartDate == nil || f.EndDate == nil {
		return nil, apperror.Validation("dates_are_required_for_call_volume_trend",
			"start and end dates are required for call volume trend")
	}

	return cached(ctx, s, "call-volume-trend", f, g, func() ([]VolumePoint, error) {
		matching, err := s.repo.List(ctx, f.recordFilter(), records.ListOptions{})
		if err != nil {
			logger.From(ctx).Error("fetching calls for volume trend failed", "filter", f, "err", err)
			return nil, apperror.Unexpected("error_fetching_calls_for_volume_trend", "").Wrap(err)
		}

		buckets := make(map[time.Time]int)
		for _, rec := range matching {
			buckets[periodStart(rec.StartTime, g)]++
		}

		points := make([]VolumePoint, 0, len(buckets))
		for period, n := range buckets {
			points = append(points, VolumePoint{Period: period, CallCount: n})
		}
		sort.Slice(points, func(i, j int) bool { return points[i].Period.Before(points[j].Period) })
		return points, nil
	})
}

// CostByCurrency groups matching calls by currency and sums cost per group.
// An empty match yields an empty map.
func (s *Service) CostByCurrency(ctx context.Context, f Filter) (map[string]decimal.Decimal, error) {
	return cached(ctx, s, "cost-by-currency", f, "", func() (map[string]decimal.Decimal, error) {
		matching, err := s.repo.List(ctx, f.recordFilter(), records.ListOptions{})
		if err != nil {
			logger.From(ctx).Error("fetching calls for cost by currency failed", "filter", f, "err", err)
			return nil, apperror.Unexpected("error_fetching_calls_for_cost_by_currency", "").Wrap(err)
		}

		totals := make(map[string]decimal.Decimal)
		for _, rec := range matching {
			totals[rec.Currency] = totals[rec.Currency].Add(rec.Cost)
		}
		return totals, nil
	})
}

// periodStart truncates t to the start of its period in UTC. Weeks start on
// Monday.
func periodStart(t time.Time, g Granularity) time.Time {
	utc := t.UTC()
	switch g {
	case Hourly:
		return utc.Truncate(time.Hour)
	case Daily:
		return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	case Weekly:
		day := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
		diff := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -diff)
	case Monthly:
		return time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)
	case Yearly:
		return time.Date(utc.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return utc
}

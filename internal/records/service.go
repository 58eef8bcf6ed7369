package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"callrecord-intelligence/internal/apperror"
	"callrecord-intelligence/pkg/logger"
)

// Service implements CRUD over call records on top of a Repository.
// Every operation returns a typed apperror across its boundary; repository
// failures are logged here with operation context and re-coded, never
// propagated raw.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// getSingle runs a single-record lookup as a list query bounded to one row.
func (s *Service) getSingle(ctx context.Context, f Filter) (CallRecord, error) {
	matches, err := s.repo.List(ctx, f, ListOptions{Take: 1})
	if err != nil {
		return CallRecord{}, err
	}
	if len(matches) == 0 {
		return CallRecord{}, apperror.NotFound("call_record_not_found", "call record was not found")
	}
	return matches[0], nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (CallRecord, error) {
	rec, err := s.getSingle(ctx, ByID(id))
	if err != nil {
		if apperror.IsNotFound(err) {
			return CallRecord{}, err
		}
		logger.From(ctx).Error("get call record failed", "call_record_id", id, "err", err)
		return CallRecord{}, apperror.Unexpected("error_getting_call_record", "").Wrap(err)
	}
	return rec, nil
}

func (s *Service) GetByReference(ctx context.Context, reference string) (CallRecord, error) {
	if strings.TrimSpace(reference) == "" {
		return CallRecord{}, apperror.Validation("reference_is_required", "reference is required")
	}
	rec, err := s.getSingle(ctx, ByReference(reference))
	if err != nil {
		if apperror.IsNotFound(err) {
			return CallRecord{}, err
		}
		logger.From(ctx).Error("get call record by reference failed", "reference", reference, "err", err)
		return CallRecord{}, apperror.Unexpected("error_getting_call_record", "").Wrap(err)
	}
	return rec, nil
}

// ListQuery selects a page of records with optional filtering.
type ListQuery struct {
	Page        int
	PageSize    int
	PhoneNumber string
	StartDate   *time.Time
	EndDate     *time.Time
}

// ListPaged counts matching records first and only runs the list query when
// the count is positive, so an empty filter match costs a single round trip.
func (s *Service) ListPaged(ctx context.Context, q ListQuery) (Page[CallRecord], error) {
	if q.PageSize <= 0 {
		q.PageSize = 50
	}
	if q.Page < 0 {
		q.Page = 0
	}
	f := Filter{
		PhoneNumber: q.PhoneNumber,
		StartDate:   q.StartDate,
		EndDate:     q.EndDate,
	}

	total, err := s.repo.Count(ctx, f)
	if err != nil {
		logger.From(ctx).Error("count call records failed", "err", err)
		return Page[CallRecord]{}, apperror.Unexpected("error_counting_call_records", "").Wrap(err)
	}

	items := []CallRecord{}
	if total > 0 {
		items, err = s.repo.List(ctx, f, ListOptions{
			Skip: q.Page * q.PageSize,
			Take: q.PageSize,
		})
		if err != nil {
			logger.From(ctx).Error("list call records failed", "err", err)
			return Page[CallRecord]{}, apperror.Unexpected("error_listing_call_records", "").Wrap(err)
		}
	}

	return NewPage(items, q.Page, q.PageSize, total), nil
}

func (s *Service) Add(ctx context.Context, req AddRecordRequest) (CallRecord, error) {
	if err := req.Validate(); err != nil {
		return CallRecord{}, err
	}
	rec, err := s.repo.Add(ctx, req.record())
	if err != nil {
		logger.From(ctx).Error("add call record failed", "reference", req.Reference, "err", err)
		return CallRecord{}, apperror.Unexpected("error_adding_call_record", "").Wrap(err)
	}
	return rec, nil
}

func (s *Service) AddRange(ctx context.Context, reqs []AddRecordRequest) error {
	recs := make([]CallRecord, 0, len(reqs))
	for _, req := range reqs {
		if err := req.Validate(); err != nil {
			return err
		}
		recs = append(recs, req.record())
	}
	if err := s.repo.AddRange(ctx, recs); err != nil {
		logger.From(ctx).Error("add call records batch failed", "count", len(recs), "err", err)
		return apperror.Unexpected("error_adding_call_records", "").Wrap(err)
	}
	return nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, patch RecordPatch) (CallRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return CallRecord{}, err
	}
	return s.applyUpdate(ctx, rec, patch)
}

func (s *Service) UpdateByReference(ctx context.Context, reference string, patch RecordPatch) (CallRecord, error) {
	rec, err := s.GetByReference(ctx, reference)
	if err != nil {
		return CallRecord{}, err
	}
	return s.applyUpdate(ctx, rec, patch)
}

func (s *Service) applyUpdate(ctx context.Context, rec CallRecord, patch RecordPatch) (CallRecord, error) {
	if err := patch.Validate(); err != nil {
		return CallRecord{}, err
	}
	updated := patch.Apply(rec)
	if err := validateTimes(updated); err != nil {
		return CallRecord{}, err
	}
	out, err := s.repo.Update(ctx, updated)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return CallRecord{}, apperror.NotFound("call_record_not_found", "call record was not found")
		}
		logger.From(ctx).Error("update call record failed", "call_record_id", rec.ID, "err", err)
		return CallRecord{}, apperror.Unexpected("error_updating_call_record", "").Wrap(err)
	}
	return out, nil
}

// Remove deletes by id. The fetch and the delete are two store calls; a
// concurrent delete of the same record surfaces as NotFound.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) (CallRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return CallRecord{}, err
	}
	return s.remove(ctx, rec)
}

func (s *Service) RemoveByReference(ctx context.Context, reference string) (CallRecord, error) {
	rec, err := s.GetByReference(ctx, reference)
	if err != nil {
		return CallRecord{}, err
	}
	return s.remove(ctx, rec)
}

func (s *Service) remove(ctx context.Context, rec CallRecord) (CallRecord, error) {
	out, err := s.repo.Remove(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return CallRecord{}, apperror.NotFound("call_record_not_found", "call record was not found")
		}
		logger.From(ctx).Error("remove call record failed", "call_record_id", rec.ID, "err", err)
		return CallRecord{}, apperror.Unexpected("error_removing_call_record", "").Wrap(err)
	}
	return out, nil
}

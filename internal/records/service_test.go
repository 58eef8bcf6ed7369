package records

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"callrecord-intelligence/internal/apperror"
)

// spyRepo records which repository methods were hit.
type spyRepo struct {
	*MemoryRepo
	countCalls int
	listCalls  int
}

func (s *spyRepo) Count(ctx context.Context, f Filter) (int, error) {
	s.countCalls++
	return s.MemoryRepo.Count(ctx, f)
}

func (s *spyRepo) List(ctx context.Context, f Filter, opts ListOptions) ([]CallRecord, error) {
	s.listCalls++
	return s.MemoryRepo.List(ctx, f, opts)
}

func seedRecords(t *testing.T, svc *Service, n int) []CallRecord {
	t.Helper()
	out := make([]CallRecord, 0, n)
	base := time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		req := validAddRequest()
		req.Reference = "REF" + string(rune('A'+i))
		req.StartTime = base.Add(time.Duration(i) * time.Hour)
		req.EndTime = req.StartTime.Add(time.Minute)
		rec, err := svc.Add(context.Background(), req)
		if err != nil {
			t.Fatalf("seed add failed: %v", err)
		}
		out = append(out, rec)
	}
	return out
}

func TestService_AddAssignsStoreFields(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	rec, err := svc.Add(context.Background(), validAddRequest())
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if rec.ID == uuid.Nil {
		t.Fatalf("expected assigned id")
	}
	if rec.Inserted.IsZero() || rec.LastUpdated.IsZero() {
		t.Fatalf("expected timestamps assigned: %+v", rec)
	}
}

func TestService_AddRejectsInvalid(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	req := validAddRequest()
	req.Currency = "x"
	if _, err := svc.Add(context.Background(), req); !apperror.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_GetByID(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	seeded := seedRecords(t, svc, 3)

	got, err := svc.Get(context.Background(), seeded[1].ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Reference != seeded[1].Reference {
		t.Fatalf("expected %q, got %q", seeded[1].Reference, got.Reference)
	}

	_, err = svc.Get(context.Background(), uuid.New())
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if got := apperror.From(err).Code; got != "call_record_not_found" {
		t.Fatalf("expected call_record_not_found, got %q", got)
	}
}

func TestService_GetByReference(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	seedRecords(t, svc, 2)

	got, err := svc.GetByReference(context.Background(), "REFB")
	if err != nil {
		t.Fatalf("get by reference failed: %v", err)
	}
	if got.Reference != "REFB" {
		t.Fatalf("expected REFB, got %q", got.Reference)
	}

	if _, err := svc.GetByReference(context.Background(), "  "); !apperror.IsValidation(err) {
		t.Fatalf("expected validation error for blank reference, got %v", err)
	}
	if _, err := svc.GetByReference(context.Background(), "NOPE"); !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_ListPaged(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	seedRecords(t, svc, 25)

	page, err := svc.ListPaged(context.Background(), ListQuery{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(page.Items))
	}
	if page.Total != 25 || page.TotalPages != 3 {
		t.Fatalf("expected total 25 across 3 pages, got %d/%d", page.Total, page.TotalPages)
	}
	if page.NextPage == nil || *page.NextPage != 2 {
		t.Fatalf("expected next page 2, got %v", page.NextPage)
	}
	// ordered by start time, page 1 begins at the 11th record
	if page.Items[0].Reference != "REF"+string(rune('A'+10)) {
		t.Fatalf("unexpected page start: %q", page.Items[0].Reference)
	}
}

func TestService_ListPagedSkipsListWhenEmpty(t *testing.T) {
	spy := &spyRepo{MemoryRepo: NewMemoryRepo()}
	svc := NewService(spy)

	page, err := svc.ListPaged(context.Background(), ListQuery{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if spy.countCalls != 1 {
		t.Fatalf("expected one count call, got %d", spy.countCalls)
	}
	if spy.listCalls != 0 {
		t.Fatalf("expected no list call on empty match, got %d", spy.listCalls)
	}
	if len(page.Items) != 0 || page.NextPage != nil || page.TotalPages != 0 {
		t.Fatalf("expected empty page, got %+v", page)
	}
}

func TestService_ListPagedFiltersByPhone(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	seedRecords(t, svc, 2)

	req := validAddRequest()
	req.CallerID = "999000"
	req.Reference = "OTHER"
	if _, err := svc.Add(context.Background(), req); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	page, err := svc.ListPaged(context.Background(), ListQuery{PhoneNumber: "999"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Total != 1 || page.Items[0].Reference != "OTHER" {
		t.Fatalf("expected the single 999 record, got %+v", page)
	}
}

func TestService_UpdateMergesPatch(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	seeded := seedRecords(t, svc, 1)

	newCost := decimal.NewFromFloat(9.99)
	got, err := svc.Update(context.Background(), seeded[0].ID, RecordPatch{Cost: &newCost})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !got.Cost.Equal(newCost) {
		t.Fatalf("expected cost updated, got %s", got.Cost)
	}
	if got.CallerID != seeded[0].CallerID || got.Reference != seeded[0].Reference {
		t.Fatalf("absent fields must be retained: %+v", got)
	}
}

func TestService_UpdateByReferenceOverwritesReference(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	seedRecords(t, svc, 1)

	newRef := "RENAMED"
	got, err := svc.UpdateByReference(context.Background(), "REFA", RecordPatch{Reference: &newRef})
	if err != nil {
		t.Fatalf("update by reference failed: %v", err)
	}
	if got.Reference != "RENAMED" {
		t.Fatalf("expected reference overwritten, got %q", got.Reference)
	}

	if _, err := svc.GetByReference(context.Background(), "REFA"); !apperror.IsNotFound(err) {
		t.Fatalf("old reference should be gone, got %v", err)
	}
}

func TestService_UpdateRejectsInvertedTimes(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	seeded := seedRecords(t, svc, 1)

	badEnd := seeded[0].StartTime.Add(-time.Hour)
	_, err := svc.Update(context.Background(), seeded[0].ID, RecordPatch{EndTime: &badEnd})
	if !apperror.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := apperror.From(err).Code; got != "end_time_before_start_time" {
		t.Fatalf("expected end_time_before_start_time, got %q", got)
	}
}

func TestService_UpdateMissingRecord(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	_, err := svc.Update(context.Background(), uuid.New(), RecordPatch{})
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_Remove(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	seeded := seedRecords(t, svc, 2)

	removed, err := svc.Remove(context.Background(), seeded[0].ID)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if removed.ID != seeded[0].ID {
		t.Fatalf("expected removed record returned")
	}
	if len(repo.Records) != 1 {
		t.Fatalf("expected 1 record left, got %d", len(repo.Records))
	}

	if _, err := svc.Remove(context.Background(), seeded[0].ID); !apperror.IsNotFound(err) {
		t.Fatalf("expected not found on second remove, got %v", err)
	}
}

func TestService_RemoveByReference(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	seedRecords(t, svc, 2)

	removed, err := svc.RemoveByReference(context.Background(), "REFB")
	if err != nil {
		t.Fatalf("remove by reference failed: %v", err)
	}
	if removed.Reference != "REFB" {
		t.Fatalf("expected REFB removed, got %q", removed.Reference)
	}
	if len(repo.Records) != 1 {
		t.Fatalf("expected 1 record left, got %d", len(repo.Records))
	}
}

func TestService_AddRange(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	reqs := []AddRecordRequest{validAddRequest(), validAddRequest()}
	reqs[1].Reference = "REF002"
	if err := svc.AddRange(context.Background(), reqs); err != nil {
		t.Fatalf("add range failed: %v", err)
	}
	if len(repo.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(repo.Records))
	}

	bad := validAddRequest()
	bad.CallerID = ""
	err := svc.AddRange(context.Background(), []AddRecordRequest{validAddRequest(), bad})
	if !apperror.IsValidation(err) {
		t.Fatalf("expected validation error for bad batch, got %v", err)
	}
	if len(repo.Records) != 2 {
		t.Fatalf("invalid batch must not be persisted, got %d records", len(repo.Records))
	}
}

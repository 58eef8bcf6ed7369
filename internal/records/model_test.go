package records

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"callrecord-intelligence/internal/apperror"
)

func TestCallRecord_Duration(t *testing.T) {
	r := CallRecord{
		StartTime: time.Date(2023, 1, 1, 9, 59, 0, 0, time.UTC),
		EndTime:   time.Date(2023, 1, 1, 10, 0, 30, 0, time.UTC),
	}
	if got := r.Duration(); got != 90 {
		t.Fatalf("expected 90s duration, got %d", got)
	}
}

func TestCallRecord_CallDate(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	r := CallRecord{
		// 2023-01-01T22:00-05:00 is 2023-01-02T03:00Z.
		StartTime: time.Date(2023, 1, 1, 22, 0, 0, 0, loc),
	}
	want := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := r.CallDate(); !got.Equal(want) {
		t.Fatalf("expected call date %v, got %v", want, got)
	}
}

func validAddRequest() AddRecordRequest {
	return AddRecordRequest{
		CallerID:  "441234567890",
		Recipient: "441234567891",
		StartTime: time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2023, 1, 1, 10, 1, 0, 0, time.UTC),
		Cost:      decimal.NewFromFloat(0.5),
		Reference: "REF001",
		Currency:  "GBP",
	}
}

func TestAddRecordRequest_Validate(t *testing.T) {
	if err := validAddRequest().Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*AddRecordRequest)
		code   string
	}{
		{"blank caller", func(r *AddRecordRequest) { r.CallerID = "  " }, "caller_id_is_required"},
		{"long caller", func(r *AddRecordRequest) { r.CallerID = strings.Repeat("4", 21) }, "caller_id_too_long"},
		{"blank recipient", func(r *AddRecordRequest) { r.Recipient = "" }, "recipient_is_required"},
		{"long recipient", func(r *AddRecordRequest) { r.Recipient = strings.Repeat("4", 21) }, "recipient_too_long"},
		{"zero start", func(r *AddRecordRequest) { r.StartTime = time.Time{} }, "start_time_is_required"},
		{"zero end", func(r *AddRecordRequest) { r.EndTime = time.Time{} }, "end_time_is_required"},
		{"end before start", func(r *AddRecordRequest) { r.EndTime = r.StartTime.Add(-time.Second) }, "end_time_before_start_time"},
		{"zero cost", func(r *AddRecordRequest) { r.Cost = decimal.Zero }, "cost_must_be_positive"},
		{"negative cost", func(r *AddRecordRequest) { r.Cost = decimal.NewFromFloat(-1) }, "cost_must_be_positive"},
		{"blank reference", func(r *AddRecordRequest) { r.Reference = " " }, "reference_is_required"},
		{"bad currency", func(r *AddRecordRequest) { r.Currency = "USDT" }, "currency_must_be_three_letters"},
	}
	for _, tc := range cases {
		req := validAddRequest()
		tc.mutate(&req)
		err := req.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		ae := apperror.From(err)
		if ae.Code != tc.code {
			t.Fatalf("%s: expected code %q, got %q", tc.name, tc.code, ae.Code)
		}
		if !apperror.IsValidation(err) {
			t.Fatalf("%s: expected validation kind", tc.name)
		}
	}
}

func TestAddRecordRequest_MaxLengthPartiesAccepted(t *testing.T) {
	req := validAddRequest()
	req.CallerID = strings.Repeat("4", 20)
	req.Recipient = strings.Repeat("5", 20)
	if err := req.Validate(); err != nil {
		t.Fatalf("20-character parties should be valid, got %v", err)
	}
}

func TestRecordPatch_ApplyRetainsAbsentFields(t *testing.T) {
	orig := CallRecord{
		CallerID:  "111",
		Recipient: "222",
		StartTime: time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2023, 1, 1, 10, 2, 0, 0, time.UTC),
		Cost:      decimal.NewFromFloat(1.5),
		Reference: "REF001",
		Currency:  "USD",
	}

	newCost := decimal.NewFromFloat(2.5)
	newRef := "REF002"
	got := RecordPatch{Cost: &newCost, Reference: &newRef}.Apply(orig)

	if !got.Cost.Equal(newCost) || got.Reference != "REF002" {
		t.Fatalf("patched fields not applied: %+v", got)
	}
	if got.CallerID != "111" || got.Recipient != "222" || got.Currency != "USD" {
		t.Fatalf("absent fields must be retained: %+v", got)
	}
	if !got.StartTime.Equal(orig.StartTime) || !got.EndTime.Equal(orig.EndTime) {
		t.Fatalf("absent time fields must be retained: %+v", got)
	}
}

func TestRecordPatch_Validate(t *testing.T) {
	blank := "  "
	bad := decimal.Zero
	longParty := strings.Repeat("9", 21)
	shortCurrency := "US"

	cases := []struct {
		name  string
		patch RecordPatch
		code  string
	}{
		{"blank caller", RecordPatch{CallerID: &blank}, "caller_id_is_required"},
		{"long recipient", RecordPatch{Recipient: &longParty}, "recipient_too_long"},
		{"zero cost", RecordPatch{Cost: &bad}, "cost_must_be_positive"},
		{"blank reference", RecordPatch{Reference: &blank}, "reference_is_required"},
		{"bad currency", RecordPatch{Currency: &shortCurrency}, "currency_must_be_three_letters"},
	}
	for _, tc := range cases {
		err := tc.patch.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if got := apperror.From(err).Code; got != tc.code {
			t.Fatalf("%s: expected code %q, got %q", tc.name, tc.code, got)
		}
	}

	if err := (RecordPatch{}).Validate(); err != nil {
		t.Fatalf("empty patch is a no-op and must validate, got %v", err)
	}
}

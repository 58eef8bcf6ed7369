package records

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"callrecord-intelligence/internal/apperror"
	"callrecord-intelligence/pkg/logger"
)

// CSV upload format: a header row (skipped, never validated) followed by
// rows of at least 8 comma-separated fields; surplus fields are ignored.
//
//	callerId,recipient,callDate,callTime,durationSeconds,cost,reference,currency
//
// callTime is the END of the call on callDate (UTC); the start is derived by
// subtracting durationSeconds.
const (
	csvMinFields  = 8
	csvDateLayout = "02/01/2006"
	csvTimeLayout = "15:04:05"
)

// IngestCSV parses the stream into record-creation requests and bulk-inserts
// them. Malformed rows are skipped with a warning and never abort the batch;
// only a batch with no usable row at all is a validation failure.
func (s *Service) IngestCSV(ctx context.Context, r io.Reader) error {
	log := logger.From(ctx)

	var reqs []AddRecordRequest
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		row := scanner.Text()
		if line == 1 {
			// header
			continue
		}
		if strings.TrimSpace(row) == "" {
			continue
		}
		req, err := parseCSVRow(row)
		if err != nil {
			log.Warn("skipping malformed csv row", "line", line, "row", row, "err", err)
			continue
		}
		reqs = append(reqs, req)
	}
	if err := scanner.Err(); err != nil {
		log.Error("reading csv stream failed", "line", line, "err", err)
		return apperror.Unexpected("error_reading_csv", "").Wrap(err)
	}

	if len(reqs) == 0 {
		return apperror.Validation("no_valid_call_records", "no valid call records found in csv")
	}

	recs := make([]CallRecord, 0, len(reqs))
	for _, req := range reqs {
		recs = append(recs, req.record())
	}
	if err := s.repo.AddRange(ctx, recs); err != nil {
		log.Error("bulk insert of csv records failed", "count", len(recs), "err", err)
		return apperror.Unexpected("error_adding_call_records_from_csv", "").Wrap(err)
	}
	return nil
}

func parseCSVRow(row string) (AddRecordRequest, error) {
	fields := strings.Split(row, ",")
	if len(fields) < csvMinFields {
		return AddRecordRequest{}, fmt.Errorf("expected at least %d fields, got %d", csvMinFields, len(fields))
	}

	callDate, err := time.ParseInLocation(csvDateLayout, strings.TrimSpace(fields[2]), time.UTC)
	if err != nil {
		return AddRecordRequest{}, fmt.Errorf("invalid call date: %w", err)
	}

	callTime, err := time.Parse(csvTimeLayout, strings.TrimSpace(fields[3]))
	if err != nil {
		return AddRecordRequest{}, fmt.Errorf("invalid call time: %w", err)
	}
	timeOfDay := time.Duration(callTime.Hour())*time.Hour +
		time.Duration(callTime.Minute())*time.Minute +
		time.Duration(callTime.Second())*time.Second

	// The row carries the END instant of the call.
	endTime := callDate.Add(timeOfDay)

	durationSeconds, err := strconv.Atoi(strings.TrimSpace(fields[4]))
	if err != nil {
		return AddRecordRequest{}, fmt.Errorf("invalid duration: %w", err)
	}
	startTime := endTime.Add(-time.Duration(durationSeconds) * time.Second)

	cost, err := decimal.NewFromString(strings.TrimSpace(fields[5]))
	if err != nil {
		return AddRecordRequest{}, fmt.Errorf("invalid cost: %w", err)
	}

	req := AddRecordRequest{
		CallerID:  strings.TrimSpace(fields[0]),
		Recipient: strings.TrimSpace(fields[1]),
		StartTime: startTime,
		EndTime:   endTime,
		Cost:      cost,
		Reference: strings.TrimSpace(fields[6]),
		Currency:  strings.TrimSpace(fields[7]),
	}
	if err := req.Validate(); err != nil {
		return AddRecordRequest{}, err
	}
	return req, nil
}

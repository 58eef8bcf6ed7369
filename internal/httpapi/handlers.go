package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"callrecord-intelligence/internal/apperror"
	"callrecord-intelligence/internal/records"
	"callrecord-intelligence/internal/stats"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Records *records.Service
	Stats   *stats.Service

	// MaxCSVBytes caps the accepted CSV upload size. Zero means no cap.
	MaxCSVBytes int64
}

// callRecordResponse is the wire shape of a record, with the derived fields
// materialized for clients.
type callRecordResponse struct {
	records.CallRecord
	CallDate        string `json:"call_date"`
	DurationSeconds int    `json:"duration_seconds"`
}

func toRecordResponse(r records.CallRecord) callRecordResponse {
	return callRecordResponse{
		CallRecord:      r,
		CallDate:        r.CallDate().Format("2006-01-02"),
		DurationSeconds: r.Duration(),
	}
}

func toRecordResponses(recs []records.CallRecord) []callRecordResponse {
	out := make([]callRecordResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, toRecordResponse(r))
	}
	return out
}

func writeError(c *gin.Context, err error) {
	ae := apperror.From(err)
	c.AbortWithStatusJSON(apperror.HTTPStatus(err), gin.H{
		"error": gin.H{"code": ae.Code, "detail": ae.Detail},
	})
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		writeError(c, apperror.Validation("invalid_"+name, name+" must be a valid uuid"))
		return uuid.Nil, false
	}
	return id, true
}

func parseTimeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(c, apperror.Validation("invalid_"+name, name+" must be an RFC3339 timestamp"))
		return nil, false
	}
	return &t, true
}

// --- Call records ---

func (h Handlers) GetCallRecordByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	rec, err := h.Records.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecordResponse(rec))
}

func (h Handlers) GetCallRecordByReference(c *gin.Context) {
	rec, err := h.Records.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecordResponse(rec))
}

type listQueryParams struct {
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
	PhoneNumber string `form:"phone_number"`
}

func (h Handlers) ListCallRecords(c *gin.Context) {
	params := listQueryParams{Page: 0, PageSize: 50}
	if err := c.ShouldBindQuery(&params); err != nil {
		writeError(c, apperror.Validation("invalid_query", "invalid query parameters"))
		return
	}
	start, ok := parseTimeQuery(c, "start_timestamp")
	if !ok {
		return
	}
	end, ok := parseTimeQuery(c, "end_timestamp")
	if !ok {
		return
	}

	page, err := h.Records.ListPaged(c.Request.Context(), records.ListQuery{
		Page:        params.Page,
		PageSize:    params.PageSize,
		PhoneNumber: params.PhoneNumber,
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records.Page[callRecordResponse]{
		Items:      toRecordResponses(page.Items),
		NextPage:   page.NextPage,
		TotalPages: page.TotalPages,
		Total:      page.Total,
	})
}

func (h Handlers) AddCallRecord(c *gin.Context) {
	var req records.AddRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation("invalid_json", "request body is not valid json"))
		return
	}
	rec, err := h.Records.Add(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecordResponse(rec))
}

func (h Handlers) AddCallRecordsBulk(c *gin.Context) {
	var reqs []records.AddRecordRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		writeError(c, apperror.Validation("invalid_json", "request body is not valid json"))
		return
	}
	if err := h.Records.AddRange(c.Request.Context(), reqs); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h Handlers) UploadCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader.Size == 0 {
		writeError(c, apperror.Validation("file_is_required", "no file uploaded or file is empty"))
		return
	}
	if h.MaxCSVBytes > 0 && fileHeader.Size > h.MaxCSVBytes {
		writeError(c, apperror.Validation("file_too_large", "uploaded file exceeds the size limit"))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		writeError(c, apperror.Unexpected("error_reading_upload", "").Wrap(err))
		return
	}
	defer f.Close()

	if err := h.Records.IngestCSV(c.Request.Context(), f); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h Handlers) UpdateCallRecordByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var patch records.RecordPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeError(c, apperror.Validation("invalid_json", "request body is not valid json"))
		return
	}
	rec, err := h.Records.Update(c.Request.Context(), id, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecordResponse(rec))
}

func (h Handlers) UpdateCallRecordByReference(c *gin.Context) {
	var patch records.RecordPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeError(c, apperror.Validation("invalid_json", "request body is not valid json"))
		return
	}
	rec, err := h.Records.UpdateByReference(c.Request.Context(), c.Param("reference"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecordResponse(rec))
}

func (h Handlers) RemoveCallRecordByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	rec, err := h.Records.Remove(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecordResponse(rec))
}

func (h Handlers) RemoveCallRecordByReference(c *gin.Context) {
	rec, err := h.Records.RemoveByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecordResponse(rec))
}

package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"callrecord-intelligence/internal/httpapi"
	"callrecord-intelligence/pkg/utils"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, db *sql.DB, h httpapi.Handlers) {
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")

	// Static prefixes for the two lookup keys keep the router free of
	// wildcard conflicts with /bulk and /upload-csv.
	recs := v1.Group("/call-records")
	{
		recs.GET("", h.ListCallRecords)
		recs.GET("/id/:id", h.GetCallRecordByID)
		recs.GET("/reference/:reference", h.GetCallRecordByReference)
		recs.POST("", h.AddCallRecord)
		recs.POST("/bulk", h.AddCallRecordsBulk)
		recs.POST("/upload-csv", h.UploadCSV)
		recs.PUT("/id/:id", h.UpdateCallRecordByID)
		recs.PUT("/reference/:reference", h.UpdateCallRecordByReference)
		recs.DELETE("/id/:id", h.RemoveCallRecordByID)
		recs.DELETE("/reference/:reference", h.RemoveCallRecordByReference)
	}

	st := v1.Group("/statistics")
	{
		st.GET("/average-cost", h.GetAverageCost)
		st.GET("/total-calls", h.GetTotalCalls)
		st.GET("/average-duration", h.GetAverageDuration)
		st.GET("/longest-calls", h.GetLongestCalls)
		st.GET("/calls-per-period", h.GetCallsPerPeriod)
		st.GET("/call-volume-trend", h.GetCallVolumeTrend)
		st.GET("/cost-by-currency", h.GetCostByCurrency)
	}
}

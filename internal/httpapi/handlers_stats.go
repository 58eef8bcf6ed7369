package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"callrecord-intelligence/internal/apperror"
	"callrecord-intelligence/internal/stats"
)

// statsFilter parses the shared statistics filter from query parameters.
func statsFilter(c *gin.Context) (stats.Filter, bool) {
	start, ok := parseTimeQuery(c, "start_date")
	if !ok {
		return stats.Filter{}, false
	}
	end, ok := parseTimeQuery(c, "end_date")
	if !ok {
		return stats.Filter{}, false
	}
	return stats.Filter{
		StartDate:   start,
		EndDate:     end,
		PhoneNumber: c.Query("phone_number"),
		Currency:    c.Query("currency"),
	}, true
}

func statsGranularity(c *gin.Context) (stats.Granularity, bool) {
	g, err := stats.ParseGranularity(c.Query("granularity"))
	if err != nil {
		writeError(c, err)
		return "", false
	}
	return g, true
}

func (h Handlers) GetAverageCost(c *gin.Context) {
	f, ok := statsFilter(c)
	if !ok {
		return
	}
	avg, err := h.Stats.AverageCost(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"average_cost": avg})
}

func (h Handlers) GetTotalCalls(c *gin.Context) {
	f, ok := statsFilter(c)
	if !ok {
		return
	}
	total, err := h.Stats.TotalCalls(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_calls": total})
}

func (h Handlers) GetAverageDuration(c *gin.Context) {
	f, ok := statsFilter(c)
	if !ok {
		return
	}
	avg, err := h.Stats.AverageDuration(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"average_duration_seconds": int(avg.Seconds()),
		"average_duration":         avg.String(),
	})
}

func (h Handlers) GetLongestCalls(c *gin.Context) {
	f, ok := statsFilter(c)
	if !ok {
		return
	}
	count := 10
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, apperror.Validation("invalid_count", "count must be an integer"))
			return
		}
		count = n
	}
	longest, err := h.Stats.LongestCalls(c.Request.Context(), count, f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"longest_calls": toRecordResponses(longest)})
}

func (h Handlers) GetCallsPerPeriod(c *gin.Context) {
	f, ok := statsFilter(c)
	if !ok {
		return
	}
	g, ok := statsGranularity(c)
	if !ok {
		return
	}
	rate, err := h.Stats.CallsPerPeriod(c.Request.Context(), f, g)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls_per_period": rate, "granularity": g})
}

func (h Handlers) GetCallVolumeTrend(c *gin.Context) {
	f, ok := statsFilter(c)
	if !ok {
		return
	}
	g, ok := statsGranularity(c)
	if !ok {
		return
	}
	points, err := h.Stats.VolumeTrend(c.Request.Context(), f, g)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points, "granularity": g})
}

func (h Handlers) GetCostByCurrency(c *gin.Context) {
	f, ok := statsFilter(c)
	if !ok {
		return
	}
	totals, err := h.Stats.CostByCurrency(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_cost_by_currency": totals})
}

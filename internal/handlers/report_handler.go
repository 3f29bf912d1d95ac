package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// --- GET: /api/reports?start=2024-01-01&end=2024-01-31&top=5 ---
// Both dates are inclusive calendar days in server local time. Without
// them the last 30 days are reported.
func (h *Handler) GetSalesReport(c *gin.Context) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	start, err := parseDay(c.Query("start"), today.AddDate(0, 0, -29))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
		return
	}
	end, err := parseDay(c.Query("end"), today)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end is before start"})
		return
	}
	top, err := strconv.Atoi(c.DefaultQuery("top", "5"))
	if err != nil || top < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "top must be a non-negative integer"})
		return
	}

	// Stretch end to the last instant of its day.
	summary, err := h.ledger.Summarize(c.Request.Context(), start, end.AddDate(0, 0, 1).Add(-time.Nanosecond), top)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate report"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// --- GET: /api/reports/valuation ---
// GetStockValuation calculates the total cost value of the stock on hand,
// grouped by category.
func (h *Handler) GetStockValuation(c *gin.Context) {
	v, err := h.catalog.Valuation(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inventory"})
		return
	}
	c.JSON(http.StatusOK, v)
}

func parseDay(raw string, def time.Time) (time.Time, error) {
	if raw == "" {
		return def, nil
	}
	return time.ParseInLocation(dateLayout, raw, time.Local)
}

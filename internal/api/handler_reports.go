package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hr-attendance-backend/internal/mw"
	"hr-attendance-backend/internal/report"
)

const dateLayout = "2006-01-02"

// GetReport handles GET /api/reports/:employee_id.
func (h *Handler) GetReport(c *gin.Context) {
	employeeID, err := uuid.Parse(c.Param("employee_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee id"})
		return
	}

	callerID, callerRole := mw.Caller(c)
	if callerID != employeeID && !h.adminRoles[callerRole] {
		c.JSON(http.StatusForbidden, gin.H{"error": "may only view own report"})
		return
	}

	emp, err := h.store.GetEmployee(c.Request.Context(), employeeID)
	if err != nil {
		respondError(c, err)
		return
	}

	var start time.Time
	if s := c.Query("startDate"); s != "" {
		if start, err = time.Parse(dateLayout, s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "startDate must be YYYY-MM-DD"})
			return
		}
	}
	var end *time.Time
	if s := c.Query("endDate"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must be YYYY-MM-DD"})
			return
		}
		end = &t
	}

	period := c.Query("period")
	if period != "" && start.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "startDate is required with period"})
		return
	}

	from, to, err := report.ResolveWindow(period, start, end, emp.HireDate, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	rep, err := h.aggregator.BuildReport(c.Request.Context(), emp, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// GetAllReports handles GET /api/reports. Admin only; enforced by the router.
func (h *Handler) GetAllReports(c *gin.Context) {
	var from, to time.Time
	if s := c.Query("startDate"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "startDate must be YYYY-MM-DD"})
			return
		}
		from = t
		to = time.Now()
	}
	if s := c.Query("endDate"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must be YYYY-MM-DD"})
			return
		}
		to = t
	}

	reports, err := h.aggregator.BuildAllReports(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

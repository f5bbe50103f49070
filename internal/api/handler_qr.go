package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hr-attendance-backend/internal/mw"
)

// IssueQR handles GET /api/attendance/qr/:employee_id. The returned token is
// what clients render into a QR image; it stays displayable for its full
// TTL, but a scan is only accepted within the freshness window of issuance.
func (h *Handler) IssueQR(c *gin.Context) {
	employeeID, err := uuid.Parse(c.Param("employee_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee id"})
		return
	}

	callerID, callerRole := mw.Caller(c)
	if callerID != employeeID && !h.adminRoles[callerRole] {
		c.JSON(http.StatusForbidden, gin.H{"error": "may only issue own code"})
		return
	}

	if _, err := h.store.GetEmployee(c.Request.Context(), employeeID); err != nil {
		respondError(c, err)
		return
	}

	token, expiresAt, err := h.qr.IssueToken(employeeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresAt": expiresAt})
}

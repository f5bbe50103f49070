package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hr-attendance-backend/internal/model"
	"hr-attendance-backend/internal/mw"
	"hr-attendance-backend/internal/session"
	"hr-attendance-backend/internal/verify"
)

// locationPayload mirrors the GeoJSON-ish shape clients send:
// coordinates[0] is longitude, coordinates[1] latitude.
type locationPayload struct {
	Coordinates []float64 `json:"coordinates" binding:"required,len=2"`
}

func (l locationPayload) point() model.Point {
	return model.Point{Longitude: l.Coordinates[0], Latitude: l.Coordinates[1]}
}

type checkInRequest struct {
	EmployeeID   string          `json:"employeeId" binding:"required"`
	EntryTime    time.Time       `json:"entryTime" binding:"required"`
	Location     locationPayload `json:"location" binding:"required"`
	Method       string          `json:"method" binding:"required"`
	QRData       string          `json:"qrData"`
	FaceTemplate []float64       `json:"faceTemplate"`
}

type checkOutRequest struct {
	EmployeeID string          `json:"employeeId" binding:"required"`
	ExitTime   time.Time       `json:"exitTime" binding:"required"`
	Location   locationPayload `json:"location" binding:"required"`
}

type checkInResponse struct {
	Record     *model.AttendanceRecord `json:"record"`
	Confidence float64                 `json:"confidence,omitempty"`
}

// CheckIn handles POST /api/attendance/check-in.
func (h *Handler) CheckIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employeeId must be a uuid"})
		return
	}

	method := model.VerificationMethod(req.Method)
	if !method.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "method must be one of manual, qr, facial"})
		return
	}

	callerID, callerRole := mw.Caller(c)
	res, err := h.machine.RecordEntry(c.Request.Context(), session.EntryRequest{
		EmployeeID: employeeID,
		CallerID:   callerID,
		CallerRole: callerRole,
		Method:     method,
		Proof: verify.Proof{
			QRData:       req.QRData,
			FaceTemplate: req.FaceTemplate,
		},
		Location:   req.Location.point(),
		ClientTime: req.EntryTime,
	})
	h.metrics.CheckIn(req.Method, result(err))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, checkInResponse{Record: res.Record, Confidence: res.Confidence})
}

// CheckOut handles POST /api/attendance/check-out.
func (h *Handler) CheckOut(c *gin.Context) {
	var req checkOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employeeId must be a uuid"})
		return
	}

	callerID, callerRole := mw.Caller(c)
	rec, err := h.machine.RecordExit(c.Request.Context(), session.ExitRequest{
		EmployeeID: employeeID,
		CallerID:   callerID,
		CallerRole: callerRole,
		Location:   req.Location.point(),
		ClientTime: req.ExitTime,
	})
	h.metrics.CheckOut(result(err))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"record": rec})
}

// ListRecords handles GET /api/attendance/records/:employee_id.
func (h *Handler) ListRecords(c *gin.Context) {
	employeeID, err := uuid.Parse(c.Param("employee_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee id"})
		return
	}

	callerID, callerRole := mw.Caller(c)
	if callerID != employeeID && !h.adminRoles[callerRole] {
		c.JSON(http.StatusForbidden, gin.H{"error": "may only view own records"})
		return
	}

	recs, err := h.store.RecentRecords(c.Request.Context(), employeeID, 50)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": recs})
}

package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hr-attendance-backend/internal/metrics"
	"hr-attendance-backend/internal/report"
	"hr-attendance-backend/internal/session"
	"hr-attendance-backend/internal/store"
	"hr-attendance-backend/internal/verify"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	machine    *session.Machine
	aggregator *report.Aggregator
	qr         *verify.QRVerifier
	webpush    *webpush.Options
	metrics    *metrics.Metrics
	adminRoles map[string]bool
}

// NewHandler creates a new API handler.
func NewHandler(
	s store.Store,
	machine *session.Machine,
	aggregator *report.Aggregator,
	qr *verify.QRVerifier,
	webpushOptions *webpush.Options,
	m *metrics.Metrics,
	adminRoles []string,
) *Handler {
	admin := make(map[string]bool, len(adminRoles))
	for _, r := range adminRoles {
		admin[r] = true
	}
	return &Handler{
		store:      s,
		machine:    machine,
		aggregator: aggregator,
		qr:         qr,
		webpush:    webpushOptions,
		metrics:    m,
		adminRoles: admin,
	}
}

// respondError maps a domain error to a transport status. Conflicts state
// which invariant failed so the client can correct and retry; unexpected
// failures expose only a correlation id.
func respondError(c *gin.Context, err error) {
	var notRecognized *verify.NotRecognizedError
	switch {
	case errors.As(err, &notRecognized):
		c.JSON(http.StatusConflict, gin.H{
			"error":      "face not recognized, improve lighting and retry",
			"confidence": notRecognized.Confidence,
		})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, session.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrDuplicateOpenSession),
		errors.Is(err, session.ErrOutOfBounds),
		errors.Is(err, session.ErrNoOpenSession),
		errors.Is(err, session.ErrInvalidChronology),
		errors.Is(err, verify.ErrExpiredCredential),
		errors.Is(err, verify.ErrNotEnrolled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, verify.ErrInvalidPayload),
		errors.Is(err, session.ErrUnknownMethod),
		errors.Is(err, report.ErrInvalidPeriod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		correlationID := uuid.New()
		log.Printf("Error [%s]: %v", correlationID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":         "internal error",
			"correlationId": correlationID,
		})
	}
}

// result classifies an outcome for metrics labels.
func result(err error) string {
	if err == nil {
		return "ok"
	}
	return "rejected"
}

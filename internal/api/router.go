package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	cache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"hr-attendance-backend/config"
	"hr-attendance-backend/internal/mw"
)

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(h *Handler, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	reportCache := cache.New(cacheTTL, 2*cacheTTL)

	api := r.Group("/api")
	api.Use(mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), int(cfg.Server.RateLimitPerSec)*2))
	api.Use(mw.AuthRequired(cfg.Auth.JWTSecret))
	{
		api.POST("/attendance/check-in", h.CheckIn)
		api.POST("/attendance/check-out", h.CheckOut)
		api.GET("/attendance/records/:employee_id", h.ListRecords)
		api.GET("/attendance/qr/:employee_id", h.IssueQR)

		api.GET("/reports/:employee_id", mw.Cache(reportCache, cacheTTL), h.GetReport)
		api.GET("/reports", mw.RequireRole(cfg.Auth.AdminRoles...), mw.Cache(reportCache, cacheTTL), h.GetAllReports)

		api.PUT("/subscriptions", h.PutSubscription)
		api.GET("/subscriptions", h.GetSubscriptions)
		api.DELETE("/subscriptions", h.DeleteSubscription)

		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/profiles/internal/health"
)

// readiness is the subset of health.HealthChecker used by HealthHandler.
type readiness interface {
	Ready() bool
	Status() []health.DependencyStatus
}

// HealthHandler serves liveness and readiness endpoints.
type HealthHandler struct {
	checker readiness
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checker readiness) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Register registers the probe routes on r.
func (h *HealthHandler) Register(r gin.IRoutes) {
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
}

// Healthz handles GET /healthz.
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz handles GET /readyz. It answers 503 while any dependency is degraded.
func (h *HealthHandler) Readyz(c *gin.Context) {
	status, code := health.StatusHealthy, http.StatusOK
	if !h.checker.Ready() {
		status, code = health.StatusDegraded, http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":       status,
		"dependencies": h.checker.Status(),
	})
}

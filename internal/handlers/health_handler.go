package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cashflow/internal/database"
)

// HealthHandler reports service and database liveness.
type HealthHandler struct {
	db *database.Manager
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *database.Manager) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health handles the liveness check
// @Summary     Health check
// @Description Report API and database connectivity status
// @Tags        health
// @Produce     json
// @Success     200 {object} map[string]string "Healthy"
// @Failure     503 {object} map[string]string "Database unreachable"
// @Router      /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	if h.db == nil || h.db.Ping() != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}

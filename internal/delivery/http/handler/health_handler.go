package handler

import (
	"context"
	"net/http"
	"time"

	"account-service/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Database is the part of the connection the health endpoints inspect.
type Database interface {
	Health(ctx context.Context) error
	Name() string
	Engine() string
}

// Probe is an optional dependency reported by /health-check/.
type Probe interface {
	Name() string
	Check(ctx context.Context) error
}

type HealthHandler struct {
	db      Database
	probes  []Probe
	timeout time.Duration
}

func NewHealthHandler(db Database, probes ...Probe) *HealthHandler {
	return &HealthHandler{db: db, probes: probes, timeout: 3 * time.Second}
}

func (h *HealthHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health-check/", h.HealthCheck)
	router.GET("/check-db-connection/", h.CheckDBConnection)
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "ok", "db": "ok"}

	if err := h.db.Health(ctx); err != nil {
		logger.Error("Database health check failed", zap.Error(err))
		status = http.StatusServiceUnavailable
		body["status"] = "error"
		body["db"] = "unavailable"
	}

	for _, p := range h.probes {
		if err := p.Check(ctx); err != nil {
			logger.Warn("Dependency health check failed", zap.String("dependency", p.Name()), zap.Error(err))
			body[p.Name()] = "unavailable"
			continue
		}
		body[p.Name()] = "ok"
	}

	c.JSON(status, body)
}

func (h *HealthHandler) CheckDBConnection(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.db.Health(ctx); err != nil {
		logger.Error("Database connection check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to connect to database",
			"error":   "database unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Successfully connected to the database",
		"connection_info": gin.H{
			"database_name":   h.db.Name(),
			"database_engine": h.db.Engine(),
		},
	})
}

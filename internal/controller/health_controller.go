package controller

import (
	"context"
	"net/http"
	"time"

	"testcracker/internal/health"
	"testcracker/internal/util"
	"testcracker/pkg/database"
	"testcracker/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const readyTimeout = 2 * time.Second

type HealthController struct {
	DB *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{DB: db}
}

// Root godoc
// @Summary API root
// @Tags system
// @Produce plain
// @Success 200 {string} string "Testcracker API root"
// @Router / [get]
func (c *HealthController) Root(ctx *gin.Context) {
	ctx.String(http.StatusOK, health.RootMessage)
}

// HealthCheck godoc
// @Summary Liveness check
// @Description Always succeeds while the process is running. Does not touch the database.
// @Tags system
// @Produce json
// @Success 200 {object} object "{\"status\":\"ok\",\"service\":\"testcracker-api\"}"
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	ctx.Data(http.StatusOK, health.ContentType, []byte(health.Body))
}

// Ready godoc
// @Summary Readiness check
// @Description Pings the database.
// @Tags system
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /ready [get]
func (c *HealthController) Ready(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), readyTimeout)
	defer cancel()

	if err := database.Ping(pingCtx, c.DB); err != nil {
		logger.Log.Warn("Readiness check failed", zap.Error(err))
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"database": "up",
		},
	})
}

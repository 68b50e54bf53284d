// Package api открывает ядро планирования по HTTP.
package api

import (
	"net/http"
	"time"

	"helpdesk-scheduler/internal/clock"
	"helpdesk-scheduler/internal/logging"
	"helpdesk-scheduler/internal/metrics"
	"helpdesk-scheduler/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	availability *service.AvailabilityService
	scheduling   *service.SchedulingService
	clock        clock.Clock
	loc          *time.Location
	logger       *logrus.Logger
}

func NewHandler(
	availability *service.AvailabilityService,
	scheduling *service.SchedulingService,
	clk clock.Clock,
	loc *time.Location,
) *Handler {
	return &Handler{
		availability: availability,
		scheduling:   scheduling,
		clock:        clk,
		loc:          loc,
		logger:       logging.New(),
	}
}

// NewRouter собирает gin-движок со всеми маршрутами.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(h.requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	workers := router.Group("/api/workers/:id")
	{
		workers.GET("/availability", h.GetAvailability)
		workers.PUT("/availability/:date", h.ReplaceDay)
		workers.POST("/availability/:date/copy", h.CopyDay)
		workers.PATCH("/availability/slots/:slotId", h.UpdateSlot)
		workers.DELETE("/availability/slots/:slotId", h.RemoveSlot)

		workers.GET("/schedule", h.GetSchedule)
		workers.GET("/predictions", h.GetPredictions)
		workers.POST("/assignments", h.AssignTicket)
		workers.PUT("/assignments/:assignmentId", h.ReassignTicket)
		workers.DELETE("/assignments/:assignmentId", h.UnassignTicket)
		workers.POST("/auto-assign", h.AutoAssign)
	}

	return router
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		h.logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(started).String(),
		}).Debug("HTTP request")
	}
}

package api

import (
	"net/http"

	"helpdesk-scheduler/pkg/calendar"

	"github.com/gin-gonic/gin"
)

type assignBody struct {
	TicketID     string  `json:"ticket_id" binding:"required"`
	Date         string  `json:"date" binding:"required"`
	AssignedByID *string `json:"assigned_by_id"`
}

type reassignBody struct {
	WorkerID     string  `json:"worker_id" binding:"required"`
	Date         string  `json:"date" binding:"required"`
	AssignedByID *string `json:"assigned_by_id"`
}

// GetSchedule обрабатывает GET /api/workers/:id/schedule.
func (h *Handler) GetSchedule(c *gin.Context) {
	week, ok := h.weekParam(c)
	if !ok {
		return
	}

	schedule, err := h.scheduling.GetWorkerScheduleForWeek(c.Param("id"), week)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// GetPredictions обрабатывает GET /api/workers/:id/predictions.
func (h *Handler) GetPredictions(c *gin.Context) {
	week, ok := h.weekParam(c)
	if !ok {
		return
	}

	prediction, err := h.scheduling.GetPredictionsForWeek(c.Param("id"), week)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, prediction)
}

// AssignTicket обрабатывает POST /api/workers/:id/assignments.
func (h *Handler) AssignTicket(c *gin.Context) {
	var body assignBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	date, err := calendar.ParseDate(body.Date, h.loc)
	if err != nil {
		badRequest(c, "invalid date", err)
		return
	}

	assignment, created, err := h.scheduling.AssignTicket(body.TicketID, c.Param("id"), date, body.AssignedByID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// Повторное назначение возвращает существующую запись
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, assignment)
}

// ReassignTicket обрабатывает PUT /api/workers/:id/assignments/:assignmentId.
func (h *Handler) ReassignTicket(c *gin.Context) {
	var body reassignBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	date, err := calendar.ParseDate(body.Date, h.loc)
	if err != nil {
		badRequest(c, "invalid date", err)
		return
	}

	assignment, err := h.scheduling.ReassignTicket(c.Param("id"), c.Param("assignmentId"), body.WorkerID, date, body.AssignedByID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// UnassignTicket обрабатывает DELETE /api/workers/:id/assignments/:assignmentId.
func (h *Handler) UnassignTicket(c *gin.Context) {
	if err := h.scheduling.UnassignTicket(c.Param("id"), c.Param("assignmentId")); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AutoAssign обрабатывает POST /api/workers/:id/auto-assign.
func (h *Handler) AutoAssign(c *gin.Context) {
	week, ok := h.weekParam(c)
	if !ok {
		return
	}

	created, err := h.scheduling.AutoAssignTicketsForWorker(c.Param("id"), week)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"week_start":  calendar.DayKey(week),
		"assignments": created,
	})
}

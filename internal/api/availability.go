package api

import (
	"net/http"
	"time"

	"helpdesk-scheduler/internal/service"
	"helpdesk-scheduler/pkg/calendar"

	"github.com/gin-gonic/gin"
)

type slotBody struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

type replaceDayBody struct {
	Slots []slotBody `json:"slots"`
}

type copyDayBody struct {
	TargetDates []string `json:"target_dates" binding:"required"`
	Overwrite   bool     `json:"overwrite"`
}

// weekParam читает ?week=YYYY-MM-DD, по умолчанию текущая неделя.
func (h *Handler) weekParam(c *gin.Context) (time.Time, bool) {
	raw := c.Query("week")
	if raw == "" {
		return calendar.WeekStart(h.clock.Now(), h.loc), true
	}
	week, err := calendar.ParseDate(raw, h.loc)
	if err != nil {
		badRequest(c, "invalid week", err)
		return time.Time{}, false
	}
	return week, true
}

func (h *Handler) dateParam(c *gin.Context) (time.Time, bool) {
	date, err := calendar.ParseDate(c.Param("date"), h.loc)
	if err != nil {
		badRequest(c, "invalid date", err)
		return time.Time{}, false
	}
	return date, true
}

// GetAvailability обрабатывает GET /api/workers/:id/availability.
func (h *Handler) GetAvailability(c *gin.Context) {
	week, ok := h.weekParam(c)
	if !ok {
		return
	}

	slots, err := h.availability.GetForWeek(c.Param("id"), week)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"week_start": calendar.DayKey(week),
		"slots":      slots,
	})
}

// ReplaceDay обрабатывает PUT /api/workers/:id/availability/:date.
func (h *Handler) ReplaceDay(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}

	var body replaceDayBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	inputs := make([]service.SlotInput, 0, len(body.Slots))
	for _, s := range body.Slots {
		start, err := calendar.ParseClock(s.Start, date)
		if err != nil {
			badRequest(c, "invalid slot start", err)
			return
		}
		end, err := calendar.ParseClock(s.End, date)
		if err != nil {
			badRequest(c, "invalid slot end", err)
			return
		}
		inputs = append(inputs, service.SlotInput{Start: start, End: end})
	}

	day, err := h.availability.ReplaceForDay(c.Param("id"), date, inputs)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, day)
}

// UpdateSlot обрабатывает PATCH /api/workers/:id/availability/slots/:slotId.
// Время в теле - RFC3339.
func (h *Handler) UpdateSlot(c *gin.Context) {
	var body struct {
		Start time.Time `json:"start" binding:"required"`
		End   time.Time `json:"end" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	slot, err := h.availability.UpdateSlot(c.Param("id"), c.Param("slotId"), body.Start, body.End)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, slot)
}

// RemoveSlot обрабатывает DELETE /api/workers/:id/availability/slots/:slotId.
func (h *Handler) RemoveSlot(c *gin.Context) {
	day, err := h.availability.RemoveSlot(c.Param("id"), c.Param("slotId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"date": calendar.DayKey(day)})
}

// CopyDay обрабатывает POST /api/workers/:id/availability/:date/copy.
func (h *Handler) CopyDay(c *gin.Context) {
	source, ok := h.dateParam(c)
	if !ok {
		return
	}

	var body copyDayBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	targets := make([]time.Time, 0, len(body.TargetDates))
	for _, raw := range body.TargetDates {
		target, err := calendar.ParseDate(raw, h.loc)
		if err != nil {
			badRequest(c, "invalid target date", err)
			return
		}
		targets = append(targets, target)
	}

	result, err := h.availability.CopyAvailability(c.Param("id"), source, targets, body.Overwrite)
	if err != nil {
		h.respondError(c, err)
		return
	}

	skipped := make([]string, 0, len(result.Skipped))
	for _, d := range result.Skipped {
		skipped = append(skipped, calendar.DayKey(d))
	}

	c.JSON(http.StatusOK, gin.H{
		"copied":  result.Copied,
		"skipped": skipped,
	})
}

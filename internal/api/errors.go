package api

import (
	"errors"
	"net/http"

	"helpdesk-scheduler/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError переводит типизированные ошибки сервисов в HTTP-ответ.
func (h *Handler) respondError(c *gin.Context, err error) {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		body := gin.H{
			"error":  "validation failed",
			"field":  validation.Field,
			"reason": validation.Reason,
		}
		if validation.Index >= 0 {
			body["index"] = validation.Index
		}
		c.JSON(http.StatusUnprocessableEntity, body)
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["message"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "countdown/backend/internal/errors"
	"countdown/backend/internal/model"
	"countdown/backend/internal/service"
)

type TimerHandler struct {
	timerService *service.TimerService
}

func NewTimerHandler(timerService *service.TimerService) *TimerHandler {
	return &TimerHandler{timerService: timerService}
}

func (h *TimerHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.timerService.List(c.Request.Context()))
}

func (h *TimerHandler) Get(c *gin.Context) {
	h.respond(c, h.timerService.Get)
}

func (h *TimerHandler) Create(c *gin.Context) {
	var req model.TimerInput
	if !bindJSON(c, &req) {
		return
	}

	timer, apiErr := h.timerService.Add(c.Request.Context(), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"timer": timer})
}

func (h *TimerHandler) Update(c *gin.Context) {
	var req model.TimerInput
	if !bindJSON(c, &req) {
		return
	}

	timer, apiErr := h.timerService.Update(c.Request.Context(), c.Param("id"), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": timer})
}

func (h *TimerHandler) Delete(c *gin.Context) {
	if apiErr := h.timerService.Delete(c.Request.Context(), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TimerHandler) Start(c *gin.Context) { h.respond(c, h.timerService.Start) }
func (h *TimerHandler) Pause(c *gin.Context) { h.respond(c, h.timerService.Pause) }
func (h *TimerHandler) Reset(c *gin.Context) { h.respond(c, h.timerService.Reset) }

func (h *TimerHandler) Alarms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alarms": h.timerService.Alarms()})
}

func (h *TimerHandler) DismissAlarm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alarms": h.timerService.DismissAlarm(c.Request.Context(), c.Param("id"))})
}

func (h *TimerHandler) DismissAllAlarms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alarms": h.timerService.DismissAllAlarms(c.Request.Context())})
}

func (h *TimerHandler) ResetAndDismissAll(c *gin.Context) {
	c.JSON(http.StatusOK, h.timerService.ResetAndDismissAll(c.Request.Context()))
}

func (h *TimerHandler) respond(c *gin.Context, op func(context.Context, string) (*model.TimerView, *apperrors.APIError)) {
	timer, apiErr := op(c.Request.Context(), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": timer})
}

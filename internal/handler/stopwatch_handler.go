package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"countdown/backend/internal/service"
)

type StopwatchHandler struct {
	stopwatchService *service.StopwatchService
}

func NewStopwatchHandler(stopwatchService *service.StopwatchService) *StopwatchHandler {
	return &StopwatchHandler{stopwatchService: stopwatchService}
}

func (h *StopwatchHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stopwatch": h.stopwatchService.State(c.Request.Context())})
}

func (h *StopwatchHandler) Start(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stopwatch": h.stopwatchService.Start(c.Request.Context())})
}

func (h *StopwatchHandler) Pause(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stopwatch": h.stopwatchService.Pause(c.Request.Context())})
}

func (h *StopwatchHandler) Reset(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stopwatch": h.stopwatchService.Reset(c.Request.Context())})
}

// Lap records a split. The lap field is null when the stopwatch is not running.
func (h *StopwatchHandler) Lap(c *gin.Context) {
	state, lap := h.stopwatchService.Lap(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"stopwatch": state, "lap": lap})
}

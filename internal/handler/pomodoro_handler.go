package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"countdown/backend/internal/model"
	"countdown/backend/internal/service"
)

type PomodoroHandler struct {
	pomodoroService *service.PomodoroService
}

func NewPomodoroHandler(pomodoroService *service.PomodoroService) *PomodoroHandler {
	return &PomodoroHandler{pomodoroService: pomodoroService}
}

func (h *PomodoroHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.pomodoroService.State(c.Request.Context())})
}

func (h *PomodoroHandler) Start(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.pomodoroService.Start(c.Request.Context())})
}

func (h *PomodoroHandler) Pause(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.pomodoroService.Pause(c.Request.Context())})
}

func (h *PomodoroHandler) Reset(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.pomodoroService.Reset(c.Request.Context())})
}

func (h *PomodoroHandler) Skip(c *gin.Context) {
	state, transition := h.pomodoroService.Skip(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"state": state, "transition": transition})
}

func (h *PomodoroHandler) UpdateConfig(c *gin.Context) {
	var req model.PomodoroConfigPatch
	if !bindJSON(c, &req) {
		return
	}

	state, apiErr := h.pomodoroService.SetConfig(c.Request.Context(), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *PomodoroHandler) GetHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.pomodoroService.History(c.Request.Context())})
}

func (h *PomodoroHandler) ClearHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.pomodoroService.ClearHistory(c.Request.Context())})
}

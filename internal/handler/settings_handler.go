package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"countdown/backend/internal/model"
	"countdown/backend/internal/service"
)

type SettingsHandler struct {
	settingsService *service.SettingsService
}

func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"settings": h.settingsService.Get(c.Request.Context())})
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req model.SettingsPatch
	if !bindJSON(c, &req) {
		return
	}

	settings, apiErr := h.settingsService.Update(c.Request.Context(), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

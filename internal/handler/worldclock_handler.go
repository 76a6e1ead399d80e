package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"countdown/backend/internal/service"
)

type WorldClockHandler struct {
	worldClockService *service.WorldClockService
}

type addClockRequest struct {
	Timezone string `json:"timezone"`
	Label    string `json:"label"`
}

type reorderRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

func NewWorldClockHandler(worldClockService *service.WorldClockService) *WorldClockHandler {
	return &WorldClockHandler{worldClockService: worldClockService}
}

func (h *WorldClockHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"clocks": h.worldClockService.List(c.Request.Context())})
}

func (h *WorldClockHandler) Create(c *gin.Context) {
	var req addClockRequest
	if !bindJSON(c, &req) {
		return
	}

	clock, apiErr := h.worldClockService.Add(c.Request.Context(), req.Timezone, req.Label)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"clock": clock})
}

func (h *WorldClockHandler) Delete(c *gin.Context) {
	if apiErr := h.worldClockService.Remove(c.Request.Context(), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WorldClockHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.From == nil || req.To == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_reorder", "message": "from and to are required"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"clocks": h.worldClockService.Reorder(c.Request.Context(), *req.From, *req.To)})
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "countdown/backend/internal/errors"
	"countdown/backend/internal/model"
	"countdown/backend/internal/service"
	"countdown/backend/internal/share"
)

type EmbedHandler struct {
	embedService *service.EmbedService
}

func NewEmbedHandler(embedService *service.EmbedService) *EmbedHandler {
	return &EmbedHandler{embedService: embedService}
}

// Open creates a widget countdown from the link query (l, d, mode, theme) or,
// without a query, from a JSON body.
func (h *EmbedHandler) Open(c *gin.Context) {
	var params share.Embed
	if c.Request.URL.RawQuery != "" {
		parsed, ok := share.ParseEmbed(c.Request.URL.RawQuery)
		if !ok {
			writeError(c, invalidLink())
			return
		}
		params = parsed
	} else if !bindJSON(c, &params) {
		return
	}

	embed, apiErr := h.embedService.Open(c.Request.Context(), params)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"embed": embed})
}

func (h *EmbedHandler) Get(c *gin.Context)   { h.respond(c, h.embedService.Get) }
func (h *EmbedHandler) Start(c *gin.Context) { h.respond(c, h.embedService.Start) }
func (h *EmbedHandler) Pause(c *gin.Context) { h.respond(c, h.embedService.Pause) }
func (h *EmbedHandler) Reset(c *gin.Context) { h.respond(c, h.embedService.Reset) }

func (h *EmbedHandler) Delete(c *gin.Context) {
	if apiErr := h.embedService.Remove(c.Request.Context(), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EmbedHandler) respond(c *gin.Context, op func(context.Context, string) (*model.EmbedView, *apperrors.APIError)) {
	embed, apiErr := op(c.Request.Context(), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"embed": embed})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "countdown/backend/internal/errors"
	"countdown/backend/internal/share"
)

type ShareHandler struct {
	baseURL string
}

func NewShareHandler(baseURL string) *ShareHandler {
	return &ShareHandler{baseURL: baseURL}
}

// EncodeTimer answers with a timer link. The payload must survive decoding,
// so out of range values are rejected up front.
func (h *ShareHandler) EncodeTimer(c *gin.Context) {
	var req share.Timer
	if !bindJSON(c, &req) {
		return
	}

	link := share.EncodeTimerURL(h.baseURL, req.Label, req.DurationSeconds)
	if _, ok := share.DecodeTimerURL(link); !ok {
		writeError(c, apperrors.BadRequest("invalid_timer", "label or duration out of range"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link})
}

func (h *ShareHandler) DecodeTimer(c *gin.Context) {
	timer, ok := share.DecodeTimerURL(c.Request.URL.RawQuery)
	if !ok {
		writeError(c, invalidLink())
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": timer})
}

func (h *ShareHandler) EncodeEvent(c *gin.Context) {
	var req share.Event
	if !bindJSON(c, &req) {
		return
	}

	link := share.EncodeEventURL(h.baseURL, req.Name, req.TargetDate)
	if _, ok := share.DecodeEventURL(link); !ok {
		writeError(c, apperrors.BadRequest("invalid_event", "name or target date out of range"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link})
}

func (h *ShareHandler) DecodeEvent(c *gin.Context) {
	event, ok := share.DecodeEventURL(c.Request.URL.RawQuery)
	if !ok {
		writeError(c, invalidLink())
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": event})
}

// EncodeEmbed answers with the widget link and its iframe snippet.
func (h *ShareHandler) EncodeEmbed(c *gin.Context) {
	var req share.Embed
	if !bindJSON(c, &req) {
		return
	}

	link := share.EncodeEmbedURL(h.baseURL, req)
	if _, ok := share.ParseEmbed(link); !ok {
		writeError(c, apperrors.BadRequest("invalid_embed", "label and a positive duration are required"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link, "html": share.IframeSnippet(link)})
}

func invalidLink() *apperrors.APIError {
	return apperrors.BadRequest("invalid_link", "link is malformed or out of range")
}

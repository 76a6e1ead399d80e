package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "countdown/backend/internal/errors"
	"countdown/backend/internal/model"
	"countdown/backend/internal/service"
)

type EventHandler struct {
	eventService *service.EventService
}

// eventRequest accepts the target either as RFC 3339 or as Unix milliseconds.
type eventRequest struct {
	Name         string     `json:"name"`
	TargetDate   *time.Time `json:"targetDate"`
	TargetDateMs *int64     `json:"targetDateMs"`
}

func (r eventRequest) input() (model.EventInput, *apperrors.APIError) {
	switch {
	case r.TargetDate != nil:
		return model.EventInput{Name: r.Name, TargetDate: *r.TargetDate}, nil
	case r.TargetDateMs != nil:
		return model.EventInput{Name: r.Name, TargetDate: time.UnixMilli(*r.TargetDateMs).UTC()}, nil
	default:
		return model.EventInput{}, apperrors.BadRequest("invalid_target", "targetDate is required")
	}
}

func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

func (h *EventHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": h.eventService.List(c.Request.Context())})
}

func (h *EventHandler) Get(c *gin.Context) {
	event, apiErr := h.eventService.Get(c.Request.Context(), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": event})
}

func (h *EventHandler) Create(c *gin.Context) {
	var req eventRequest
	if !bindJSON(c, &req) {
		return
	}
	in, apiErr := req.input()
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	event, apiErr := h.eventService.Add(c.Request.Context(), in)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": event})
}

func (h *EventHandler) Update(c *gin.Context) {
	var req eventRequest
	if !bindJSON(c, &req) {
		return
	}
	in, apiErr := req.input()
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	event, apiErr := h.eventService.Update(c.Request.Context(), c.Param("id"), in)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": event})
}

func (h *EventHandler) Delete(c *gin.Context) {
	if apiErr := h.eventService.Delete(c.Request.Context(), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

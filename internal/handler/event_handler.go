package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gracechapel-dev/church-site-api/internal/models"
	"github.com/gracechapel-dev/church-site-api/internal/service"
	appErrors "github.com/gracechapel-dev/church-site-api/pkg/errors"
	"github.com/gracechapel-dev/church-site-api/pkg/response"
)

// EventHandler exposes event endpoints for the public site and the admin
// back-office.
type EventHandler struct {
	events     *service.EventService
	featured   *service.FeaturedService
	recurrence *service.RecurrenceService
	export     *service.ExportService
	ics        *service.ICSService
}

// NewEventHandler constructs EventHandler.
func NewEventHandler(events *service.EventService, featured *service.FeaturedService, recurrence *service.RecurrenceService, export *service.ExportService, ics *service.ICSService) *EventHandler {
	return &EventHandler{events: events, featured: featured, recurrence: recurrence, export: export, ics: ics}
}

// ListPublic godoc
// @Summary List published events
// @Tags Events
// @Produce json
// @Param category query string false "Filter by category"
// @Param from query string false "Only events on or after this date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) ListPublic(c *gin.Context) {
	req := service.EventListRequest{
		PublishedOnly: true,
		Category:      strings.TrimSpace(c.Query("category")),
		UpcomingFrom:  strings.TrimSpace(c.Query("from")),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		req.PageSize = size
	}

	events, pagination, err := h.events.List(c.Request.Context(), req)
	if err != nil {
		// Public listings degrade to empty rather than failing the page.
		response.JSON(c, http.StatusOK, []models.Event{}, nil)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Featured godoc
// @Summary Currently featured event
// @Description Returns the featured upcoming event, or the next upcoming event when none is flagged.
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events/featured [get]
func (h *EventHandler) Featured(c *gin.Context) {
	result := h.featured.Featured(c.Request.Context(), time.Now())
	response.JSON(c, http.StatusOK, result, nil)
}

// GetPublic godoc
// @Summary Get a published event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) GetPublic(c *gin.Context) {
	event, err := h.events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !event.IsPublished {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "event not found"))
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// ICSFeed godoc
// @Summary iCalendar feed of published events
// @Tags Events
// @Produce plain
// @Success 200 {string} string "ICS document"
// @Router /events.ics [get]
func (h *EventHandler) ICSFeed(c *gin.Context) {
	feed, err := h.ics.Feed(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="events.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}

// ListAdmin godoc
// @Summary List all events including drafts
// @Tags Events
// @Produce json
// @Param category query string false "Filter by category"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/events [get]
func (h *EventHandler) ListAdmin(c *gin.Context) {
	req := service.EventListRequest{
		Category: strings.TrimSpace(c.Query("category")),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		req.PageSize = size
	}

	events, pagination, err := h.events.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get event detail
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /admin/events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Create event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body service.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /admin/events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.events.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update event
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body service.UpdateEventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /admin/events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	var req service.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.events.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete event
// @Tags Events
// @Param id path string true "Event ID"
// @Success 204 {object} response.Envelope
// @Router /admin/events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.events.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GenerateRequest wraps a recurring template with its materialization horizon.
type GenerateRequest struct {
	Template   models.RecurringTemplate `json:"template"`
	HorizonEnd string                   `json:"horizon_end"`
}

// Generate godoc
// @Summary Materialize a weekly recurring event
// @Description Inserts one event row per occurrence from the template start date up to (excluding) the horizon end.
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body GenerateRequest true "Template and horizon"
// @Success 200 {object} response.Envelope
// @Router /admin/events/generate [post]
func (h *EventHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.recurrence.Generate(c.Request.Context(), req.Template, req.HorizonEnd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RepairDates godoc
// @Summary Repair recurring event dates
// @Description Realigns recurring event dates whose weekday contradicts the day named in the title.
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/events/repair-dates [post]
func (h *EventHandler) RepairDates(c *gin.Context) {
	result, err := h.recurrence.RepairDates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export the event roster
// @Tags Events
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /admin/events/export [get]
func (h *EventHandler) Export(c *gin.Context) {
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	file, err := h.export.EventRoster(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

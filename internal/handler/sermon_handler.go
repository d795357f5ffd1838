package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gracechapel-dev/church-site-api/internal/models"
	"github.com/gracechapel-dev/church-site-api/internal/service"
	appErrors "github.com/gracechapel-dev/church-site-api/pkg/errors"
	"github.com/gracechapel-dev/church-site-api/pkg/response"
)

// SermonHandler exposes sermon endpoints.
type SermonHandler struct {
	sermons *service.SermonService
}

// NewSermonHandler constructs SermonHandler.
func NewSermonHandler(sermons *service.SermonService) *SermonHandler {
	return &SermonHandler{sermons: sermons}
}

// ListPublic godoc
// @Summary List published sermons
// @Tags Sermons
// @Produce json
// @Param speaker query string false "Filter by speaker"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sermons [get]
func (h *SermonHandler) ListPublic(c *gin.Context) {
	req := service.SermonListRequest{
		PublishedOnly: true,
		Speaker:       strings.TrimSpace(c.Query("speaker")),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		req.PageSize = size
	}

	sermons, pagination, err := h.sermons.List(c.Request.Context(), req)
	if err != nil {
		response.JSON(c, http.StatusOK, []models.Sermon{}, nil)
		return
	}
	response.JSON(c, http.StatusOK, sermons, pagination)
}

// GetPublic godoc
// @Summary Get a published sermon
// @Tags Sermons
// @Produce json
// @Param id path string true "Sermon ID"
// @Success 200 {object} response.Envelope
// @Router /sermons/{id} [get]
func (h *SermonHandler) GetPublic(c *gin.Context) {
	sermon, err := h.sermons.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !sermon.IsPublished {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "sermon not found"))
		return
	}
	response.JSON(c, http.StatusOK, sermon, nil)
}

// Get godoc
// @Summary Get any sermon including drafts
// @Tags Sermons
// @Produce json
// @Param id path string true "Sermon ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/sermons/{id} [get]
func (h *SermonHandler) Get(c *gin.Context) {
	sermon, err := h.sermons.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sermon, nil)
}

// ListAdmin godoc
// @Summary List all sermons including drafts
// @Tags Sermons
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/sermons [get]
func (h *SermonHandler) ListAdmin(c *gin.Context) {
	req := service.SermonListRequest{
		Speaker: strings.TrimSpace(c.Query("speaker")),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		req.PageSize = size
	}

	sermons, pagination, err := h.sermons.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sermons, pagination)
}

// Create godoc
// @Summary Create sermon
// @Tags Sermons
// @Accept json
// @Produce json
// @Param payload body service.SermonRequest true "Sermon payload"
// @Success 201 {object} response.Envelope
// @Router /admin/sermons [post]
func (h *SermonHandler) Create(c *gin.Context) {
	var req service.SermonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sermon, err := h.sermons.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sermon)
}

// Update godoc
// @Summary Update sermon
// @Tags Sermons
// @Accept json
// @Produce json
// @Param id path string true "Sermon ID"
// @Param payload body service.SermonRequest true "Sermon payload"
// @Success 200 {object} response.Envelope
// @Router /admin/sermons/{id} [put]
func (h *SermonHandler) Update(c *gin.Context) {
	var req service.SermonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sermon, err := h.sermons.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sermon, nil)
}

// Delete godoc
// @Summary Delete sermon
// @Tags Sermons
// @Param id path string true "Sermon ID"
// @Success 204 {object} response.Envelope
// @Router /admin/sermons/{id} [delete]
func (h *SermonHandler) Delete(c *gin.Context) {
	if err := h.sermons.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

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

// ArticleHandler exposes article endpoints.
type ArticleHandler struct {
	articles *service.ArticleService
}

// NewArticleHandler constructs ArticleHandler.
func NewArticleHandler(articles *service.ArticleService) *ArticleHandler {
	return &ArticleHandler{articles: articles}
}

// ListPublic godoc
// @Summary List published articles
// @Tags Articles
// @Produce json
// @Param author query string false "Filter by author"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /articles [get]
func (h *ArticleHandler) ListPublic(c *gin.Context) {
	req := service.ArticleListRequest{
		PublishedOnly: true,
		Author:        strings.TrimSpace(c.Query("author")),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		req.PageSize = size
	}

	articles, pagination, err := h.articles.List(c.Request.Context(), req)
	if err != nil {
		response.JSON(c, http.StatusOK, []models.Article{}, nil)
		return
	}
	response.JSON(c, http.StatusOK, articles, pagination)
}

// GetBySlug godoc
// @Summary Get a published article by slug
// @Tags Articles
// @Produce json
// @Param slug path string true "Article slug"
// @Success 200 {object} response.Envelope
// @Router /articles/{slug} [get]
func (h *ArticleHandler) GetBySlug(c *gin.Context) {
	article, err := h.articles.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if article.PublishedAt == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "article not found"))
		return
	}
	response.JSON(c, http.StatusOK, article, nil)
}

// ListAdmin godoc
// @Summary List all articles including drafts
// @Tags Articles
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/articles [get]
func (h *ArticleHandler) ListAdmin(c *gin.Context) {
	req := service.ArticleListRequest{
		Author: strings.TrimSpace(c.Query("author")),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		req.PageSize = size
	}

	articles, pagination, err := h.articles.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, articles, pagination)
}

// Get godoc
// @Summary Get article detail
// @Tags Articles
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} response.Envelope
// @Router /admin/articles/{id} [get]
func (h *ArticleHandler) Get(c *gin.Context) {
	article, err := h.articles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, article, nil)
}

// Create godoc
// @Summary Create article
// @Tags Articles
// @Accept json
// @Produce json
// @Param payload body service.ArticleRequest true "Article payload"
// @Success 201 {object} response.Envelope
// @Router /admin/articles [post]
func (h *ArticleHandler) Create(c *gin.Context) {
	var req service.ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	article, err := h.articles.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, article)
}

// Update godoc
// @Summary Update article
// @Tags Articles
// @Accept json
// @Produce json
// @Param id path string true "Article ID"
// @Param payload body service.ArticleRequest true "Article payload"
// @Success 200 {object} response.Envelope
// @Router /admin/articles/{id} [put]
func (h *ArticleHandler) Update(c *gin.Context) {
	var req service.ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	article, err := h.articles.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, article, nil)
}

// Delete godoc
// @Summary Delete article
// @Tags Articles
// @Param id path string true "Article ID"
// @Success 204 {object} response.Envelope
// @Router /admin/articles/{id} [delete]
func (h *ArticleHandler) Delete(c *gin.Context) {
	if err := h.articles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/middleware"
	"cinebook/internal/service"
)

// Home - GET /
// Главная: фильмы, кинотеатры и расписание загружаются независимо
func (h *Handlers) Home(c *gin.Context) {
	page, err := h.services.Catalog.Home(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil && apperrors.IsUnauthorized(err) {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListMovies - GET /list-movie
// Список фильмов с фильтром по статусу и поиском по названию
func (h *Handlers) ListMovies(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case service.StatusAll, service.StatusNowShowing, service.StatusComingSoon:
	default:
		h.bindError(c, errInvalidStatus)
		return
	}

	page, err := h.services.Catalog.MovieList(c.Request.Context(), middleware.SessionFrom(c), status, listState(c))
	if err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Movie - GET /movie/:id
// Фильм и его сеансы по кинотеатрам
func (h *Handlers) Movie(c *gin.Context) {
	id, err := paramInt64(c, "id")
	if err != nil {
		h.bindError(c, err)
		return
	}

	detail, err := h.services.Catalog.Movie(c.Request.Context(), middleware.SessionFrom(c), id)
	if err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Cinemas - GET /cinemas?system=<id>
func (h *Handlers) Cinemas(c *gin.Context) {
	page, err := h.services.Catalog.Cinemas(c.Request.Context(), middleware.SessionFrom(c), c.Query("system"))
	if err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, page)
}

// News - GET /news
func (h *Handlers) News(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Catalog.News(listState(c)))
}

// NewsArticle - GET /news/:id
func (h *Handlers) NewsArticle(c *gin.Context) {
	article, err := h.services.Catalog.Article(c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, article)
}

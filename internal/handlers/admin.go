package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/middleware"
	"cinebook/internal/models"
)

const (
	posterField   = "poster"
	maxPosterSize = 5 << 20
)

// Dashboard - GET /admin
// Статистика по фильмам и пользователям; каждая часть со своим состоянием
func (h *Handlers) Dashboard(c *gin.Context) {
	d, err := h.services.Admin.Dashboard(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil && apperrors.IsUnauthorized(err) {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, d)
}

// AdminFilms - GET /admin/films
func (h *Handlers) AdminFilms(c *gin.Context) {
	page, err := h.services.Admin.Films(c.Request.Context(), middleware.SessionFrom(c), listState(c))
	if err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateFilm - POST /admin/films/addnew
// multipart/form-data: поля фильма и файл постера
func (h *Handlers) CreateFilm(c *gin.Context) {
	var in models.MovieInput
	if err := c.ShouldBind(&in); err != nil {
		h.bindError(c, err)
		return
	}

	poster, err := readUpload(c, posterField)
	if err != nil {
		h.bindError(c, err)
		return
	}

	movie, err := h.services.Admin.CreateFilm(c.Request.Context(), middleware.SessionFrom(c), in, poster)
	if err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"movie": movie, "redirect": "/admin/films"})
}

// EditFilm - GET /admin/films/edit/:id
func (h *Handlers) EditFilm(c *gin.Context) {
	id, err := paramInt64(c, "id")
	if err != nil {
		h.bindError(c, err)
		return
	}

	movie, err := h.services.Admin.FilmForEdit(c.Request.Context(), middleware.SessionFrom(c), id)
	if err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, movie)
}

// UpdateFilm - PUT /admin/films/edit/:id
// Постер необязателен: без файла остается текущий
func (h *Handlers) UpdateFilm(c *gin.Context) {
	id, err := paramInt64(c, "id")
	if err != nil {
		h.bindError(c, err)
		return
	}

	var in models.MovieInput
	if err := c.ShouldBind(&in); err != nil {
		h.bindError(c, err)
		return
	}

	poster, err := readUpload(c, posterField)
	if err != nil {
		h.bindError(c, err)
		return
	}

	if err := h.services.Admin.UpdateFilm(c.Request.Context(), middleware.SessionFrom(c), id, in, poster); err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": "/admin/films"})
}

// DeleteFilm - DELETE /admin/films/:id
func (h *Handlers) DeleteFilm(c *gin.Context) {
	id, err := paramInt64(c, "id")
	if err != nil {
		h.bindError(c, err)
		return
	}

	if err := h.services.Admin.DeleteFilm(c.Request.Context(), middleware.SessionFrom(c), id); err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// ShowtimeForm - GET /admin/films/showtime/:id?system=<id>
func (h *Handlers) ShowtimeForm(c *gin.Context) {
	id, err := paramInt64(c, "id")
	if err != nil {
		h.bindError(c, err)
		return
	}

	form, err := h.services.Admin.ShowtimeForm(c.Request.Context(), middleware.SessionFrom(c), id, c.Query("system"))
	if err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, form)
}

// CreateShowtime - POST /admin/films/showtime/:id
func (h *Handlers) CreateShowtime(c *gin.Context) {
	id, err := paramInt64(c, "id")
	if err != nil {
		h.bindError(c, err)
		return
	}

	var in models.ShowtimeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.bindError(c, err)
		return
	}

	if err := h.services.Admin.CreateShowtime(c.Request.Context(), middleware.SessionFrom(c), id, in); err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"redirect": "/admin/films"})
}

// AdminUsers - GET /admin/users
func (h *Handlers) AdminUsers(c *gin.Context) {
	page, err := h.services.Admin.Users(c.Request.Context(), middleware.SessionFrom(c), listState(c))
	if err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateUser - POST /admin/add-user
func (h *Handlers) CreateUser(c *gin.Context) {
	var in models.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.bindError(c, err)
		return
	}

	if err := h.services.Admin.CreateUser(c.Request.Context(), middleware.SessionFrom(c), in); err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"redirect": "/admin/users"})
}

// EditUser - GET /admin/users/edit/:id
// Пароль в форме всегда замаскирован
func (h *Handlers) EditUser(c *gin.Context) {
	form, err := h.services.Admin.UserForEdit(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, form)
}

// UpdateUser - PUT /admin/users/edit/:id
func (h *Handlers) UpdateUser(c *gin.Context) {
	var in models.UserInput
	in.Account = c.Param("id")
	if err := c.ShouldBindJSON(&in); err != nil {
		h.bindError(c, err)
		return
	}

	if err := h.services.Admin.UpdateUser(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"), in); err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": "/admin/users"})
}

// DeleteUser - DELETE /admin/users/:id
func (h *Handlers) DeleteUser(c *gin.Context) {
	if err := h.services.Admin.DeleteUser(c.Request.Context(), middleware.SessionFrom(c), c.Param("id")); err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// readUpload reads an optional multipart file. A missing file yields nil.
func readUpload(c *gin.Context, field string) (*models.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	if fh.Size > maxPosterSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", field, maxPosterSize)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	return &models.Upload{Filename: fh.Filename, Data: data}, nil
}

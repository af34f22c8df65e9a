package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/listing"
	"cinebook/internal/logger"
	"cinebook/internal/middleware"
	"cinebook/internal/service"
	"cinebook/internal/session"
)

const themeCookie = "cinebook_theme"

var errInvalidStatus = errors.New("status must be now_showing or coming_soon")

type Handlers struct {
	services *service.Services
	sessions *session.Manager
}

func NewHandlers(services *service.Services, sessions *session.Manager) *Handlers {
	return &Handlers{
		services: services,
		sessions: sessions,
	}
}

// handleServiceError answers with the classified error. An unauthorized
// error ends the current session first and tells the client where to go.
// Admin routes also ask the client to repeat the message in a dialog.
func (h *Handlers) handleServiceError(c *gin.Context, err error, extra gin.H) {
	ctx := c.Request.Context()
	cl := apperrors.Classify(err)
	admin := strings.HasPrefix(c.FullPath(), "/admin")

	body := gin.H{"error": cl.Message, "kind": cl.Kind}
	for k, v := range extra {
		body[k] = v
	}

	if cl.Kind == apperrors.KindUnauthorized {
		if s := middleware.SessionFrom(c); s != nil {
			if expErr := h.sessions.Expire(ctx, s); expErr != nil {
				logger.WithContext(ctx).Error("Failed to expire session", "error", expErr)
			}
		}
		middleware.ClearSessionCookie(c, h.sessions.Config())

		redirect := middleware.LoginPath
		if admin {
			redirect = middleware.AdminLoginPath
		}
		body["redirect"] = redirect
	}
	if admin {
		body["dialog"] = true
	}

	log := logger.WithContext(ctx)
	if cl.Status >= http.StatusInternalServerError {
		log.Error("Request failed", "path", c.FullPath(), "kind", cl.Kind, "error", err)
	} else {
		log.Info("Request rejected", "path", c.FullPath(), "kind", cl.Kind, "error", err)
	}

	_ = c.Error(err)
	c.JSON(cl.Status, body)
}

// bindError answers a request whose body failed validation.
func (h *Handlers) bindError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error(), "kind": apperrors.KindInvalid}
	if strings.HasPrefix(c.FullPath(), "/admin") {
		body["dialog"] = true
	}
	c.JSON(http.StatusBadRequest, body)
}

func paramInt64(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, c.Param(name))
	}
	return id, nil
}

// listState reads the filter and page of a list screen.
func listState(c *gin.Context) listing.State {
	return listing.StateFromQuery(c.Request.URL.Query())
}

// Health - GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/logger"
	"cinebook/internal/models"
	"cinebook/internal/session"
)

const sessionKey = "session"

// Redirect targets of the route guards.
const (
	LoginPath      = "/login"
	AdminLoginPath = "/admin/login"
)

// Sessions resolves the session cookie and stores the session in the gin
// context. Requests without a valid session continue anonymously; a stale
// cookie is cleared.
func Sessions(manager *session.Manager) gin.HandlerFunc {
	cfg := manager.Config()

	return func(c *gin.Context) {
		cookie, err := c.Cookie(cfg.CookieName)
		if err != nil || cookie == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		s, err := manager.Resolve(ctx, cookie)
		if err != nil {
			if !errors.Is(err, apperrors.ErrSessionNotFound) {
				logger.WithContext(ctx).Error("Failed to resolve session", "error", err)
			}
			ClearSessionCookie(c, cfg)
			c.Next()
			return
		}

		c.Set(sessionKey, s)
		c.Request = c.Request.WithContext(logger.ContextWithAccount(ctx, s.User.Account))
		c.Next()
	}
}

// SessionFrom returns the session of the request, nil when anonymous.
func SessionFrom(c *gin.Context) *models.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*models.Session)
	return s
}

// RequireSession redirects anonymous requests to the login page.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !SessionFrom(c).IsLoggedIn() {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin lets through sessions whose role the authorizer allows on
// the route; everyone else is sent to the admin login page.
func RequireAdmin(authz *Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := SessionFrom(c)
		if !s.IsLoggedIn() {
			c.Redirect(http.StatusFound, AdminLoginPath)
			c.Abort()
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		allowed, err := authz.Allow(s.User.Role, path, c.Request.Method)
		if err != nil {
			logger.WithContext(c.Request.Context()).Error("Authorization check failed", "path", path, "error", err)
		}
		if !allowed {
			logger.WithContext(c.Request.Context()).Warn("Admin route denied", "path", path, "role", s.User.Role)
			c.Redirect(http.StatusFound, AdminLoginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SetSessionCookie hands the signed session id to the browser.
func SetSessionCookie(c *gin.Context, cfg session.Config, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, value, int(cfg.TTL.Seconds()), "/", "", cfg.SecureCookie, true)
}

func ClearSessionCookie(c *gin.Context, cfg session.Config) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.SecureCookie, true)
}

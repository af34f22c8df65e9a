package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cinebook/internal/logger"
	"cinebook/internal/middleware"
	"cinebook/internal/models"
)

// Login - POST /login
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	sess, cookie, err := h.services.Accounts.Login(c.Request.Context(), middleware.SessionFrom(c), req)
	if err != nil {
		h.handleServiceError(c, err, nil)
		return
	}

	middleware.SetSessionCookie(c, h.sessions.Config(), cookie)
	c.JSON(http.StatusOK, gin.H{"user": sess.User, "redirect": "/"})
}

// AdminLogin - POST /admin/login
// Вход в админку; учетные записи без роли администратора отклоняются
func (h *Handlers) AdminLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	sess, cookie, err := h.services.Accounts.AdminLogin(c.Request.Context(), middleware.SessionFrom(c), req)
	if err != nil {
		h.handleServiceError(c, err, nil)
		return
	}

	middleware.SetSessionCookie(c, h.sessions.Config(), cookie)
	c.JSON(http.StatusOK, gin.H{"user": sess.User, "redirect": "/admin"})
}

// Register - POST /register
func (h *Handlers) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	user, err := h.services.Accounts.Register(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err, nil)
		return
	}

	logger.WithContext(c.Request.Context()).Info("Account registered", "new_account", user.Account)
	c.JSON(http.StatusCreated, gin.H{"user": user, "redirect": middleware.LoginPath})
}

// Logout - POST /logout
func (h *Handlers) Logout(c *gin.Context) {
	if sess := middleware.SessionFrom(c); sess != nil {
		if err := h.services.Accounts.Logout(c.Request.Context(), sess); err != nil {
			logger.WithContext(c.Request.Context()).Error("Failed to end session", "error", err)
		}
	}

	middleware.ClearSessionCookie(c, h.sessions.Config())
	c.JSON(http.StatusOK, gin.H{"redirect": "/"})
}

// Profile - GET /profile, GET /admin/profile
// Данные пользователя и история билетов
func (h *Handlers) Profile(c *gin.Context) {
	acc, err := h.services.Accounts.Profile(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, acc)
}

// UpdateProfile - PUT /profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var in models.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.bindError(c, err)
		return
	}

	user, err := h.services.Accounts.UpdateProfile(c.Request.Context(), middleware.SessionFrom(c), in)
	if err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetTheme - GET /theme
func (h *Handlers) GetTheme(c *gin.Context) {
	theme, err := c.Cookie(themeCookie)
	if err != nil || (theme != models.ThemeLight && theme != models.ThemeDark) {
		theme = models.ThemeLight
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

// SetTheme - PUT /theme
func (h *Handlers) SetTheme(c *gin.Context) {
	var req models.ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(themeCookie, req.Theme, 365*24*60*60, "/", "", h.sessions.Config().SecureCookie, false)
	c.JSON(http.StatusOK, gin.H{"theme": req.Theme})
}

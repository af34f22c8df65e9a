package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cinebook/internal/middleware"
	"cinebook/internal/models"
)

// StartBooking - GET /dat-ve/:id
// Открыть схему зала сеанса; выбор мест начинается заново
func (h *Handlers) StartBooking(c *gin.Context) {
	showtimeID, err := paramInt64(c, "id")
	if err != nil {
		h.bindError(c, err)
		return
	}

	view, err := h.services.Booking.Start(c.Request.Context(), middleware.SessionFrom(c), showtimeID)
	if err != nil {
		h.handleServiceError(c, err, gin.H{"visit": view})
		return
	}
	c.JSON(http.StatusOK, view)
}

// ToggleSeat - POST /dat-ve/:id/toggle
// Выбрать место или снять выбор
func (h *Handlers) ToggleSeat(c *gin.Context) {
	showtimeID, err := paramInt64(c, "id")
	if err != nil {
		h.bindError(c, err)
		return
	}

	var req models.ToggleSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	view, err := h.services.Booking.Toggle(c.Request.Context(), middleware.SessionFrom(c), showtimeID, req.SeatID)
	if err != nil {
		h.handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SubmitBooking - POST /dat-ve/:id/submit
// Забронировать выбранные места. On failure the response still carries the
// visit so the client keeps showing the selection.
func (h *Handlers) SubmitBooking(c *gin.Context) {
	showtimeID, err := paramInt64(c, "id")
	if err != nil {
		h.bindError(c, err)
		return
	}

	view, err := h.services.Booking.Submit(c.Request.Context(), middleware.SessionFrom(c), showtimeID)
	if err != nil {
		h.handleServiceError(c, err, gin.H{"visit": view})
		return
	}
	c.JSON(http.StatusOK, view)
}

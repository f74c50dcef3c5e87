package handlers

import (
	"net/http"

	"trimly/models"
	"trimly/services/booking"
	"trimly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the appointment lifecycle over HTTP.
type BookingHandler struct {
	Service booking.BookingService
	Logger  *zap.Logger
}

func NewBookingHandler(svc booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Logger: logger}
}

// bookingResponse wraps a booking with the optional soft warning from a
// partially failed side effect.
func bookingResponse(c *gin.Context, status int, b *models.Booking, err error) {
	if warning, ok := partialWarning(err); ok {
		c.JSON(status, gin.H{"booking": b, "warning": warning})
		return
	}
	c.JSON(status, gin.H{"booking": b})
}

// CheckAvailabilityHandler returns the slot view for one shop day.
// GET /api/shops/:id/availability?date=2006-01-02
func (h *BookingHandler) CheckAvailabilityHandler(c *gin.Context) {
	shopID := c.Param("id")
	date := c.Query("date")
	if date == "" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", "date query parameter is required")
		return
	}

	view, err := h.Service.CheckAvailability(c.Request.Context(), shopID, date)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// BookHandler creates a new pending appointment.
// POST /api/bookings
func (h *BookingHandler) BookHandler(c *gin.Context) {
	var req booking.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	b, err := h.Service.Book(c.Request.Context(), req)
	if err != nil {
		if _, ok := partialWarning(err); !ok {
			respondServiceError(c, err)
			return
		}
	}
	bookingResponse(c, http.StatusCreated, b, err)
}

// ConfirmHandler confirms a pending booking.
// POST /api/bookings/:id/confirm
func (h *BookingHandler) ConfirmHandler(c *gin.Context) {
	b, err := h.Service.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		if _, ok := partialWarning(err); !ok {
			respondServiceError(c, err)
			return
		}
	}
	bookingResponse(c, http.StatusOK, b, err)
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"required"`
	Actor  string `json:"actor"`
}

// CancelHandler cancels a pending or confirmed booking.
// POST /api/bookings/:id/cancel
func (h *BookingHandler) CancelHandler(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	if req.Actor == "" {
		req.Actor = "customer"
	}

	b, err := h.Service.Cancel(c.Request.Context(), c.Param("id"), req.Reason, req.Actor)
	if err != nil {
		if _, ok := partialWarning(err); !ok {
			respondServiceError(c, err)
			return
		}
	}
	bookingResponse(c, http.StatusOK, b, err)
}

type rescheduleRequest struct {
	NewDate string `json:"new_date" binding:"required"`
	NewTime string `json:"new_time" binding:"required"`
}

// RescheduleHandler moves a confirmed booking to a new slot.
// POST /api/bookings/:id/reschedule
func (h *BookingHandler) RescheduleHandler(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	b, err := h.Service.Reschedule(c.Request.Context(), c.Param("id"), req.NewDate, req.NewTime)
	if err != nil {
		if _, ok := partialWarning(err); !ok {
			respondServiceError(c, err)
			return
		}
	}
	bookingResponse(c, http.StatusOK, b, err)
}

// GetBookingHandler returns one booking with its derived status.
// GET /api/bookings/:id
func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	b, err := h.Service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// ListShopBookingsHandler returns a shop's bookings, optionally for one date.
// GET /api/shops/:id/bookings?date=2006-01-02
func (h *BookingHandler) ListShopBookingsHandler(c *gin.Context) {
	bookings, err := h.Service.ListShopBookings(c.Request.Context(), c.Param("id"), c.Query("date"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

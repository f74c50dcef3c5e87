package routes

import (
	"trimly/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all endpoints for the booking engine.
func RegisterRoutes(r *gin.Engine, bookingH *handlers.BookingHandler, ratingH *handlers.RatingHandler, shopH *handlers.ShopHandler) {
	shops := r.Group("/api/shops")
	{
		shops.GET("/:id", shopH.GetShopHandler)
		shops.PUT("/:id/availability", shopH.UpdateAvailabilityHandler)
		shops.GET("/:id/availability", bookingH.CheckAvailabilityHandler)
		shops.GET("/:id/bookings", bookingH.ListShopBookingsHandler)
		shops.GET("/:id/rating", ratingH.GetShopRatingHandler)
		shops.GET("/:id/ratings", ratingH.ListShopRatingsHandler)
		shops.GET("/:id/notifications", shopH.ListNotificationsHandler)
	}

	bookings := r.Group("/api/bookings")
	{
		bookings.POST("", bookingH.BookHandler)
		bookings.GET("/:id", bookingH.GetBookingHandler)
		bookings.POST("/:id/confirm", bookingH.ConfirmHandler)
		bookings.POST("/:id/cancel", bookingH.CancelHandler)
		bookings.POST("/:id/reschedule", bookingH.RescheduleHandler)
	}

	r.POST("/api/ratings", ratingH.SubmitRatingHandler)
	r.POST("/api/notifications/:id/read", shopH.MarkNotificationReadHandler)
}

package rating

import (
	"context"

	bookingRepo "trimly/database/repository/booking"
	ratingRepo "trimly/database/repository/rating"
	shopRepo "trimly/database/repository/shop"
	"trimly/models"
	"trimly/services/notification"
)

// SubmitRatingRequest is the input for rating a completed appointment.
type SubmitRatingRequest struct {
	BookingID  string `json:"booking_id" binding:"required"`
	CustomerID string `json:"customer_id" binding:"required"`
	Value      int    `json:"value" binding:"required"`
	Review     string `json:"review"`
}

// RatingService folds customer ratings into shop aggregates.
type RatingService interface {
	SubmitRating(ctx context.Context, req SubmitRatingRequest) (*models.Rating, error)
	GetShopRating(ctx context.Context, shopID string) (*models.RatingAggregate, error)
	ListShopRatings(ctx context.Context, shopID string) ([]models.Rating, error)
}

// DefaultRatingService is the production implementation.
type DefaultRatingService struct {
	Repo        ratingRepo.RatingRepository
	BookingRepo bookingRepo.BookingRepository
	ShopRepo    shopRepo.ShopRepository
	Notifier    notification.Dispatcher
}

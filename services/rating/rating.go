package rating

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "trimly/database/repository/booking"
	ratingRepo "trimly/database/repository/rating"
	shopRepo "trimly/database/repository/shop"
	"trimly/models"
	"trimly/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// nowFn is swapped out by tests that pin the clock.
var nowFn = time.Now

// SubmitRating validates the booking and commits the rating, the booking's
// is_rated flip and the shop aggregate merge as one atomic transaction. The
// aggregate merge is increment-based, so concurrent submissions for the
// same shop compose instead of losing updates.
func (s *DefaultRatingService) SubmitRating(ctx context.Context, req SubmitRatingRequest) (*models.Rating, error) {
	if req.Value < 1 || req.Value > 5 {
		return nil, utils.NewValidationError("rating value must be between 1 and 5, got %d", req.Value)
	}

	booking, err := s.BookingRepo.GetBookingByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, &utils.NotFoundError{Resource: "booking", ID: req.BookingID}
		}
		return nil, &utils.TransientError{Op: "booking lookup", Err: err}
	}
	if booking.CustomerID != req.CustomerID {
		return nil, utils.NewValidationError("booking %s does not belong to this customer", req.BookingID)
	}
	if booking.IsRated {
		return nil, utils.NewValidationError("booking %s is already rated", req.BookingID)
	}
	if booking.DerivedStatus(nowFn()) != models.BookingStatusCompleted {
		return nil, utils.NewValidationError("only completed appointments can be rated")
	}

	rating := &models.Rating{
		ID:         uuid.New().String(),
		BookingID:  booking.ID,
		ShopID:     booking.ShopID,
		CustomerID: booking.CustomerID,
		Value:      req.Value,
		Review:     req.Review,
		CreatedAt:  nowFn(),
	}
	if err := s.Repo.CommitRating(ctx, rating); err != nil {
		if errors.Is(err, ratingRepo.ErrAlreadyRated) {
			return nil, utils.NewValidationError("booking %s is already rated", req.BookingID)
		}
		return nil, &utils.TransientError{Op: "commit rating", Err: err}
	}

	if s.Notifier != nil {
		event := models.BookingEvent{
			Type:       models.NotifNewRating,
			ShopID:     booking.ShopID,
			BookingID:  booking.ID,
			CustomerID: booking.CustomerID,
			Title:      "New rating received",
			Message:    fmt.Sprintf("Your shop received a %d-star rating", req.Value),
			Data:       map[string]any{"value": req.Value, "review": req.Review},
		}
		if err := s.Notifier.FireAndForget(ctx, event); err != nil {
			utils.GetLogger().Warn("rating notification failed", zap.String("booking", booking.ID), zap.Error(err))
		}
	}

	return rating, nil
}

// GetShopRating returns the shop's denormalized rating statistics.
func (s *DefaultRatingService) GetShopRating(ctx context.Context, shopID string) (*models.RatingAggregate, error) {
	agg, err := s.ShopRepo.GetRatingAggregate(ctx, shopID)
	if err != nil {
		if errors.Is(err, shopRepo.ErrShopNotFound) {
			return nil, &utils.NotFoundError{Resource: "shop", ID: shopID}
		}
		return nil, &utils.TransientError{Op: "shop lookup", Err: err}
	}
	return agg, nil
}

// ListShopRatings returns a shop's individual rating records.
func (s *DefaultRatingService) ListShopRatings(ctx context.Context, shopID string) ([]models.Rating, error) {
	ratings, err := s.Repo.ListShopRatings(ctx, shopID)
	if err != nil {
		return nil, &utils.TransientError{Op: "list ratings", Err: err}
	}
	return ratings, nil
}

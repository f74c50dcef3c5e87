package ratingRepo

import (
	"context"
	"errors"

	"trimly/models"
)

// ErrAlreadyRated is returned when the guarded isRated flip matched no
// document, meaning another submission for the same booking won the race.
var ErrAlreadyRated = errors.New("booking already rated")

// RatingRepository persists rating records and folds them into the shop's
// denormalized aggregate.
type RatingRepository interface {
	// CommitRating performs the three logically-coupled writes as one
	// transaction: insert the rating, flip the booking's is_rated flag (only
	// if still false), and merge the value into the shop aggregate with
	// atomic increments.
	CommitRating(ctx context.Context, rating *models.Rating) error
	GetRatingByID(ctx context.Context, ratingID string) (*models.Rating, error)
	ListShopRatings(ctx context.Context, shopID string) ([]models.Rating, error)
}

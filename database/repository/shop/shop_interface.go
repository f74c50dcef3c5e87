package shopRepo

import (
	"context"

	"trimly/models"
)

// ShopRepository provides access to shop documents.
type ShopRepository interface {
	GetShopByID(ctx context.Context, shopID string) (*models.Shop, error)
	UpdateAvailability(ctx context.Context, shopID string, availability models.WeeklyAvailability) error
	GetRatingAggregate(ctx context.Context, shopID string) (*models.RatingAggregate, error)
}

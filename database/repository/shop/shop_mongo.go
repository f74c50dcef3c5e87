package shopRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trimly/database"
	"trimly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrShopNotFound is returned when no shop document matches the given ID.
var ErrShopNotFound = errors.New("shop not found")

// MongoShopRepo implements ShopRepository using MongoDB.
type MongoShopRepo struct {
	shopColl *mongo.Collection
}

// NewMongoShopRepo constructs a new instance of MongoShopRepo.
func NewMongoShopRepo() ShopRepository {
	db := database.DB()
	return &MongoShopRepo{
		shopColl: db.Collection("shops"),
	}
}

// GetShopByID retrieves a shop document by ID.
func (repo *MongoShopRepo) GetShopByID(ctx context.Context, shopID string) (*models.Shop, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var shop models.Shop
	filter := bson.M{"id": shopID}
	if err := repo.shopColl.FindOne(ctxWithTimeout, filter).Decode(&shop); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrShopNotFound
		}
		return nil, fmt.Errorf("error fetching shop with id %s: %w", shopID, err)
	}
	return &shop, nil
}

// UpdateAvailability replaces the shop's weekly availability schedule.
func (repo *MongoShopRepo) UpdateAvailability(ctx context.Context, shopID string, availability models.WeeklyAvailability) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": shopID}
	update := bson.M{"$set": bson.M{"availability": availability}}
	res, err := repo.shopColl.UpdateOne(ctxWithTimeout, filter, update)
	if err != nil {
		return fmt.Errorf("error updating availability for shop %s: %w", shopID, err)
	}
	if res.MatchedCount == 0 {
		return ErrShopNotFound
	}
	return nil
}

// GetRatingAggregate fetches only the denormalized rating statistics of a shop.
func (repo *MongoShopRepo) GetRatingAggregate(ctx context.Context, shopID string) (*models.RatingAggregate, error) {
	shop, err := repo.GetShopByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	return &shop.Rating, nil
}

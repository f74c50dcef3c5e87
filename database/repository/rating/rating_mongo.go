package ratingRepo

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

// ErrRatingNotFound is returned when no rating matches the given ID.
var ErrRatingNotFound = errors.New("rating not found")

// MongoRatingRepo implements RatingRepository using MongoDB.
type MongoRatingRepo struct {
	ratingColl  *mongo.Collection
	bookingColl *mongo.Collection
	shopColl    *mongo.Collection
}

// NewMongoRatingRepo constructs a new instance of MongoRatingRepo.
func NewMongoRatingRepo() RatingRepository {
	db := database.DB()
	return &MongoRatingRepo{
		ratingColl:  db.Collection("ratings"),
		bookingColl: db.Collection("bookings"),
		shopColl:    db.Collection("shops"),
	}
}

// CommitRating writes the rating, the booking flag and the shop aggregate in
// one transaction. The aggregate moves only through $inc so concurrent
// submissions for the same shop compose instead of overwriting each other;
// the average is recomputed from sum/count in a pipeline update inside the
// same transaction.
func (repo *MongoRatingRepo) CommitRating(ctx context.Context, rating *models.Rating) error {
	client := repo.ratingColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		// Guarded flip: matches only while is_rated is still false, so a
		// booking is rated exactly once even under concurrent submissions.
		flipFilter := bson.M{"id": rating.BookingID, "is_rated": false}
		flipUpdate := bson.M{"$set": bson.M{
			"is_rated":      true,
			"rating_id":     rating.ID,
			"last_modified": time.Now(),
		}}
		res, err := repo.bookingColl.UpdateOne(sc, flipFilter, flipUpdate)
		if err != nil {
			return fmt.Errorf("mark booking rated failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrAlreadyRated
		}

		if _, err := repo.ratingColl.InsertOne(sc, rating); err != nil {
			return fmt.Errorf("insert rating failed: %w", err)
		}

		distField := fmt.Sprintf("rating.distribution.%d", rating.Value)
		incUpdate := bson.M{"$inc": bson.M{
			"rating.count": 1,
			"rating.sum":   rating.Value,
			distField:      1,
		}}
		if _, err := repo.shopColl.UpdateOne(sc, bson.M{"id": rating.ShopID}, incUpdate); err != nil {
			return fmt.Errorf("merge shop aggregate failed: %w", err)
		}

		avgPipeline := mongo.Pipeline{
			{{Key: "$set", Value: bson.M{
				"rating.average": bson.M{"$cond": bson.A{
					bson.M{"$gt": bson.A{"$rating.count", 0}},
					bson.M{"$divide": bson.A{"$rating.sum", "$rating.count"}},
					0,
				}},
			}}},
		}
		if _, err := repo.shopColl.UpdateOne(sc, bson.M{"id": rating.ShopID}, avgPipeline); err != nil {
			return fmt.Errorf("recompute shop average failed: %w", err)
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		if errors.Is(err, ErrAlreadyRated) {
			return ErrAlreadyRated
		}
		return fmt.Errorf("rating transaction failed: %w", err)
	}

	return nil
}

// GetRatingByID retrieves a rating by its ID.
func (repo *MongoRatingRepo) GetRatingByID(ctx context.Context, ratingID string) (*models.Rating, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var rating models.Rating
	if err := repo.ratingColl.FindOne(ctxWithTimeout, bson.M{"id": ratingID}).Decode(&rating); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("error fetching rating %s: %w", ratingID, err)
	}
	return &rating, nil
}

// ListShopRatings returns all ratings for a shop, newest first.
func (repo *MongoRatingRepo) ListShopRatings(ctx context.Context, shopID string) ([]models.Rating, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := repo.ratingColl.Find(ctxWithTimeout, bson.M{"shop_id": shopID})
	if err != nil {
		return nil, fmt.Errorf("error listing ratings for shop %s: %w", shopID, err)
	}
	defer cursor.Close(ctxWithTimeout)

	var ratings []models.Rating
	if err := cursor.All(ctxWithTimeout, &ratings); err != nil {
		return nil, fmt.Errorf("error decoding ratings for shop %s: %w", shopID, err)
	}
	return ratings, nil
}

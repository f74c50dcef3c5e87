package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"trimly/database"
	"trimly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func mongoFindSortByDateTime() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}})
}

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	bookingColl     *mongo.Collection
	reservationColl *mongo.Collection
}

// NewMongoBookingRepo constructs a new instance of MongoBookingRepo.
func NewMongoBookingRepo() BookingRepository {
	db := database.DB()
	return &MongoBookingRepo{
		bookingColl:     db.Collection("bookings"),
		reservationColl: db.Collection("reservations"),
	}
}

// GetBookingByID retrieves a booking by its ID.
func (repo *MongoBookingRepo) GetBookingByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := repo.bookingColl.FindOne(ctxWithTimeout, bson.M{"id": bookingID}).Decode(&booking)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("error fetching booking %s: %w", bookingID, err)
	}
	return &booking, nil
}

// ListShopBookings retrieves all bookings for a shop, optionally filtered to
// a single date. Results are ordered by date then time.
func (repo *MongoBookingRepo) ListShopBookings(ctx context.Context, shopID, date string) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"shop_id": shopID}
	if date != "" {
		filter["date"] = date
	}
	opts := mongoFindSortByDateTime()
	cursor, err := repo.bookingColl.Find(ctxWithTimeout, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings for shop %s: %w", shopID, err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.Booking
	if err := cursor.All(ctxWithTimeout, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings for shop %s: %w", shopID, err)
	}
	return bookings, nil
}

// CountActiveBookingsAt counts non-cancelled bookings holding the given slot.
// This is the authoritative side of the conflict check; the reservation index
// is only the fast path.
func (repo *MongoBookingRepo) CountActiveBookingsAt(ctx context.Context, shopID, date, timeOfDay, excludeBookingID string) (int64, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"shop_id": shopID,
		"date":    date,
		"time":    timeOfDay,
		"status":  bson.M{"$ne": models.BookingStatusCancelled},
	}
	if excludeBookingID != "" {
		filter["id"] = bson.M{"$ne": excludeBookingID}
	}
	count, err := repo.bookingColl.CountDocuments(ctxWithTimeout, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting active bookings at %s %s %s: %w", shopID, date, timeOfDay, err)
	}
	return count, nil
}

// ConfirmBooking transitions a pending booking to confirmed. The status
// filter makes the update a guarded compare-and-swap: a booking that is not
// pending matches nothing and ErrNoTransition is returned.
func (repo *MongoBookingRepo) ConfirmBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": bookingID, "status": models.BookingStatusPending}
	update := bson.M{"$set": bson.M{
		"status":        models.BookingStatusConfirmed,
		"last_modified": time.Now(),
	}}
	res, err := repo.bookingColl.UpdateOne(ctxWithTimeout, filter, update)
	if err != nil {
		return nil, fmt.Errorf("error confirming booking %s: %w", bookingID, err)
	}
	if res.MatchedCount == 0 {
		if _, getErr := repo.GetBookingByID(ctx, bookingID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrNoTransition
	}
	return repo.GetBookingByID(ctx, bookingID)
}

// CancelBooking transitions a pending or confirmed booking to cancelled,
// recording the reason and the acting party.
func (repo *MongoBookingRepo) CancelBooking(ctx context.Context, bookingID, reason, actor string) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id": bookingID,
		"status": bson.M{"$in": bson.A{
			models.BookingStatusPending,
			models.BookingStatusConfirmed,
		}},
	}
	update := bson.M{"$set": bson.M{
		"status":              models.BookingStatusCancelled,
		"cancellation_reason": reason,
		"cancelled_by":        actor,
		"last_modified":       time.Now(),
	}}
	res, err := repo.bookingColl.UpdateOne(ctxWithTimeout, filter, update)
	if err != nil {
		return nil, fmt.Errorf("error cancelling booking %s: %w", bookingID, err)
	}
	if res.MatchedCount == 0 {
		if _, getErr := repo.GetBookingByID(ctx, bookingID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrNoTransition
	}
	return repo.GetBookingByID(ctx, bookingID)
}

// FlagForReconciliation marks a booking whose reservation index could not be
// brought back in sync after retries. Surfaced to operators, never cleared
// automatically.
func (repo *MongoBookingRepo) FlagForReconciliation(ctx context.Context, bookingID string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": bookingID}
	update := bson.M{"$set": bson.M{"needs_reconciliation": true}}
	if _, err := repo.bookingColl.UpdateOne(ctxWithTimeout, filter, update); err != nil {
		return fmt.Errorf("error flagging booking %s for reconciliation: %w", bookingID, err)
	}
	return nil
}

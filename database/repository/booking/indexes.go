package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"trimly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the booking engine relies on. The
// unique partial index over booked reservations is the slot uniqueness
// guard: it is what turns "claim a slot" into an insert that at most one
// concurrent caller can win.
func (repo *MongoBookingRepo) EnsureIndexes(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slotKey := mongo.IndexModel{
		Keys: bson.D{
			{Key: "shop_id", Value: 1},
			{Key: "date", Value: 1},
			{Key: "time", Value: 1},
		},
		Options: options.Index().
			SetName("uniq_booked_slot").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": models.ReservationStatusBooked}),
	}
	reservationByBooking := mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_id", Value: 1}},
		Options: options.Index().SetName("reservation_booking_id"),
	}
	if _, err := repo.reservationColl.Indexes().CreateMany(ctxWithTimeout, []mongo.IndexModel{slotKey, reservationByBooking}); err != nil {
		return fmt.Errorf("error creating reservation indexes: %w", err)
	}

	bookingID := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetName("booking_id").SetUnique(true),
	}
	bookingSlot := mongo.IndexModel{
		Keys: bson.D{
			{Key: "shop_id", Value: 1},
			{Key: "date", Value: 1},
			{Key: "time", Value: 1},
			{Key: "status", Value: 1},
		},
		Options: options.Index().SetName("booking_slot_lookup"),
	}
	if _, err := repo.bookingColl.Indexes().CreateMany(ctxWithTimeout, []mongo.IndexModel{bookingID, bookingSlot}); err != nil {
		return fmt.Errorf("error creating booking indexes: %w", err)
	}
	return nil
}

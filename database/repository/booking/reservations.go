package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"trimly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ClaimSlot inserts a booked reservation for the slot's natural key.
// The unique partial index rejects the insert when another booked
// reservation already holds (shop_id, date, time); that duplicate-key
// failure is mapped to ErrSlotTaken so only one of two racing claims wins.
func (repo *MongoBookingRepo) ClaimSlot(ctx context.Context, res *models.SlotReservation) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.reservationColl.InsertOne(ctxWithTimeout, res); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("error claiming slot %s %s %s: %w", res.ShopID, res.Date, res.Time, err)
	}
	return nil
}

// RetireReservation flips a booking's booked reservation for the given slot
// to cancelled. The record itself is kept as an audit trail.
func (repo *MongoBookingRepo) RetireReservation(ctx context.Context, bookingID, date, timeOfDay string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"booking_id": bookingID,
		"date":       date,
		"time":       timeOfDay,
		"status":     models.ReservationStatusBooked,
	}
	update := bson.M{"$set": bson.M{
		"status":     models.ReservationStatusCancelled,
		"updated_at": time.Now(),
	}}
	if _, err := repo.reservationColl.UpdateOne(ctxWithTimeout, filter, update); err != nil {
		return fmt.Errorf("error retiring reservation for booking %s: %w", bookingID, err)
	}
	return nil
}

// GetActiveReservation fetches the booked reservation holding a slot, if any.
func (repo *MongoBookingRepo) GetActiveReservation(ctx context.Context, shopID, date, timeOfDay string) (*models.SlotReservation, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"shop_id": shopID,
		"date":    date,
		"time":    timeOfDay,
		"status":  models.ReservationStatusBooked,
	}
	var res models.SlotReservation
	if err := repo.reservationColl.FindOne(ctxWithTimeout, filter).Decode(&res); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching reservation at %s %s %s: %w", shopID, date, timeOfDay, err)
	}
	return &res, nil
}

// ListActiveReservations returns all booked reservations for a shop day.
func (repo *MongoBookingRepo) ListActiveReservations(ctx context.Context, shopID, date string) ([]models.SlotReservation, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"shop_id": shopID,
		"date":    date,
		"status":  models.ReservationStatusBooked,
	}
	cursor, err := repo.reservationColl.Find(ctxWithTimeout, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing reservations for %s on %s: %w", shopID, date, err)
	}
	defer cursor.Close(ctxWithTimeout)

	var reservations []models.SlotReservation
	if err := cursor.All(ctxWithTimeout, &reservations); err != nil {
		return nil, fmt.Errorf("error decoding reservations for %s on %s: %w", shopID, date, err)
	}
	return reservations, nil
}

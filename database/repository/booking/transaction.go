package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trimly/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateBookingTransactionally inserts a booking and claims its slot
// reservation in one transaction. If the slot is already held the unique
// partial index aborts the claim, the transaction rolls back and
// ErrSlotTaken is returned; the booking insert never becomes visible.
func (repo *MongoBookingRepo) CreateBookingTransactionally(ctx context.Context, booking *models.Booking) error {
	client := repo.bookingColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		if _, err := repo.bookingColl.InsertOne(sc, booking); err != nil {
			return fmt.Errorf("insert booking failed: %w", err)
		}

		res := &models.SlotReservation{
			ID:        uuid.New().String(),
			ShopID:    booking.ShopID,
			Date:      booking.Date,
			Time:      booking.Time,
			BookingID: booking.ID,
			Status:    models.ReservationStatusBooked,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if _, err := repo.reservationColl.InsertOne(sc, res); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrSlotTaken
			}
			return fmt.Errorf("claim reservation failed: %w", err)
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
		if errors.Is(err, ErrSlotTaken) {
			return ErrSlotTaken
		}
		return fmt.Errorf("create booking transaction failed: %w", err)
	}

	return nil
}

// RescheduleTransactionally moves a confirmed booking to a new slot. The
// new reservation is claimed before the old one is retired (claim-then-free):
// the worst transient state is the one booking briefly holding both slots,
// never a window where it holds none.
func (repo *MongoBookingRepo) RescheduleTransactionally(ctx context.Context, bookingID, newDate, newTime string) (*models.Booking, error) {
	booking, err := repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, ErrNoTransition
	}

	client := repo.bookingColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	oldDate, oldTime := booking.Date, booking.Time

	txnFn := func(sc mongo.SessionContext) error {
		newRes := &models.SlotReservation{
			ID:        uuid.New().String(),
			ShopID:    booking.ShopID,
			Date:      newDate,
			Time:      newTime,
			BookingID: booking.ID,
			Status:    models.ReservationStatusBooked,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if _, err := repo.reservationColl.InsertOne(sc, newRes); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrSlotTaken
			}
			return fmt.Errorf("claim new reservation failed: %w", err)
		}

		filter := bson.M{"id": bookingID, "status": models.BookingStatusConfirmed}
		update := bson.M{"$set": bson.M{
			"date":          newDate,
			"time":          newTime,
			"previous_date": oldDate,
			"previous_time": oldTime,
			"last_modified": time.Now(),
		}}
		res, err := repo.bookingColl.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("update booking slot failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrNoTransition
		}

		retireFilter := bson.M{
			"booking_id": bookingID,
			"date":       oldDate,
			"time":       oldTime,
			"status":     models.ReservationStatusBooked,
		}
		retireUpdate := bson.M{"$set": bson.M{
			"status":     models.ReservationStatusCancelled,
			"updated_at": time.Now(),
		}}
		if _, err := repo.reservationColl.UpdateOne(sc, retireFilter, retireUpdate); err != nil {
			return fmt.Errorf("retire old reservation failed: %w", err)
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
		if errors.Is(err, ErrSlotTaken) || errors.Is(err, ErrNoTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("reschedule transaction failed: %w", err)
	}

	return repo.GetBookingByID(ctx, bookingID)
}

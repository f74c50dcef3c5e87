package bookingRepo

import (
	"context"
	"fmt"

	"trimly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReservationChange is one incremental diff delivered by a subscription.
type ReservationChange struct {
	OperationType string                 `bson:"operationType"`
	Reservation   models.SlotReservation `bson:"fullDocument"`
}

// ReservationSubscription is a cancellable handle over a standing change
// query. Diffs arrive on C in the order the store emits them; Cancel
// releases the underlying stream and closes C.
type ReservationSubscription struct {
	C      <-chan ReservationChange
	cancel context.CancelFunc
}

// Cancel releases the subscription.
func (s *ReservationSubscription) Cancel() {
	s.cancel()
}

// SubscribeReservations opens a change stream over a shop's reservations.
// An empty shopID subscribes to all shops.
func (repo *MongoBookingRepo) SubscribeReservations(ctx context.Context, shopID string) (*ReservationSubscription, error) {
	match := bson.M{"operationType": bson.M{"$in": bson.A{"insert", "update", "replace"}}}
	if shopID != "" {
		match["fullDocument.shop_id"] = shopID
	}
	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}

	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := repo.reservationColl.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, fmt.Errorf("error opening reservation change stream: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	ch := make(chan ReservationChange)
	go func() {
		defer close(ch)
		defer stream.Close(context.Background())
		for stream.Next(streamCtx) {
			var change ReservationChange
			if err := stream.Decode(&change); err != nil {
				continue
			}
			select {
			case ch <- change:
			case <-streamCtx.Done():
				return
			}
		}
	}()

	return &ReservationSubscription{C: ch, cancel: cancel}, nil
}

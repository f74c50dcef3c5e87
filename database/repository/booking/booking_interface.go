package bookingRepo

import (
	"context"
	"errors"

	"trimly/models"
)

// ErrBookingNotFound is returned when no booking matches the given ID.
var ErrBookingNotFound = errors.New("booking not found")

// ErrSlotTaken is returned when a slot claim loses to an existing booked
// reservation. The unique partial index on (shop_id, date, time) over
// status="booked" is the authoritative guard; this error is how a losing
// insert surfaces.
var ErrSlotTaken = errors.New("slot already booked")

// ErrNoTransition is returned when a guarded status update matched no
// document, meaning the booking was not in a state the transition allows.
var ErrNoTransition = errors.New("booking not in a state that allows this transition")

// BookingRepository provides access to booking documents and their
// denormalized slot reservations.
type BookingRepository interface {
	GetBookingByID(ctx context.Context, bookingID string) (*models.Booking, error)
	ListShopBookings(ctx context.Context, shopID, date string) ([]models.Booking, error)
	CountActiveBookingsAt(ctx context.Context, shopID, date, timeOfDay, excludeBookingID string) (int64, error)

	ConfirmBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID, reason, actor string) (*models.Booking, error)
	FlagForReconciliation(ctx context.Context, bookingID string) error

	ClaimSlot(ctx context.Context, res *models.SlotReservation) error
	RetireReservation(ctx context.Context, bookingID, date, timeOfDay string) error
	GetActiveReservation(ctx context.Context, shopID, date, timeOfDay string) (*models.SlotReservation, error)
	ListActiveReservations(ctx context.Context, shopID, date string) ([]models.SlotReservation, error)

	CreateBookingTransactionally(ctx context.Context, booking *models.Booking) error
	RescheduleTransactionally(ctx context.Context, bookingID, newDate, newTime string) (*models.Booking, error)

	SubscribeReservations(ctx context.Context, shopID string) (*ReservationSubscription, error)
}

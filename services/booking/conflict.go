package booking

import (
	"context"
	"errors"

	bookingRepo "trimly/database/repository/booking"
	shopRepo "trimly/database/repository/shop"
	"trimly/models"
	"trimly/utils"

	"go.uber.org/zap"
)

// CheckSlotAvailable reports whether a slot is free. The reservation index
// is the fast path; the booking collection is the authority, filtered to
// non-cancelled statuses, as defense against index drift. When the two
// disagree the booking store wins and the drift is logged for the
// reconciliation worker to find.
//
// This check is advisory: the commit itself is guarded by the unique index
// on the slot's natural key, so two callers that both read "available" here
// still cannot both claim the slot.
func (s *DefaultBookingService) CheckSlotAvailable(ctx context.Context, shopID, date, timeOfDay, excludeBookingID string) (bool, error) {
	logger := utils.GetLogger()

	res, err := s.Repo.GetActiveReservation(ctx, shopID, date, timeOfDay)
	if err != nil {
		return false, &utils.TransientError{Op: "reservation lookup", Err: err}
	}

	count, err := s.Repo.CountActiveBookingsAt(ctx, shopID, date, timeOfDay, excludeBookingID)
	if err != nil {
		return false, &utils.TransientError{Op: "booking lookup", Err: err}
	}

	indexHeld := res != nil && res.BookingID != excludeBookingID
	storeHeld := count > 0
	if indexHeld != storeHeld {
		logger.Warn("slot index out of sync with booking store",
			zap.String("shop", shopID), zap.String("date", date), zap.String("time", timeOfDay),
			zap.Bool("index_held", indexHeld), zap.Bool("store_held", storeHeld))
	}
	return !storeHeld, nil
}

// mapShopError translates repository lookup errors into the service taxonomy.
func (s *DefaultBookingService) mapShopError(shopID string, err error) error {
	if errors.Is(err, shopRepo.ErrShopNotFound) {
		return &utils.NotFoundError{Resource: "shop", ID: shopID}
	}
	return &utils.TransientError{Op: "shop lookup", Err: err}
}

func (s *DefaultBookingService) mapBookingError(bookingID string, err error) error {
	if errors.Is(err, bookingRepo.ErrBookingNotFound) {
		return &utils.NotFoundError{Resource: "booking", ID: bookingID}
	}
	return &utils.TransientError{Op: "booking lookup", Err: err}
}

// withDerivedStatus returns a copy whose status reflects elapsed wall clock.
func withDerivedStatus(b *models.Booking) *models.Booking {
	out := *b
	out.Status = b.DerivedStatus(nowFn())
	return &out
}

package booking

import (
	"context"

	"trimly/utils"

	"go.uber.org/zap"
)

// StartCacheInvalidator subscribes to reservation changes across all shops
// and drops the cached day view for every shop day whose occupancy moves.
// The request path invalidates its own writes already; this catches
// mutations that bypass it, like the reconciliation worker retiring a
// reservation. Runs until ctx is cancelled.
func (s *DefaultBookingService) StartCacheInvalidator(ctx context.Context) error {
	sub, err := s.Repo.SubscribeReservations(ctx, "")
	if err != nil {
		return err
	}
	go func() {
		defer sub.Cancel()
		for change := range sub.C {
			s.invalidateAvailability(ctx, change.Reservation.ShopID, change.Reservation.Date)
		}
		utils.GetLogger().Warn("reservation change stream closed",
			zap.String("component", "cache_invalidator"))
	}()
	return nil
}

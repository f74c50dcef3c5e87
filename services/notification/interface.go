package notification

import (
	"context"

	"trimly/models"
)

// Dispatcher fans a committed lifecycle event out to the owner inbox and the
// downstream webhook. Delivery is fire-and-forget: the returned error is a
// soft warning for the caller, never a signal to revert anything.
type Dispatcher interface {
	FireAndForget(ctx context.Context, event models.BookingEvent) error
}

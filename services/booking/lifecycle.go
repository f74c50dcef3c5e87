package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "trimly/database/repository/booking"
	"trimly/models"
	"trimly/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// nowFn is swapped out by tests that pin the clock.
var nowFn = time.Now

const reminderLeadTime = time.Hour

// Book creates a pending appointment and claims its slot. The advisory
// availability check runs first for a fast, friendly rejection; the
// transactional insert with the unique slot index is what actually decides
// a race.
func (s *DefaultBookingService) Book(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	if req.ShopID == "" || req.CustomerID == "" {
		return nil, utils.NewValidationError("shop_id and customer_id are required")
	}
	if err := validateSlotFormat(req.Date, req.Time); err != nil {
		return nil, err
	}

	shop, err := s.ShopRepo.GetShopByID(ctx, req.ShopID)
	if err != nil {
		return nil, s.mapShopError(req.ShopID, err)
	}
	if err := s.validateSlotOffered(shop, req.Date, req.Time); err != nil {
		return nil, err
	}

	free, err := s.CheckSlotAvailable(ctx, req.ShopID, req.Date, req.Time, "")
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, &utils.ConflictError{ShopID: req.ShopID, Date: req.Date, Time: req.Time}
	}

	now := nowFn()
	booking := &models.Booking{
		ID:           uuid.New().String(),
		ShopID:       req.ShopID,
		CustomerID:   req.CustomerID,
		Status:       models.BookingStatusPending,
		Date:         req.Date,
		Time:         req.Time,
		Services:     req.Services,
		EmployeeID:   req.EmployeeID,
		CreatedAt:    now,
		LastModified: now,
	}
	if err := s.Repo.CreateBookingTransactionally(ctx, booking); err != nil {
		if errors.Is(err, bookingRepo.ErrSlotTaken) {
			return nil, &utils.ConflictError{ShopID: req.ShopID, Date: req.Date, Time: req.Time}
		}
		return nil, &utils.TransientError{Op: "create booking", Err: err}
	}
	s.invalidateAvailability(ctx, req.ShopID, req.Date)

	notifyErr := s.notify(ctx, booking, models.NotifBookingCreated,
		"New booking request",
		fmt.Sprintf("New appointment requested for %s at %s", booking.Date, booking.Time),
		map[string]any{"total_price": booking.TotalPrice()})

	return withDerivedStatus(booking), wrapPartial("booking created", notifyErr)
}

// Confirm transitions a pending booking to confirmed and notifies the
// customer. A reminder task is scheduled an hour before the appointment.
func (s *DefaultBookingService) Confirm(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.Repo.ConfirmBooking(ctx, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, bookingRepo.ErrBookingNotFound):
			return nil, &utils.NotFoundError{Resource: "booking", ID: bookingID}
		case errors.Is(err, bookingRepo.ErrNoTransition):
			return nil, utils.NewValidationError("booking %s is not pending and cannot be confirmed", bookingID)
		default:
			return nil, &utils.TransientError{Op: "confirm booking", Err: err}
		}
	}

	if s.Scheduler != nil {
		if at := booking.AppointmentTime(); !at.IsZero() {
			if err := s.Scheduler.EnqueueReminder(ctx, booking.ID, at.Add(-reminderLeadTime)); err != nil {
				utils.GetLogger().Warn("failed to schedule reminder", zap.String("booking", booking.ID), zap.Error(err))
			}
		}
	}

	notifyErr := s.notify(ctx, booking, models.NotifBookingConfirmed,
		"Booking confirmed",
		fmt.Sprintf("Appointment on %s at %s is confirmed", booking.Date, booking.Time),
		map[string]any{"total_price": booking.TotalPrice()})

	return withDerivedStatus(booking), wrapPartial("booking confirmed", notifyErr)
}

// Cancel transitions a pending or confirmed booking to cancelled, retires
// its slot reservation and notifies the other party. Cancelling an already
// cancelled booking is a no-op: no error, no second notification.
func (s *DefaultBookingService) Cancel(ctx context.Context, bookingID, reason, actor string) (*models.Booking, error) {
	if reason == "" {
		return nil, utils.NewValidationError("cancellation reason is required")
	}

	booking, err := s.Repo.CancelBooking(ctx, bookingID, reason, actor)
	if err != nil {
		switch {
		case errors.Is(err, bookingRepo.ErrBookingNotFound):
			return nil, &utils.NotFoundError{Resource: "booking", ID: bookingID}
		case errors.Is(err, bookingRepo.ErrNoTransition):
			existing, getErr := s.Repo.GetBookingByID(ctx, bookingID)
			if getErr != nil {
				return nil, s.mapBookingError(bookingID, getErr)
			}
			if existing.Status == models.BookingStatusCancelled {
				return withDerivedStatus(existing), nil
			}
			return nil, utils.NewValidationError("booking %s cannot be cancelled from its current state", bookingID)
		default:
			return nil, &utils.TransientError{Op: "cancel booking", Err: err}
		}
	}

	// The reservation retire is part of the consistency invariant. On
	// failure it goes to the background queue, which retries with backoff
	// and flags the booking for manual reconciliation if it gives up.
	if err := s.Repo.RetireReservation(ctx, bookingID, booking.Date, booking.Time); err != nil {
		utils.GetLogger().Error("failed to retire reservation inline, enqueueing repair",
			zap.String("booking", bookingID), zap.Error(err))
		s.enqueueReservationRepair(ctx, bookingID, booking.Date, booking.Time)
	}
	s.invalidateAvailability(ctx, booking.ShopID, booking.Date)

	notifyErr := s.notify(ctx, booking, models.NotifBookingCancelled,
		"Booking cancelled",
		fmt.Sprintf("Appointment on %s at %s was cancelled by the %s", booking.Date, booking.Time, actor),
		map[string]any{"reason": reason, "cancelled_by": actor})

	return withDerivedStatus(booking), wrapPartial("booking cancelled", notifyErr)
}

// Reschedule moves a confirmed, still-future booking to a new slot. The new
// reservation is claimed before the old one is retired, inside one
// transaction, so the booking never transiently holds zero slots.
func (s *DefaultBookingService) Reschedule(ctx context.Context, bookingID, newDate, newTime string) (*models.Booking, error) {
	if err := validateSlotFormat(newDate, newTime); err != nil {
		return nil, err
	}

	current, err := s.Repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, s.mapBookingError(bookingID, err)
	}
	if current.Status != models.BookingStatusConfirmed {
		return nil, utils.NewValidationError("only confirmed bookings can be rescheduled")
	}
	if at := current.AppointmentTime(); at.IsZero() || !at.After(nowFn()) {
		return nil, utils.NewValidationError("past appointments cannot be rescheduled")
	}
	// The booking's current slot is already held by its own reservation; a
	// fresh claim there would collide with it. Treat the move as a no-op.
	if newDate == current.Date && newTime == current.Time {
		return withDerivedStatus(current), nil
	}

	shop, err := s.ShopRepo.GetShopByID(ctx, current.ShopID)
	if err != nil {
		return nil, s.mapShopError(current.ShopID, err)
	}
	if err := s.validateSlotOffered(shop, newDate, newTime); err != nil {
		return nil, err
	}

	free, err := s.CheckSlotAvailable(ctx, current.ShopID, newDate, newTime, bookingID)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, &utils.ConflictError{ShopID: current.ShopID, Date: newDate, Time: newTime}
	}

	booking, err := s.Repo.RescheduleTransactionally(ctx, bookingID, newDate, newTime)
	if err != nil {
		switch {
		case errors.Is(err, bookingRepo.ErrSlotTaken):
			return nil, &utils.ConflictError{ShopID: current.ShopID, Date: newDate, Time: newTime}
		case errors.Is(err, bookingRepo.ErrNoTransition):
			return nil, utils.NewValidationError("only confirmed bookings can be rescheduled")
		case errors.Is(err, bookingRepo.ErrBookingNotFound):
			return nil, &utils.NotFoundError{Resource: "booking", ID: bookingID}
		default:
			return nil, &utils.TransientError{Op: "reschedule booking", Err: err}
		}
	}
	s.invalidateAvailability(ctx, booking.ShopID, current.Date, newDate)

	notifyErr := s.notify(ctx, booking, models.NotifBookingRescheduled,
		"Booking rescheduled",
		fmt.Sprintf("Appointment moved from %s %s to %s %s", current.Date, current.Time, newDate, newTime),
		map[string]any{
			"new_date":      newDate,
			"new_time":      newTime,
			"previous_date": current.Date,
			"previous_time": current.Time,
			"total_price":   booking.TotalPrice(),
		})

	return withDerivedStatus(booking), wrapPartial("booking rescheduled", notifyErr)
}

// GetBooking returns one booking with its derived status.
func (s *DefaultBookingService) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.Repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, s.mapBookingError(bookingID, err)
	}
	return withDerivedStatus(booking), nil
}

// ListShopBookings returns a shop's bookings with derived statuses.
func (s *DefaultBookingService) ListShopBookings(ctx context.Context, shopID, date string) ([]models.Booking, error) {
	bookings, err := s.Repo.ListShopBookings(ctx, shopID, date)
	if err != nil {
		return nil, &utils.TransientError{Op: "list bookings", Err: err}
	}
	out := make([]models.Booking, 0, len(bookings))
	for i := range bookings {
		out = append(out, *withDerivedStatus(&bookings[i]))
	}
	return out, nil
}

// validateSlotOffered checks the requested slot against the shop's derivable
// calendar for that date.
func (s *DefaultBookingService) validateSlotOffered(shop *models.Shop, date, timeOfDay string) error {
	granularity := shop.GranularityMinutes
	if granularity <= 0 {
		granularity = s.GranularityMinutes
	}
	slots, err := GenerateSlots(shop.Availability, date, granularity)
	if err != nil {
		return err
	}
	for _, t := range slots {
		if t == timeOfDay {
			return nil
		}
	}
	return utils.NewValidationError("shop %s does not offer a slot at %s on %s", shop.ID, timeOfDay, date)
}

func validateSlotFormat(date, timeOfDay string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return utils.NewValidationError("invalid date %q, want YYYY-MM-DD", date)
	}
	if _, err := time.Parse("15:04", timeOfDay); err != nil {
		return utils.NewValidationError("invalid time %q, want HH:MM", timeOfDay)
	}
	return nil
}

// notify fires the dispatcher after the primary commit. Failures are logged
// and surfaced as a PartialFailure warning, never rolled back.
func (s *DefaultBookingService) notify(ctx context.Context, b *models.Booking, eventType, title, message string, data map[string]any) error {
	if s.Notifier == nil {
		return nil
	}
	event := models.BookingEvent{
		Type:       eventType,
		ShopID:     b.ShopID,
		BookingID:  b.ID,
		CustomerID: b.CustomerID,
		Title:      title,
		Message:    message,
		Data:       data,
	}
	if err := s.Notifier.FireAndForget(ctx, event); err != nil {
		utils.GetLogger().Warn("notification dispatch failed",
			zap.String("booking", b.ID), zap.String("type", eventType), zap.Error(err))
		return err
	}
	return nil
}

// enqueueReservationRepair hands the failed index update to the background
// queue; if even enqueueing fails, the booking is flagged immediately.
func (s *DefaultBookingService) enqueueReservationRepair(ctx context.Context, bookingID, date, timeOfDay string) {
	if s.Scheduler != nil {
		if err := s.Scheduler.EnqueueRetireReservation(ctx, bookingID, date, timeOfDay); err == nil {
			return
		} else {
			utils.GetLogger().Error("failed to enqueue reservation repair", zap.String("booking", bookingID), zap.Error(err))
		}
	}
	if err := s.Repo.FlagForReconciliation(ctx, bookingID); err != nil {
		utils.GetLogger().Error("failed to flag booking for reconciliation", zap.String("booking", bookingID), zap.Error(err))
	}
}

func wrapPartial(op string, notifyErr error) error {
	if notifyErr == nil {
		return nil
	}
	return &utils.PartialFailure{Warning: op + " but notification delivery failed", Err: notifyErr}
}

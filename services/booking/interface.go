package booking

import (
	"context"
	"time"

	bookingRepo "trimly/database/repository/booking"
	shopRepo "trimly/database/repository/shop"
	"trimly/models"
	"trimly/services/notification"

	"github.com/go-redis/redis/v8"
)

// BookingRequest is the input for creating a new appointment.
type BookingRequest struct {
	ShopID     string                 `json:"shop_id" binding:"required"`
	CustomerID string                 `json:"customer_id" binding:"required"`
	Date       string                 `json:"date" binding:"required"` // "2006-01-02"
	Time       string                 `json:"time" binding:"required"` // "15:04"
	Services   []models.BookedService `json:"services"`
	EmployeeID string                 `json:"employee_id"`
}

// BookingService drives the appointment lifecycle and slot conflict checks.
type BookingService interface {
	CheckAvailability(ctx context.Context, shopID, date string) (*models.DayAvailability, error)
	CheckSlotAvailable(ctx context.Context, shopID, date, timeOfDay, excludeBookingID string) (bool, error)

	Book(ctx context.Context, req BookingRequest) (*models.Booking, error)
	Confirm(ctx context.Context, bookingID string) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID, reason, actor string) (*models.Booking, error)
	Reschedule(ctx context.Context, bookingID, newDate, newTime string) (*models.Booking, error)

	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	ListShopBookings(ctx context.Context, shopID, date string) ([]models.Booking, error)
}

// TaskScheduler enqueues background work: reservation-index repair with
// backoff, and appointment reminders.
type TaskScheduler interface {
	EnqueueRetireReservation(ctx context.Context, bookingID, date, timeOfDay string) error
	EnqueueReminder(ctx context.Context, bookingID string, at time.Time) error
}

// DefaultBookingService is the production implementation.
type DefaultBookingService struct {
	Repo               bookingRepo.BookingRepository
	ShopRepo           shopRepo.ShopRepository
	Notifier           notification.Dispatcher
	Scheduler          TaskScheduler
	Cache              *redis.Client // nil disables day-view caching
	GranularityMinutes int           // default slot step when the shop sets none
}

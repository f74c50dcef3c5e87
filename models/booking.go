package models

import "time"

// Booking statuses stored in the database. "completed" is never stored;
// it is derived at read time from the appointment wall clock.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed" // derived only
)

// BookedService is one line item of an appointment.
type BookedService struct {
	Name            string  `bson:"name" json:"name"`
	Price           float64 `bson:"price" json:"price"`
	DurationMinutes int     `bson:"duration_minutes,omitempty" json:"duration_minutes,omitempty"`
}

// Booking represents the authoritative appointment record.
type Booking struct {
	ID                  string          `bson:"id" json:"id"`                   // Unique booking identifier (UUID)
	ShopID              string          `bson:"shop_id" json:"shop_id"`         // Shop that was booked
	CustomerID          string          `bson:"customer_id" json:"customer_id"` // Customer who made the booking
	Status              string          `bson:"status" json:"status"`           // "pending", "confirmed" or "cancelled"
	Date                string          `bson:"date" json:"date"`               // Appointment date in "2006-01-02" format
	Time                string          `bson:"time" json:"time"`               // Appointment time-of-day in "15:04" format
	Services            []BookedService `bson:"services" json:"services"`       // Selected service line items
	EmployeeID          string          `bson:"employee_id,omitempty" json:"employee_id,omitempty"`
	PreviousDate        string          `bson:"previous_date,omitempty" json:"previous_date,omitempty"` // Slot before the last reschedule
	PreviousTime        string          `bson:"previous_time,omitempty" json:"previous_time,omitempty"`
	CancellationReason  string          `bson:"cancellation_reason,omitempty" json:"cancellation_reason,omitempty"`
	CancelledBy         string          `bson:"cancelled_by,omitempty" json:"cancelled_by,omitempty"` // "customer" or "owner"
	IsRated             bool            `bson:"is_rated" json:"is_rated"`
	RatingID            string          `bson:"rating_id,omitempty" json:"rating_id,omitempty"`
	NeedsReconciliation bool            `bson:"needs_reconciliation,omitempty" json:"needs_reconciliation,omitempty"` // reservation index diverged and automatic repair gave up
	CreatedAt           time.Time       `bson:"created_at" json:"created_at"`
	LastModified        time.Time       `bson:"last_modified" json:"last_modified"`
}

// TotalPrice sums the booked service line items.
func (b *Booking) TotalPrice() float64 {
	var total float64
	for _, s := range b.Services {
		total += s.Price
	}
	return total
}

// AppointmentTime parses the booking's date and time-of-day into a single
// local timestamp. Returns the zero time if either field is malformed.
func (b *Booking) AppointmentTime() time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.Time, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DerivedStatus returns the effective status at the given instant.
// A non-cancelled booking whose appointment time has passed reads as
// "completed" without a stored transition.
func (b *Booking) DerivedStatus(now time.Time) string {
	if b.Status == BookingStatusCancelled {
		return BookingStatusCancelled
	}
	if at := b.AppointmentTime(); !at.IsZero() && now.After(at) {
		return BookingStatusCompleted
	}
	return b.Status
}

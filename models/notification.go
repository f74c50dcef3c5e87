package models

import "time"

// Notification event types.
const (
	NotifBookingCreated     = "booking_created"
	NotifBookingConfirmed   = "booking_confirmed"
	NotifBookingCancelled   = "booking_cancelled"
	NotifBookingRescheduled = "booking_rescheduled"
	NotifNewRating          = "new_rating"
	NotifReminder           = "appointment_reminder"
)

// Notification is a fire-and-forget inbox record for a shop owner.
type Notification struct {
	ID        string         `bson:"id" json:"id"`
	ShopID    string         `bson:"shop_id" json:"shop_id"`
	BookingID string         `bson:"booking_id,omitempty" json:"booking_id,omitempty"`
	Type      string         `bson:"type" json:"type"`
	Title     string         `bson:"title" json:"title"`
	Message   string         `bson:"message,omitempty" json:"message,omitempty"`
	Data      map[string]any `bson:"data,omitempty" json:"data,omitempty"`
	Read      bool           `bson:"read" json:"read"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
}

// BookingEvent is the payload handed to the notification dispatcher after a
// lifecycle transition has committed.
type BookingEvent struct {
	Type       string         `json:"type"`
	ShopID     string         `json:"shop_id"`
	BookingID  string         `json:"booking_id"`
	CustomerID string         `json:"customer_id"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	Data       map[string]any `json:"data,omitempty"`
}

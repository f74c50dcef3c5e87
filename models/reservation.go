package models

import "time"

// Reservation statuses. Reservations are never deleted; cancellation flips
// the status so the slot history stays auditable.
const (
	ReservationStatusBooked    = "booked"
	ReservationStatusCancelled = "cancelled"
)

// SlotReservation is the denormalized occupancy record for one slot.
// The natural key (shop_id, date, time) carries a unique partial index over
// status="booked", so claiming a slot is an insert that at most one caller
// can win.
type SlotReservation struct {
	ID        string    `bson:"id" json:"id"`
	ShopID    string    `bson:"shop_id" json:"shop_id"`
	Date      string    `bson:"date" json:"date"` // "2006-01-02"
	Time      string    `bson:"time" json:"time"` // "15:04"
	BookingID string    `bson:"booking_id" json:"booking_id"`
	Status    string    `bson:"status" json:"status"` // "booked" or "cancelled"
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// SlotView is one entry of a day-availability response.
type SlotView struct {
	Time   string `json:"time"` // "15:04"
	Booked bool   `json:"booked"`
}

// DayAvailability is the consumer-facing availability view for one shop day.
type DayAvailability struct {
	ShopID string     `json:"shop_id"`
	Date   string     `json:"date"`
	Slots  []SlotView `json:"slots"`
}

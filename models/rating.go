package models

import "time"

// Rating is a single customer's rating of a completed appointment.
// Immutable once written.
type Rating struct {
	ID         string    `bson:"id" json:"id"`
	BookingID  string    `bson:"booking_id" json:"booking_id"`
	ShopID     string    `bson:"shop_id" json:"shop_id"`
	CustomerID string    `bson:"customer_id" json:"customer_id"`
	Value      int       `bson:"value" json:"value"` // 1..5
	Review     string    `bson:"review,omitempty" json:"review,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

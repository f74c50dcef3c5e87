package models

// DayWindow is a single day's open/close wall-clock window in "15:04" format.
type DayWindow struct {
	Open  string `bson:"open" json:"open"`   // e.g. "09:00"
	Close string `bson:"close" json:"close"` // e.g. "17:00"
}

// WeeklyAvailability maps a lowercase weekday name ("monday" .. "sunday")
// to its open window. A missing weekday means the shop is closed that day.
type WeeklyAvailability map[string]DayWindow

// RatingAggregate holds the denormalized rating statistics for a shop.
// Count, Sum and Distribution only move through atomic $inc merges;
// Average is recomputed from Sum/Count inside the same transaction.
type RatingAggregate struct {
	Count        int64          `bson:"count" json:"count"`
	Sum          int64          `bson:"sum" json:"sum"`
	Average      float64        `bson:"average" json:"average"`
	Distribution map[string]int `bson:"distribution,omitempty" json:"distribution,omitempty"` // rating value ("1".."5") -> count
}

// Shop represents a bookable multi-tenant shop.
type Shop struct {
	ID                 string             `bson:"id" json:"id"`
	OwnerID            string             `bson:"owner_id" json:"owner_id"`
	Name               string             `bson:"name" json:"name"`
	Availability       WeeklyAvailability `bson:"availability" json:"availability"`
	GranularityMinutes int                `bson:"granularity_minutes,omitempty" json:"granularity_minutes,omitempty"` // slot step; 0 falls back to the configured default
	Rating             RatingAggregate    `bson:"rating" json:"rating"`
	WebhookURL         string             `bson:"webhook_url,omitempty" json:"webhook_url,omitempty"` // per-shop override for the downstream endpoint
}

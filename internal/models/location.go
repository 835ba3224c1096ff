package models

import "time"

// LiveLocation is one position sample shared while an alert is active.
type LiveLocation struct {
	ID         string    `bson:"_id" json:"id"`
	AlertID    string    `bson:"alert_id" json:"alertId"`
	SenderID   string    `bson:"sender_id" json:"senderId"`
	SenderRole Role      `bson:"sender_role" json:"senderRole"`
	Latitude   float64   `bson:"latitude" json:"latitude"`
	Longitude  float64   `bson:"longitude" json:"longitude"`
	RecordedAt time.Time `bson:"recorded_at" json:"recordedAt"`
}

package models

import "time"

type Report struct {
	ID          string    `bson:"_id" json:"id"`
	ReporterID  *string   `bson:"reporter_id,omitempty" json:"reporterId,omitempty"`
	Description string    `bson:"description" json:"description"`
	Latitude    float64   `bson:"latitude" json:"latitude"`
	Longitude   float64   `bson:"longitude" json:"longitude"`
	RiskLevel   string    `bson:"risk_level" json:"riskLevel"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
}

// HeatPoint is one weighted coordinate of the heatmap.
type HeatPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Weight    int     `json:"weight"`
}

package models

import "time"

type Volunteer struct {
	ID                string     `bson:"_id" json:"id"`
	Name              string     `bson:"name" json:"name"`
	Email             string     `bson:"email" json:"email"`
	Phone             string     `bson:"phone,omitempty" json:"phone,omitempty"`
	City              string     `bson:"city,omitempty" json:"city,omitempty"`
	PasswordHash      string     `bson:"password_hash" json:"-"`
	IsVerified        bool       `bson:"is_verified" json:"isVerified"`
	IsActive          bool       `bson:"is_active" json:"isActive"`
	Latitude          *float64   `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude         *float64   `bson:"longitude,omitempty" json:"longitude,omitempty"`
	LocationUpdatedAt *time.Time `bson:"location_updated_at,omitempty" json:"locationUpdatedAt,omitempty"`
	CreatedAt         time.Time  `bson:"created_at" json:"createdAt"`
}

// HasLocation reports whether both coordinates are known.
func (v *Volunteer) HasLocation() bool {
	return v.Latitude != nil && v.Longitude != nil
}

// Matchable reports whether the volunteer may be offered alerts.
func (v *Volunteer) Matchable() bool {
	return v.IsVerified && v.HasLocation()
}

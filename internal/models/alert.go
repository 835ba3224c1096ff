package models

import "time"

// AlertLevel is the severity of an alert, ordered green < yellow < red.
type AlertLevel string

const (
	LevelGreen  AlertLevel = "green"
	LevelYellow AlertLevel = "yellow"
	LevelRed    AlertLevel = "red"
)

// Rank returns the position of the level in the severity order, or -1.
func (l AlertLevel) Rank() int {
	switch l {
	case LevelGreen:
		return 0
	case LevelYellow:
		return 1
	case LevelRed:
		return 2
	}
	return -1
}

func (l AlertLevel) Valid() bool { return l.Rank() >= 0 }

// RequiresAssignment reports whether alerts of this level get a volunteer roster.
func (l AlertLevel) RequiresAssignment() bool {
	return l == LevelYellow || l == LevelRed
}

type AlertStatus string

const (
	AlertActive   AlertStatus = "active"
	AlertResolved AlertStatus = "resolved"
)

type Alert struct {
	ID         string      `bson:"_id" json:"id"`
	ReporterID *string     `bson:"reporter_id,omitempty" json:"reporterId,omitempty"`
	Code       string      `bson:"code" json:"code"`
	Message    string      `bson:"message,omitempty" json:"message,omitempty"`
	Level      AlertLevel  `bson:"level" json:"level"`
	Category   string      `bson:"category" json:"category"`
	PanicLevel int         `bson:"panic_level" json:"panicLevel"`
	Status     AlertStatus `bson:"status" json:"status"`
	Latitude   float64     `bson:"latitude" json:"latitude"`
	Longitude  float64     `bson:"longitude" json:"longitude"`
	CreatedAt  time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time   `bson:"updated_at" json:"updatedAt"`
	ResolvedAt *time.Time  `bson:"resolved_at,omitempty" json:"resolvedAt,omitempty"`
}

func (a *Alert) IsResolved() bool { return a.Status == AlertResolved }

// ReportedBy reports whether subjectID is the alert's reporter.
func (a *Alert) ReportedBy(subjectID string) bool {
	return a.ReporterID != nil && *a.ReporterID == subjectID
}

// AlertFilter narrows alert listings. Zero values match everything.
type AlertFilter struct {
	Status     AlertStatus
	ReporterID string
	Limit      int
}

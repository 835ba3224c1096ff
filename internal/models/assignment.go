package models

import "time"

// ResponseStatus is the single vocabulary for roster entries.
type ResponseStatus string

const (
	ResponsePending  ResponseStatus = "pending"
	ResponseAccepted ResponseStatus = "accepted"
	ResponseRejected ResponseStatus = "rejected"
)

// ResponseAction is what a volunteer asks to do with an assignment.
type ResponseAction string

const (
	ActionAccept ResponseAction = "accept"
	ActionReject ResponseAction = "reject"
)

// Status maps an action to the roster status it produces.
func (a ResponseAction) Status() (ResponseStatus, bool) {
	switch a {
	case ActionAccept:
		return ResponseAccepted, true
	case ActionReject:
		return ResponseRejected, true
	}
	return "", false
}

// ResponseAssignment is one roster entry: a volunteer asked to respond to an alert.
type ResponseAssignment struct {
	ID          string         `bson:"_id" json:"id"`
	AlertID     string         `bson:"alert_id" json:"alertId"`
	VolunteerID string         `bson:"volunteer_id" json:"volunteerId"`
	Status      ResponseStatus `bson:"status" json:"status"`
	DistanceKm  float64        `bson:"distance_km" json:"distanceKm"`
	AssignedAt  time.Time      `bson:"assigned_at" json:"assignedAt"`
	RespondedAt *time.Time     `bson:"responded_at,omitempty" json:"respondedAt,omitempty"`
}

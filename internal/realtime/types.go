package realtime

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Event is a message delivered to one recipient.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types pushed to clients.
const (
	EventNewAlert          = "NEW_ALERT"
	EventVolunteerAccepted = "VOLUNTEER_ACCEPTED"
	EventAlertResolved     = "ALERT_RESOLVED"
	EventLiveLocation      = "LIVE_LOCATION"
	EventPong              = "pong"
	EventError             = "error"
)

var (
	ErrNotConnected = errors.New("recipient not connected")
	ErrQueueFull    = errors.New("recipient send queue full")
	ErrHubStopped   = errors.New("hub stopped")
)

// Notifier delivers events to recipients keyed by id. Delivery is best-effort.
type Notifier interface {
	SendTo(recipientID string, event Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(recipientID string, event Event) error

func (f NotifierFunc) SendTo(recipientID string, event Event) error { return f(recipientID, event) }

// Client is one WebSocket connection. A recipient may hold several.
type Client struct {
	ID          string
	RecipientID string
	Conn        *websocket.Conn
	Send        chan Event

	lastPong atomic.Int64
}

func (c *Client) touch(t time.Time) { c.lastPong.Store(t.UnixNano()) }

func (c *Client) lastSeen() time.Time { return time.Unix(0, c.lastPong.Load()) }

type HubStats struct {
	Connections int `json:"connections"`
	Recipients  int `json:"recipients"`
}

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	publishQueueSize = 256
	publishTimeout   = 2 * time.Second
)

type envelope struct {
	Origin    string `json:"origin"`
	Recipient string `json:"recipient"`
	Event     Event  `json:"event"`
}

// RedisFanout shares delivery across API instances. Events are handed to the
// local notifier immediately and published for every other instance, which
// relay them into their own local notifier. Publishing happens off the
// caller's goroutine while Run is active.
type RedisFanout struct {
	client  *redis.Client
	channel string
	local   Notifier
	origin  string
	outbox  chan []byte
}

func NewRedisFanout(client *redis.Client, channel string, local Notifier) *RedisFanout {
	return &RedisFanout{
		client:  client,
		channel: channel,
		local:   local,
		origin:  uuid.NewString(),
		outbox:  make(chan []byte, publishQueueSize),
	}
}

func (f *RedisFanout) SendTo(recipientID string, event Event) error {
	localErr := f.local.SendTo(recipientID, event)

	payload, err := json.Marshal(envelope{Origin: f.origin, Recipient: recipientID, Event: event})
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	select {
	case f.outbox <- payload:
	default:
		return fmt.Errorf("publishing event: %w", ErrQueueFull)
	}

	// Not connected here is expected when the recipient lives on another instance.
	if errors.Is(localErr, ErrNotConnected) {
		return nil
	}
	return localErr
}

// Run relays events published by other instances until ctx is cancelled.
func (f *RedisFanout) Run(ctx context.Context) error {
	pubsub := f.client.Subscribe(ctx, f.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", f.channel, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.publishLoop(ctx)
	}()
	defer wg.Wait()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			f.relay(msg.Payload)
		}
	}
}

func (f *RedisFanout) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-f.outbox:
			f.publish(ctx, payload)
		}
	}
}

func (f *RedisFanout) publish(ctx context.Context, payload []byte) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil && ctx.Err() == nil {
		slog.Warn("publishing realtime event failed", "channel", f.channel, "error", err)
	}
}

func (f *RedisFanout) relay(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		slog.Warn("dropping malformed realtime envelope", "error", err)
		return
	}
	if env.Origin == f.origin {
		return
	}

	err := f.local.SendTo(env.Recipient, env.Event)
	if err != nil && !errors.Is(err, ErrNotConnected) {
		slog.Warn("relaying realtime event failed", "recipient", env.Recipient, "type", env.Event.Type, "error", err)
	}
}

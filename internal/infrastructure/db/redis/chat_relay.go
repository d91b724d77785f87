package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mietgram/campus-api/internal/core/ports"
)

const subscriptionBuffer = 64

// ChatRelay fans chat events out through Redis pub/sub, one channel per room
// (chat:<roomId>), so every API instance sees every event.
type ChatRelay struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewChatRelay(client *redis.Client, log zerolog.Logger) *ChatRelay {
	return &ChatRelay{client: client, log: log}
}

// Publish sends event to every subscriber of event.ChatID.
func (r *ChatRelay) Publish(ctx context.Context, event ports.ChatEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode chat event: %w", err)
	}
	if err := r.client.Publish(ctx, channelName(event.ChatID), payload).Err(); err != nil {
		return fmt.Errorf("publish chat event: %w", err)
	}
	return nil
}

// Subscribe joins the room. The subscription is confirmed before returning.
func (r *ChatRelay) Subscribe(ctx context.Context, chatID string) (ports.ChatSubscription, error) {
	ps := r.client.Subscribe(ctx, channelName(chatID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", chatID, err)
	}

	sub := &subscription{
		ps:     ps,
		events: make(chan ports.ChatEvent, subscriptionBuffer),
		done:   make(chan struct{}),
	}
	go sub.pump(r.log)
	return sub, nil
}

type subscription struct {
	ps     *redis.PubSub
	events chan ports.ChatEvent
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) Events() <-chan ports.ChatEvent {
	return s.events
}

func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

// pump decodes messages until the pub/sub channel closes. Malformed payloads
// are dropped.
func (s *subscription) pump(log zerolog.Logger) {
	defer close(s.events)
	for msg := range s.ps.Channel() {
		var ev ports.ChatEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed chat event")
			continue
		}
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

func channelName(chatID string) string {
	return "chat:" + chatID
}

// Package stream fans inbox updates out to the streams a user has open,
// across instances when Redis is configured.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel is the Redis channel every instance subscribes to.
const Channel = "docboard:inbox_events"

const subscriberBuffer = 16

type envelope struct {
	Email   string          `json:"email"`
	Message json.RawMessage `json:"message"`
}

type subscriber struct {
	ch chan []byte
}

type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	rdb    *redis.Client
	logger *zap.Logger
}

// NewHub returns a hub. With a nil client messages stay inside this process.
func NewHub(rdb *redis.Client, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		rdb:    rdb,
		logger: logger,
	}
}

// Subscribe registers a stream for email. The returned cancel func must be
// called when the stream ends; it closes the channel.
func (h *Hub) Subscribe(email string) (<-chan []byte, func()) {
	key := normalize(email)
	sub := &subscriber{ch: make(chan []byte, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[*subscriber]struct{})
	}
	h.subs[key][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[key], sub)
			if len(h.subs[key]) == 0 {
				delete(h.subs, key)
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Subscribers reports how many local streams are open for email.
func (h *Hub) Subscribers(email string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[normalize(email)])
}

// Publish sends message to every stream of email on every instance.
func (h *Hub) Publish(ctx context.Context, email string, message []byte) error {
	if h.rdb == nil {
		h.deliver(normalize(email), message)
		return nil
	}
	payload, err := json.Marshal(envelope{Email: normalize(email), Message: message})
	if err != nil {
		return fmt.Errorf("encode inbox event: %w", err)
	}
	if err := h.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish inbox event: %w", err)
	}
	return nil
}

// Run relays Redis messages to local streams until ctx is done. Without Redis
// it only waits for ctx.
func (h *Hub) Run(ctx context.Context) error {
	if h.rdb == nil {
		<-ctx.Done()
		return nil
	}

	pubsub := h.rdb.Subscribe(ctx, Channel)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event envelope
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Warn("discarding malformed inbox event", zap.Error(err))
				continue
			}
			h.deliver(event.Email, event.Message)
		}
	}
}

func (h *Hub) deliver(email string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[email] {
		select {
		case sub.ch <- message:
		default:
			h.logger.Warn("inbox stream buffer full, dropping event", zap.String("email", email))
		}
	}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

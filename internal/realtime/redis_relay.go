package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yukikurage/field-service-api/internal/logger"
)

const (
	DefaultRelayChannel = "field-service:realtime"

	publishTimeout = 2 * time.Second
)

// relayMessage is the wire form of an event on the Redis channel.
type relayMessage struct {
	Room string          `json:"room"`
	Type string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// RedisRelay shares rooms between server processes. Publish goes through
// a Redis channel and every process, this one included, delivers to its
// local sessions from the subscription. Membership stays local.
type RedisRelay struct {
	local   *Hub
	client  redis.UniversalClient
	channel string
}

// NewRedisRelay wraps a local hub
func NewRedisRelay(local *Hub, client redis.UniversalClient, channel string) *RedisRelay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	return &RedisRelay{
		local:   local,
		client:  client,
		channel: channel,
	}
}

func (r *RedisRelay) Join(room string, conn *Conn)  { r.local.Join(room, conn) }
func (r *RedisRelay) Leave(room string, conn *Conn) { r.local.Leave(room, conn) }
func (r *RedisRelay) Remove(conn *Conn)             { r.local.Remove(conn) }

// Publish sends the event to every process. When Redis is unreachable the
// event is still delivered to local sessions.
func (r *RedisRelay) Publish(room string, event Event) {
	payload, err := encodeRelayMessage(room, event)
	if err != nil {
		logger.GetLogger().Warn("Failed to encode realtime event", zap.String("event", event.Type), zap.Error(err))
		r.local.Publish(room, event)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		logger.GetLogger().Warn("Failed to relay realtime event", zap.String("event", event.Type), zap.Error(err))
		r.local.Publish(room, event)
	}
}

// Run delivers relayed events to the local hub until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			room, event, err := decodeRelayMessage([]byte(msg.Payload))
			if err != nil {
				logger.GetLogger().Warn("Dropping malformed realtime event", zap.Error(err))
				continue
			}
			r.local.Publish(room, event)
		}
	}
}

func encodeRelayMessage(room string, event Event) ([]byte, error) {
	msg := relayMessage{Room: room, Type: event.Type}
	if event.Data != nil {
		data, err := json.Marshal(event.Data)
		if err != nil {
			return nil, err
		}
		msg.Data = data
	}
	return json.Marshal(msg)
}

func decodeRelayMessage(payload []byte) (string, Event, error) {
	var msg relayMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return "", Event{}, err
	}
	if msg.Room == "" || msg.Type == "" {
		return "", Event{}, fmt.Errorf("relay message without room or event")
	}
	event := Event{Type: msg.Type}
	if len(msg.Data) > 0 {
		event.Data = msg.Data
	}
	return msg.Room, event, nil
}

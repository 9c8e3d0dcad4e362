package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gpexpress/backend/internal/model"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Broker fans newly persisted chat messages out to live subscribers over a
// Redis pub/sub channel per chat.
type Broker struct {
	c *redis.Client
}

func New(addr string) *Broker {
	return &Broker{
		c: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
	}
}

func chatChannel(chatID uint64) string {
	return fmt.Sprintf("chat:%d", chatID)
}

func (b *Broker) PublishMessage(ctx context.Context, msg *model.ChatMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal message")
	}
	if err := b.c.Publish(ctx, chatChannel(msg.ChatID), payload).Err(); err != nil {
		return errors.Wrap(err, "redis publish")
	}
	return nil
}

// Subscription is one session's hold on a chat channel. Events() is closed
// once the subscribing context ends or Close is called; events arriving
// after that are dropped, never delivered to a torn-down session.
type Subscription struct {
	ps  *redis.PubSub
	out chan model.ChatMessage
}

func (s *Subscription) Events() <-chan model.ChatMessage {
	return s.out
}

func (s *Subscription) Close() error {
	return s.ps.Close()
}

// Subscribe opens a dedicated pub/sub connection for chatID. Each call gets
// its own connection, so concurrent sessions on the same chat never share a
// channel. The subscription drains until ctx is done or Close is called.
func (b *Broker) Subscribe(ctx context.Context, chatID uint64) *Subscription {
	ps := b.c.Subscribe(ctx, chatChannel(chatID))
	sub := &Subscription{ps: ps, out: make(chan model.ChatMessage, 16)}

	go func() {
		defer close(sub.out)
		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-in:
				if !ok {
					return
				}
				var msg model.ChatMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					continue
				}
				select {
				case sub.out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return sub
}

func (b *Broker) Close() error {
	return b.c.Close()
}

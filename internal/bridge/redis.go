package bridge

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisSource feeds the bridge from a Redis pub/sub channel.
type RedisSource struct {
	client *redis.Client
	sub    *redis.PubSub
	out    chan []byte
}

// NewRedisSource connects to Redis at addr and subscribes to channel.
func NewRedisSource(ctx context.Context, addr, channel string) (*RedisSource, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not connect to Redis: %w", err)
	}

	sub := client.Subscribe(ctx, channel)
	s := &RedisSource{
		client: client,
		sub:    sub,
		out:    make(chan []byte, 64),
	}

	go func() {
		defer close(s.out)
		for msg := range sub.Channel() {
			s.out <- []byte(msg.Payload)
		}
	}()

	return s, nil
}

// Messages returns the feed channel.
func (s *RedisSource) Messages() <-chan []byte {
	return s.out
}

// Close unsubscribes and tears the connection down.
func (s *RedisSource) Close() error {
	s.sub.Close()
	return s.client.Close()
}

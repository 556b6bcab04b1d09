package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aegisvault/aegis-monitor/pkg/config"
	"github.com/aegisvault/aegis-monitor/pkg/services"
)

const publishTimeout = 2 * time.Second

// Publisher is the part of the redis client the bus needs
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Bus republishes view events as JSON on a Redis channel
type Bus struct {
	client  Publisher
	channel string
	events  chan services.Event
	dropped atomic.Int64
}

var _ services.EventSink = (*Bus)(nil)

// NewClient opens a redis client from cfg and checks it answers
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// NewBus creates a bus publishing on channel
func NewBus(client Publisher, channel string, bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Bus{
		client:  client,
		channel: channel,
		events:  make(chan services.Event, bufferSize),
	}
}

// Publish queues evt; a full queue drops it
func (b *Bus) Publish(evt services.Event) {
	select {
	case b.events <- evt:
	default:
		b.dropped.Add(1)
	}
}

// Dropped returns the number of events discarded because the queue was full
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Run publishes queued events until ctx is cancelled
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-b.events:
			b.send(ctx, evt)
		}
	}
}

func (b *Bus) send(ctx context.Context, evt services.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		logrus.Errorf("Failed to encode %s event: %v", evt.View, err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		logrus.Warnf("Failed to publish %s event to %s: %v", evt.View, b.channel, err)
	}
}

package events

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"github.com/Leyfach/congenialexchangeascii-sub000/config"
)

// EventSink receives book-delta, trade and order-lifecycle notifications
// for downstream broadcast. Publishing is fire-and-forget: failures are
// logged by the caller and never unwind a committed match.
type EventSink interface {
	Publish(topic string, payload interface{})
}

// LogSink writes every event through the process logger. Used as the
// default sink and in tests.
type LogSink struct{}

func (LogSink) Publish(topic string, payload interface{}) {
	message, err := json.Marshal(payload)
	if err != nil {
		config.Logger.Errorf("events: marshal %s payload: %v", topic, err)
		return
	}
	config.Logger.Debugf("events: %s %s", topic, message)
}

// RedisSink broadcasts events over redis pub/sub channels, one channel per
// topic under the given prefix.
type RedisSink struct {
	client *redis.Client
	prefix string
}

func NewRedisSink(client *redis.Client, prefix string) *RedisSink {
	return &RedisSink{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisSink) Publish(topic string, payload interface{}) {
	message, err := json.Marshal(payload)
	if err != nil {
		config.Logger.Errorf("events: marshal %s payload: %v", topic, err)
		return
	}

	if err := s.client.Publish(context.Background(), s.prefix+"."+topic, message).Err(); err != nil {
		config.Logger.Errorf("events: publish %s: %v", topic, err)
	}
}

// MultiSink fans an event out to several sinks.
type MultiSink []EventSink

func (m MultiSink) Publish(topic string, payload interface{}) {
	for _, sink := range m {
		sink.Publish(topic, payload)
	}
}

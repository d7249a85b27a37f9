package websocket

import (
	"context"

	"hangoutz/internal/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RedisBridge delivers envelopes published by any instance to this
// instance's hub.
type RedisBridge struct {
	subscriber events.Subscriber
	hub        *Hub
	logger     *Logger
}

func NewRedisBridge(subscriber events.Subscriber, hub *Hub, logger *Logger) *RedisBridge {
	if logger == nil {
		logger = hub.logger
	}
	return &RedisBridge{subscriber: subscriber, hub: hub, logger: logger}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (b *RedisBridge) Run(ctx context.Context) error {
	return b.subscriber.Subscribe(ctx, []string{events.ChannelPattern}, func(channel string, payload []byte) {
		env, err := events.DecodeEnvelope(channel, payload)
		if err != nil {
			b.logger.Warn("dropping bus message", uuid.Nil, "", zap.String("channel", channel), zap.Error(err))
			return
		}
		b.hub.Deliver(env)
	})
}

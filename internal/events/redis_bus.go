package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// RedisBroadcaster implements Broadcaster by publishing envelopes on Redis
// channels. Every instance runs a bridge that delivers them to local rooms.
type RedisBroadcaster struct {
	publisher Publisher
	resolver  ChannelResolver
	logger    *zap.Logger
}

func NewRedisBroadcaster(publisher Publisher, resolver ChannelResolver, logger *zap.Logger) *RedisBroadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBroadcaster{
		publisher: publisher,
		resolver:  resolver,
		logger:    logger,
	}
}

func (b *RedisBroadcaster) Emit(ctx context.Context, env Envelope) error {
	channels := b.resolver.ResolveChannels(env)
	if len(channels) == 0 {
		return nil
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	var firstErr error
	for _, channel := range channels {
		if err := b.publisher.Publish(ctx, channel, data); err != nil {
			b.logger.Warn("failed to publish envelope",
				zap.String("channel", channel),
				zap.String("event", env.Event),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// DecodeEnvelope parses a payload received on channel. The room always comes
// from the channel name so a payload cannot redirect itself.
func DecodeEnvelope(channel string, payload []byte) (Envelope, error) {
	room, ok := RoomForChannel(channel)
	if !ok {
		return Envelope{}, fmt.Errorf("unexpected channel %q", channel)
	}
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	env.Room = room
	return env, nil
}

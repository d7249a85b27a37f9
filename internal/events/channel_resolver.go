package events

import "strings"

// Redis channel naming for cross-instance fan-out
const (
	ChannelPrefix             = "channel:"
	ChannelPrefixUser         = "channel:user:"
	ChannelPrefixConversation = "channel:conversation:"
	ChannelBroadcast          = "channel:broadcast"
	ChannelPattern            = "channel:*"
)

// ChannelResolver determines which Redis channels an envelope is published to
type ChannelResolver interface {
	ResolveChannels(env Envelope) []string
}

// RoomChannelResolver maps each room one-to-one onto a channel.
type RoomChannelResolver struct{}

func NewRoomChannelResolver() *RoomChannelResolver {
	return &RoomChannelResolver{}
}

func (r *RoomChannelResolver) ResolveChannels(env Envelope) []string {
	if env.Room == "" {
		return nil
	}
	return []string{ChannelPrefix + env.Room}
}

// RoomForChannel is the inverse of RoomChannelResolver.
func RoomForChannel(channel string) (string, bool) {
	if !strings.HasPrefix(channel, ChannelPrefix) {
		return "", false
	}
	room := strings.TrimPrefix(channel, ChannelPrefix)
	return room, room != ""
}

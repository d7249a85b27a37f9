package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type fakePublisher struct {
	channels []string
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, payload)
	return p.err
}

func TestRoomChannelRoundTrip(t *testing.T) {
	id := uuid.New()
	resolver := NewRoomChannelResolver()

	for _, room := range []string{UserRoom(id), ConversationRoom(id), BroadcastRoom} {
		channels := resolver.ResolveChannels(Envelope{Room: room})
		if len(channels) != 1 {
			t.Fatalf("room %s: expected one channel, got %v", room, channels)
		}
		got, ok := RoomForChannel(channels[0])
		if !ok || got != room {
			t.Errorf("room %s: round trip gave %q ok=%v", room, got, ok)
		}
	}

	if ch := resolver.ResolveChannels(Envelope{}); len(ch) != 0 {
		t.Errorf("expected no channel for empty room, got %v", ch)
	}
	if _, ok := RoomForChannel("other:thing"); ok {
		t.Error("expected foreign channel to be rejected")
	}
}

func TestRedisBroadcasterPublishesEnvelope(t *testing.T) {
	pub := &fakePublisher{}
	b := NewRedisBroadcaster(pub, NewRoomChannelResolver(), nil)
	userID := uuid.New()

	if err := NotifyUser(context.Background(), b, userID, UserStatus, StatusPayload{UserID: userID, Online: true}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(pub.channels) != 1 || pub.channels[0] != ChannelPrefixUser+userID.String() {
		t.Fatalf("unexpected channels %v", pub.channels)
	}

	env, err := DecodeEnvelope(pub.channels[0], pub.payloads[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Event != UserStatus || env.Room != UserRoom(userID) {
		t.Fatalf("unexpected envelope %+v", env)
	}

	var status StatusPayload
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if status.UserID != userID || !status.Online {
		t.Fatalf("unexpected payload %+v", status)
	}
}

func TestRedisBroadcasterReturnsPublishError(t *testing.T) {
	boom := errors.New("redis down")
	b := NewRedisBroadcaster(&fakePublisher{err: boom}, NewRoomChannelResolver(), nil)

	err := NotifyUser(context.Background(), b, uuid.New(), UserTyping, TypingPayload{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected publish error, got %v", err)
	}
}

func TestDecodeEnvelopeTakesRoomFromChannel(t *testing.T) {
	target := uuid.New()
	payload, _ := json.Marshal(Envelope{Room: UserRoom(uuid.New()), Event: MessageNew})

	env, err := DecodeEnvelope(ChannelPrefixUser+target.String(), payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Room != UserRoom(target) {
		t.Fatalf("expected room from channel, got %s", env.Room)
	}
}

func TestFrameShape(t *testing.T) {
	env, err := NewEnvelope(BroadcastRoom, UserStatus, map[string]bool{"online": false})
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	raw, err := env.Frame()
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(decoded["event"]) != `"user:status"` || string(decoded["data"]) != `{"online":false}` {
		t.Fatalf("unexpected frame %s", raw)
	}
}

package conversation

import (
	"testing"

	"github.com/google/uuid"
)

func TestDirectKeyIsOrderIndependent(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	if DirectKey(a, b) != DirectKey(b, a) {
		t.Fatalf("DirectKey depends on argument order")
	}
	if DirectKey(a, b) == DirectKey(a, uuid.New()) {
		t.Fatalf("different pairs share a key")
	}
}

func TestParticipantIDsExcludesSender(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	conv := Conversation{Participants: []Participant{{UserID: a}, {UserID: b, UnreadCount: 3}, {UserID: c}}}

	others := conv.ParticipantIDs(a)
	if len(others) != 2 || others[0] != b || others[1] != c {
		t.Fatalf("others = %v", others)
	}
	if all := conv.ParticipantIDs(uuid.Nil); len(all) != 3 {
		t.Fatalf("all = %v", all)
	}
	if p, ok := conv.Participant(b); !ok || p.UnreadCount != 3 {
		t.Fatalf("participant b = %+v %v", p, ok)
	}
	if conv.HasParticipant(uuid.New()) {
		t.Fatalf("stranger reported as participant")
	}
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hangoutz/internal/domain/conversation"
	"hangoutz/internal/domain/event"
	"hangoutz/internal/domain/message"
	"hangoutz/internal/domain/user"
	"hangoutz/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SeedConfig holds configuration for seeding the database
type SeedConfig struct {
	UserCount  int
	EventCount int
	// Center is where sample events are placed.
	CenterLat float64
	CenterLng float64
}

func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		UserCount:  5,
		EventCount: 6,
		CenterLat:  40.7128,
		CenterLng:  -74.0060,
	}
}

// SeedResult holds the result of the seeding operation
type SeedResult struct {
	Users         []user.User
	Events        []event.Event
	Conversations []conversation.Conversation
	Messages      []message.Message
}

var sampleNames = []string{"Ava", "Noah", "Mia", "Liam", "Zoe", "Ethan", "Lena", "Omar"}

var sampleInterests = [][]string{
	{"chess", "coffee"},
	{"photography", "hiking"},
	{"music", "travel"},
	{"gaming", "movies"},
	{"books", "art"},
}

// Seed writes sample users, events and one direct conversation through the
// repositories in a single transaction.
func Seed(ctx context.Context, store repository.Store, cfg *SeedConfig) (*SeedResult, error) {
	if cfg == nil {
		cfg = DefaultSeedConfig()
	}
	if cfg.UserCount < 2 {
		return nil, fmt.Errorf("seeding needs at least two users")
	}

	result := &SeedResult{}
	now := time.Now().UTC()

	err := store.Transaction(ctx, func(tx repository.Store) error {
		for i := 0; i < cfg.UserCount; i++ {
			u := seedUser(i, now)
			if err := tx.Users().Create(ctx, &u); err != nil {
				return fmt.Errorf("create user %s: %w", u.Phone, err)
			}
			result.Users = append(result.Users, u)
		}

		for i := 0; i < cfg.EventCount; i++ {
			host := result.Users[i%len(result.Users)]
			e := seedEvent(i, host, cfg, now)
			if err := tx.Events().Create(ctx, &e); err != nil {
				return fmt.Errorf("create event %q: %w", e.Title, err)
			}
			result.Events = append(result.Events, e)
		}

		a, b := result.Users[0], result.Users[1]
		conv := conversation.Conversation{
			ID:            uuid.New(),
			Type:          conversation.TypeDirect,
			DirectKey:     sql.NullString{String: conversation.DirectKey(a.ID, b.ID), Valid: true},
			LastMessageAt: now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		conv.Participants = []conversation.Participant{
			conversation.NewParticipant(conv.ID, a.Snapshot(), now),
			conversation.NewParticipant(conv.ID, b.Snapshot(), now),
		}
		if err := tx.Conversations().Create(ctx, &conv); err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}

		lines := []struct {
			from user.User
			body string
		}{
			{a, "Hey! Are you coming to the chess meetup?"},
			{b, "Yes, see you there"},
		}
		for i, line := range lines {
			at := now.Add(time.Duration(i) * time.Second)
			m := message.Message{
				ID:             uuid.New(),
				ConversationID: conv.ID,
				SenderID:       line.from.ID,
				SenderName:     line.from.Name,
				Body:           line.body,
				Type:           message.TypeText,
				CreatedAt:      at,
			}
			if err := tx.Messages().Create(ctx, &m); err != nil {
				return fmt.Errorf("create message: %w", err)
			}
			if err := tx.Conversations().RecordMessage(ctx, conv.ID, line.from.ID, line.body, at); err != nil {
				return fmt.Errorf("record message: %w", err)
			}
			result.Messages = append(result.Messages, m)
		}
		result.Conversations = append(result.Conversations, conv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func seedUser(i int, now time.Time) user.User {
	name := sampleNames[i%len(sampleNames)]
	u := user.User{
		ID:         uuid.New(),
		Phone:      fmt.Sprintf("+1555010%04d", i),
		Name:       name,
		Bio:        fmt.Sprintf("Hi, I'm %s and I like meeting new people.", name),
		PhotoURL:   fmt.Sprintf("https://i.pravatar.cc/300?u=%d", i),
		Interests:  datatypes.JSONSlice[string](sampleInterests[i%len(sampleInterests)]),
		TrustScore: user.DefaultTrustScore,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	u.SetPhotos([]string{u.PhotoURL})
	u.RefreshCompletion()
	return u
}

func seedEvent(i int, host user.User, cfg *SeedConfig, now time.Time) event.Event {
	category := event.Categories[i%len(event.Categories)]
	capacity := 4 + i
	snapshot := host.Snapshot()
	e := event.Event{
		ID:              uuid.New(),
		Title:           fmt.Sprintf("%s meetup #%d", category, i+1),
		Description:     "A relaxed meetup for people who share the interest.",
		Location:        "Community center",
		Latitude:        cfg.CenterLat + float64(i)*0.01,
		Longitude:       cfg.CenterLng + float64(i)*0.01,
		DateTime:        now.Add(time.Duration(24*(i+1)) * time.Hour),
		Category:        category,
		ImageURL:        fmt.Sprintf("https://picsum.photos/seed/hangoutz-%d/800/400", i),
		Host:            event.NewHost(snapshot),
		MaxParticipants: &capacity,
		Tags:            datatypes.JSONSlice[string]{"seed"},
		Status:          event.StatusUpcoming,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	e.Participants = []event.Participant{event.NewParticipant(e.ID, snapshot, now)}
	return e
}

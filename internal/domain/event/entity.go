package event

import (
	"time"

	"hangoutz/internal/domain/user"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Category string

const (
	CategoryMusic       Category = "🎵 Music"
	CategoryWellness    Category = "🧘 Wellness"
	CategoryTech        Category = "💻 Tech"
	CategoryFood        Category = "🍔 Food"
	CategoryChess       Category = "♟️ Chess"
	CategoryPhotography Category = "📸 Photography"
	CategoryGaming      Category = "🎮 Gaming"
	CategoryTravel      Category = "✈️ Travel"
	CategoryArt         Category = "🎨 Art"
	CategoryBooks       Category = "📚 Books"
	CategorySports      Category = "🏃 Sports"
	CategoryMovies      Category = "🎬 Movies"
	CategoryOther       Category = "Other"
)

var Categories = []Category{
	CategoryMusic, CategoryWellness, CategoryTech, CategoryFood, CategoryChess,
	CategoryPhotography, CategoryGaming, CategoryTravel, CategoryArt, CategoryBooks,
	CategorySports, CategoryMovies, CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Host is the host snapshot stored inline on the events row.
type Host struct {
	ID       uuid.UUID `gorm:"type:uuid;index" json:"id"`
	Name     string    `json:"name"`
	PhotoURL string    `json:"photoURL"`
}

// Event represents the events table
type Event struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string                      `gorm:"not null" json:"title" validate:"required,min=3,max=200"`
	Description     string                      `gorm:"not null" json:"description" validate:"required,min=10,max=2000"`
	Location        string                      `gorm:"not null" json:"location" validate:"required"`
	Latitude        float64                     `json:"lat" validate:"gte=-90,lte=90"`
	Longitude       float64                     `json:"lng" validate:"gte=-180,lte=180"`
	DateTime        time.Time                   `gorm:"not null;index" json:"dateTime" validate:"required"`
	Category        Category                    `gorm:"not null;index" json:"category" validate:"required,event_category"`
	ImageURL        string                      `json:"imageURL"`
	Host            Host                        `gorm:"embedded;embeddedPrefix:host_" json:"host"`
	Participants    []Participant               `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"participants"`
	MaxParticipants *int                        `json:"maxParticipants" validate:"omitempty,gte=1"`
	Tags            datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"tags" validate:"dive,max=30"`
	IsFeatured      bool                        `gorm:"not null;default:false" json:"isFeatured"`
	Status          Status                      `gorm:"not null;default:upcoming;index" json:"status" validate:"required,event_status"`
	CreatedAt       time.Time                   `json:"createdAt"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
}

// Participant represents the event_participants table
type Participant struct {
	EventID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"id"`
	Name     string    `json:"name"`
	PhotoURL string    `json:"photoURL"`
	JoinedAt time.Time `json:"joinedAt"`
}

func (Event) TableName() string {
	return "events"
}

func (Participant) TableName() string {
	return "event_participants"
}

func NewHost(s user.Snapshot) Host {
	return Host{ID: s.ID, Name: s.Name, PhotoURL: s.PhotoURL}
}

func NewParticipant(eventID uuid.UUID, s user.Snapshot, at time.Time) Participant {
	return Participant{EventID: eventID, UserID: s.ID, Name: s.Name, PhotoURL: s.PhotoURL, JoinedAt: at}
}

func (e Event) ParticipantCount() int {
	return len(e.Participants)
}

func (e Event) HasParticipant(id uuid.UUID) bool {
	for _, p := range e.Participants {
		if p.UserID == id {
			return true
		}
	}
	return false
}

// IsFull reports whether capacity is set and reached.
func (e Event) IsFull() bool {
	return e.MaxParticipants != nil && e.ParticipantCount() >= *e.MaxParticipants
}

func (e Event) IsHost(id uuid.UUID) bool {
	return e.Host.ID == id
}

package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const DefaultTrustScore = 50

// User represents the users table
type User struct {
	ID                   uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Phone                string                      `gorm:"uniqueIndex;not null" json:"phone"`
	Name                 string                      `json:"name"`
	Bio                  string                      `json:"bio"`
	PhotoURL             string                      `json:"photoURL"`
	Photos               datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"photos"`
	Interests            datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"interests"`
	Verified             bool                        `gorm:"not null;default:false" json:"verified"`
	VerificationPhotoURL string                      `json:"verificationPhotoURL,omitempty"`
	TrustScore           int                         `gorm:"not null;default:50" json:"trustScore"`
	BlockedUsers         datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"blockedUsers,omitempty"`
	CompletedProfile     bool                        `gorm:"not null;default:false" json:"completedProfile"`
	LastActive           sql.NullTime                `json:"-"`
	CreatedAt            time.Time                   `json:"createdAt"`
	UpdatedAt            time.Time                   `json:"updatedAt"`

	// Activity counters feeding the trust score
	EventsHosted      int `gorm:"not null;default:0" json:"-"`
	EventsAttended    int `gorm:"not null;default:0" json:"-"`
	MessagesModerated int `gorm:"not null;default:0" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Snapshot is the denormalized id+name+photo copy embedded into events,
// conversations and messages. It is taken once and never refreshed.
type Snapshot struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	PhotoURL string    `json:"photoURL"`
}

func (u User) Snapshot() Snapshot {
	return Snapshot{ID: u.ID, Name: u.Name, PhotoURL: u.PhotoURL}
}

// Activity is the set of counters used by the trust score calculation.
type Activity struct {
	EventsHosted      int
	EventsAttended    int
	MessagesModerated int
}

func (u User) Activity() Activity {
	return Activity{
		EventsHosted:      u.EventsHosted,
		EventsAttended:    u.EventsAttended,
		MessagesModerated: u.MessagesModerated,
	}
}

func (u User) HasBlocked(id uuid.UUID) bool {
	target := id.String()
	for _, b := range u.BlockedUsers {
		if b == target {
			return true
		}
	}
	return false
}

// Block adds id to the blocked set. It reports whether the set changed.
func (u *User) Block(id uuid.UUID) bool {
	if u.HasBlocked(id) {
		return false
	}
	u.BlockedUsers = append(u.BlockedUsers, id.String())
	return true
}

// Unblock removes id from the blocked set. It reports whether the set changed.
func (u *User) Unblock(id uuid.UUID) bool {
	target := id.String()
	kept := u.BlockedUsers[:0]
	changed := false
	for _, b := range u.BlockedUsers {
		if b == target {
			changed = true
			continue
		}
		kept = append(kept, b)
	}
	u.BlockedUsers = kept
	return changed
}

// SetPhotos replaces the photo set; the primary photo follows photos[0] and is
// left untouched when the new set is empty.
func (u *User) SetPhotos(photos []string) {
	u.Photos = datatypes.JSONSlice[string](photos)
	if len(photos) > 0 {
		u.PhotoURL = photos[0]
	}
}

// RefreshCompletion marks the profile complete once a name and a photo exist.
func (u *User) RefreshCompletion() {
	u.CompletedProfile = u.Name != "" && u.PhotoURL != ""
}

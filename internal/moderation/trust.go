package moderation

import (
	"time"

	"hangoutz/internal/domain/user"
)

const day = 24 * time.Hour

// TrustScore starts from the stored score (or the default) and applies the
// verification, account age and activity adjustments, clamped to [0,100].
func TrustScore(u user.User, activity user.Activity, now time.Time) int {
	score := u.TrustScore
	if score == 0 {
		score = user.DefaultTrustScore
	}

	if u.Verified {
		score += 10
	}

	age := now.Sub(u.CreatedAt)
	if age > 30*day {
		score += 5
	}
	if age > 90*day {
		score += 5
	}

	if activity.EventsHosted > 0 {
		score += 5
	}
	if activity.EventsAttended > 5 {
		score += 5
	}
	if activity.MessagesModerated > 0 {
		score -= 10
	}

	return max(0, min(100, score))
}

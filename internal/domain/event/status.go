package event

import "time"

// AssumedDuration is how long every event is taken to last.
const AssumedDuration = 4 * time.Hour

// DeriveStatus maps a start time to upcoming, ongoing or completed relative to now.
func DeriveStatus(start, now time.Time) Status {
	end := start.Add(AssumedDuration)
	switch {
	case now.After(end):
		return StatusCompleted
	case !now.Before(start):
		return StatusOngoing
	default:
		return StatusUpcoming
	}
}

// RefreshStatus recomputes Status from DateTime. A cancelled event is
// overwritten unless stickyCancelled is set.
func (e *Event) RefreshStatus(now time.Time, stickyCancelled bool) {
	if stickyCancelled && e.Status == StatusCancelled {
		return
	}
	e.Status = DeriveStatus(e.DateTime, now)
}

package httpdto

import (
	"time"

	"hangoutz/internal/domain/event"
)

type Coordinates struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// CreateEventRequest is used for POST /api/events. Required fields are
// checked by the service so missing ones share one error message.
type CreateEventRequest struct {
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Location        string       `json:"location"`
	DateTime        *time.Time   `json:"dateTime"`
	Category        string       `json:"category"`
	Coordinates     *Coordinates `json:"coordinates"`
	MaxParticipants *int         `json:"maxParticipants"`
	Tags            []string     `json:"tags"`
	ImageURL        string       `json:"imageURL"`
}

type UpdateEventRequest struct {
	Title           *string      `json:"title"`
	Description     *string      `json:"description"`
	Location        *string      `json:"location"`
	DateTime        *time.Time   `json:"dateTime"`
	Category        *string      `json:"category"`
	Coordinates     *Coordinates `json:"coordinates"`
	MaxParticipants *int         `json:"maxParticipants"`
	Tags            []string     `json:"tags"`
	Status          *string      `json:"status"`
	ImageURL        *string      `json:"imageURL"`
}

type EventListQuery struct {
	Category    string   `form:"category"`
	Status      string   `form:"status"`
	Search      string   `form:"search"`
	Page        int      `form:"page,default=1" binding:"min=1"`
	Limit       int      `form:"limit,default=20" binding:"min=1,max=100"`
	SortBy      string   `form:"sortBy"`
	Lat         *float64 `form:"lat"`
	Lng         *float64 `form:"lng"`
	MaxDistance float64  `form:"maxDistance"`
}

// EventView adds the derived participation fields to an event.
type EventView struct {
	event.Event
	ParticipantCount int  `json:"participantCount"`
	IsFull           bool `json:"isFull"`
}

func NewEventView(e event.Event) EventView {
	return EventView{Event: e, ParticipantCount: e.ParticipantCount(), IsFull: e.IsFull()}
}

func NewEventViews(list []event.Event) []EventView {
	out := make([]EventView, len(list))
	for i, e := range list {
		out[i] = NewEventView(e)
	}
	return out
}

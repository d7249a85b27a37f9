package handler

import (
	"net/http"

	"hangoutz/internal/domain/event"
	"hangoutz/internal/repository"
	"hangoutz/internal/services"
	"hangoutz/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	service *services.EventService
}

func NewEventHandler(service *services.EventService) *EventHandler {
	return &EventHandler{service: service}
}

// List is public; coordinates narrow the result to nearby events.
func (h *EventHandler) List(c *gin.Context) {
	var q httpdto.EventListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}

	filter := repository.EventFilter{
		Status:      event.Status(q.Status),
		Category:    event.Category(q.Category),
		Search:      q.Search,
		MaxDistance: q.MaxDistance,
		Page:        q.Page,
		Limit:       q.Limit,
		Sort:        q.SortBy,
	}
	if q.Lat != nil && q.Lng != nil {
		filter.Near = &repository.GeoPoint{Lat: *q.Lat, Lng: *q.Lng}
	}

	list, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewPagedResponse(httpdto.NewEventViews(list), httpdto.NewPagination(q.Page, q.Limit, total)))
}

func (h *EventHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id", "Invalid event ID")
	if !ok {
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewEventView(e)))
}

// ListByUser accepts ?type=hosted|joined; anything else returns both.
func (h *EventHandler) ListByUser(c *gin.Context) {
	userID, ok := pathUUID(c, "userId", "Invalid user ID")
	if !ok {
		return
	}

	list, err := h.service.ListByUser(c.Request.Context(), userID, repository.EventScope(c.Query("type")))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewEventViews(list)))
}

func (h *EventHandler) Create(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}

	var req httpdto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	in := services.CreateEventInput{
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		Category:        event.Category(req.Category),
		MaxParticipants: req.MaxParticipants,
		Tags:            req.Tags,
		ImageURL:        req.ImageURL,
	}
	if req.DateTime != nil {
		in.DateTime = *req.DateTime
	}
	if req.Coordinates != nil {
		in.Lat, in.Lng = req.Coordinates.Lat, req.Coordinates.Lng
	}

	e, err := h.service.Create(c.Request.Context(), requester, in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.NewEventView(e)))
}

func (h *EventHandler) Update(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "Invalid event ID")
	if !ok {
		return
	}

	var req httpdto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	in := services.UpdateEventInput{
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		DateTime:        req.DateTime,
		MaxParticipants: req.MaxParticipants,
		Tags:            req.Tags,
		ImageURL:        req.ImageURL,
	}
	if req.Category != nil {
		category := event.Category(*req.Category)
		in.Category = &category
	}
	if req.Status != nil {
		status := event.Status(*req.Status)
		in.Status = &status
	}
	if req.Coordinates != nil {
		in.Lat, in.Lng = req.Coordinates.Lat, req.Coordinates.Lng
	}

	e, err := h.service.Update(c.Request.Context(), requester.ID, id, in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewEventView(e)))
}

func (h *EventHandler) Delete(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "Invalid event ID")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), requester.ID, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewMessageResponse("Event deleted successfully"))
}

func (h *EventHandler) Join(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "Invalid event ID")
	if !ok {
		return
	}

	e, err := h.service.Join(c.Request.Context(), requester, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewEventView(e)))
}

func (h *EventHandler) Leave(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "Invalid event ID")
	if !ok {
		return
	}

	e, err := h.service.Leave(c.Request.Context(), requester.ID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewEventView(e)))
}


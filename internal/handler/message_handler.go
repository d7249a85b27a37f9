package handler

import (
	"net/http"
	"time"

	"hangoutz/internal/domain/message"
	"hangoutz/internal/services"
	"hangoutz/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MessageHandler struct {
	service *services.MessageService
}

func NewMessageHandler(service *services.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

func (h *MessageHandler) Send(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}

	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	conversationID := uuid.Nil
	if req.ChannelID != "" {
		id, err := uuid.Parse(req.ChannelID)
		if err != nil {
			badRequest(c, "Invalid channel ID")
			return
		}
		conversationID = id
	}

	msg, err := h.service.Send(c.Request.Context(), requester, conversationID, req.Message, message.Type(req.Type))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(msg))
}

// List pages backwards through history; before is an RFC 3339 timestamp.
func (h *MessageHandler) List(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, ok := pathUUID(c, "conversationId", "Invalid conversation ID")
	if !ok {
		return
	}

	var q httpdto.MessageListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}

	var before *time.Time
	if q.Before != "" {
		t, err := time.Parse(time.RFC3339Nano, q.Before)
		if err != nil {
			badRequest(c, "Invalid before timestamp")
			return
		}
		before = &t
	}

	list, err := h.service.List(c.Request.Context(), requester.ID, conversationID, q.Limit, before)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(list))
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "Invalid message ID")
	if !ok {
		return
	}

	res, err := h.service.MarkRead(c.Request.Context(), requester.ID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewMessageResponse(res.Message))
}

func (h *MessageHandler) Delete(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "Invalid message ID")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), requester.ID, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewMessageResponse("Message deleted successfully"))
}

package handler

import (
	"net/http"

	"hangoutz/internal/services"
	"hangoutz/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConversationHandler struct {
	service *services.ConversationService
}

func NewConversationHandler(service *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// Create returns the existing direct conversation with 200, or a new one
// with 201. Requests naming a group create a group conversation.
func (h *ConversationHandler) Create(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}

	var req httpdto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if req.IsGroup() {
		ids := make([]uuid.UUID, 0, len(req.ParticipantIDs))
		for _, raw := range req.ParticipantIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				badRequest(c, "Invalid participant ID")
				return
			}
			ids = append(ids, id)
		}

		conv, err := h.service.CreateGroup(c.Request.Context(), requester, req.GroupName, ids)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, httpdto.CreateConversationResponse{Success: true, Data: conv, IsNew: true})
		return
	}

	otherID := uuid.Nil
	if req.OtherUserID != "" {
		id, err := uuid.Parse(req.OtherUserID)
		if err != nil {
			badRequest(c, "Invalid user ID")
			return
		}
		otherID = id
	}

	conv, created, err := h.service.CreateOrGetDirect(c.Request.Context(), requester, otherID)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, httpdto.CreateConversationResponse{Success: true, Data: conv, IsNew: created})
}

func (h *ConversationHandler) List(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}

	list, err := h.service.List(c.Request.Context(), requester.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(list))
}

func (h *ConversationHandler) Get(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "Invalid conversation ID")
	if !ok {
		return
	}

	conv, err := h.service.Get(c.Request.Context(), requester.ID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(conv))
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "Invalid conversation ID")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), requester.ID, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewMessageResponse("Conversation deleted successfully"))
}

func (h *ConversationHandler) MarkRead(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "Invalid conversation ID")
	if !ok {
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), requester.ID, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewMessageResponse("Conversation marked as read"))
}

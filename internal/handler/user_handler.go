package handler

import (
	"context"
	"net/http"

	"hangoutz/internal/repository"
	"hangoutz/internal/services"
	"hangoutz/internal/transport/httpdto"
	"hangoutz/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PresenceReader answers whether a user currently holds a live socket.
type PresenceReader interface {
	IsOnline(ctx context.Context, userID uuid.UUID) (bool, error)
}

type UserHandler struct {
	service  *services.UserService
	presence PresenceReader
}

// NewUserHandler builds the user endpoints. presence may be nil, in which case
// profiles carry no online flag.
func NewUserHandler(service *services.UserService, presence PresenceReader) *UserHandler {
	return &UserHandler{service: service, presence: presence}
}

func (h *UserHandler) List(c *gin.Context) {
	var q httpdto.UserListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}

	users, total, err := h.service.List(c.Request.Context(), repository.UserFilter{
		Search: q.Search,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewPagedResponse(users, httpdto.NewPagination(q.Page, q.Limit, total)))
}

// Get is public. The block list is only shown to the profile owner.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id", "Invalid user ID")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	u, err := h.service.GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if requester, ok := services.UserFromContext(ctx); !ok || requester.ID != u.ID {
		u.BlockedUsers = nil
	}

	view := httpdto.UserView{User: u}
	if h.presence != nil {
		online, err := h.presence.IsOnline(ctx, u.ID)
		if err != nil {
			logger.GetGlobalLogger().WarnCtx(ctx, "presence lookup failed",
				zap.String("user_id", u.ID.String()), zap.Error(err))
		} else {
			view.Online = &online
		}
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(view))
}

func (h *UserHandler) Update(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "Invalid user ID")
	if !ok {
		return
	}

	var req httpdto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	u, err := h.service.UpdateProfile(c.Request.Context(), requester.ID, id, services.UpdateUserInput{
		Name:      req.Name,
		Bio:       req.Bio,
		Interests: req.Interests,
		Photos:    req.Photos,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(u))
}

func (h *UserHandler) Delete(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "Invalid user ID")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), requester.ID, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewMessageResponse("User deleted successfully"))
}

func (h *UserHandler) Verify(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "Invalid user ID")
	if !ok {
		return
	}

	var req httpdto.VerifyUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Verification photo is required")
		return
	}

	u, err := h.service.SubmitVerification(c.Request.Context(), requester.ID, id, req.VerificationPhotoURL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(u))
}

func (h *UserHandler) Block(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "Invalid user ID")
	if !ok {
		return
	}
	targetID, ok := pathUUID(c, "targetId", "Invalid user ID")
	if !ok {
		return
	}

	if err := h.service.Block(c.Request.Context(), requester.ID, id, targetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewMessageResponse("User blocked successfully"))
}

func (h *UserHandler) Unblock(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "Invalid user ID")
	if !ok {
		return
	}
	targetID, ok := pathUUID(c, "targetId", "Invalid user ID")
	if !ok {
		return
	}

	if err := h.service.Unblock(c.Request.Context(), requester.ID, id, targetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewMessageResponse("User unblocked successfully"))
}

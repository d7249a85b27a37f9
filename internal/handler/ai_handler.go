package handler

import (
	"net/http"
	"strings"

	"hangoutz/internal/moderation"
	"hangoutz/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// AIHandler exposes the content classifier and the canned assistant.
type AIHandler struct{}

func NewAIHandler() *AIHandler {
	return &AIHandler{}
}

func (h *AIHandler) Moderate(c *gin.Context) {
	var req httpdto.ModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		badRequest(c, "Text is required")
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(moderation.Classify(req.Text)))
}

func (h *AIHandler) Chat(c *gin.Context) {
	var req httpdto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		badRequest(c, "Message is required")
		return
	}

	verdict := moderation.Classify(req.Message)
	if verdict.Is(moderation.SeverityHigh) {
		badRequest(c, "Message contains inappropriate content")
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ChatResponse{
		Response:   moderation.AssistantReply(req.Message, req.History),
		Moderation: verdict,
	}))
}

package httpdto

import "hangoutz/internal/moderation"

type ModerateRequest struct {
	Text string `json:"text"`
}

type ChatRequest struct {
	Message string                `json:"message"`
	History []moderation.ChatTurn `json:"history"`
}

type ChatResponse struct {
	Response   string             `json:"response"`
	Moderation moderation.Verdict `json:"moderation"`
}

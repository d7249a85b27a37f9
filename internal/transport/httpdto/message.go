package httpdto

// SendMessageRequest is used for POST /api/messages
type SendMessageRequest struct {
	ChannelID string `json:"channelId"`
	Message   string `json:"message"`
	Type      string `json:"type"`
}

type MessageListQuery struct {
	Limit  int    `form:"limit,default=50" binding:"min=1,max=100"`
	Before string `form:"before"`
}

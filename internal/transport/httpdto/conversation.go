package httpdto

import "hangoutz/internal/domain/conversation"

// CreateConversationRequest is used for POST /api/conversations. A request
// with participantIds and a groupName creates a group; otherwise
// otherUserId names the direct conversation partner.
type CreateConversationRequest struct {
	OtherUserID    string   `json:"otherUserId"`
	GroupName      string   `json:"groupName"`
	ParticipantIDs []string `json:"participantIds"`
}

func (r CreateConversationRequest) IsGroup() bool {
	return r.GroupName != "" || len(r.ParticipantIDs) > 0
}

type CreateConversationResponse struct {
	Success bool                      `json:"success"`
	Data    conversation.Conversation `json:"data"`
	IsNew   bool                      `json:"isNew"`
}

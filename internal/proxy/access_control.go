package proxy

import (
	"context"
	"errors"

	"hangoutz/internal/domain/conversation"
	"hangoutz/internal/repository"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
)

// AccessControl holds the ownership and membership rules shared by every
// service. Owner checks compare the caller against the resource owner id;
// membership checks look at the conversation participant set.
type AccessControl struct {
	conversationRepo repository.ConversationRepository
}

func NewAccessControl(conversationRepo repository.ConversationRepository) *AccessControl {
	return &AccessControl{conversationRepo: conversationRepo}
}

// IsOwner is the single ownership predicate: the caller owns a resource when
// its id equals the owner id.
func (a *AccessControl) IsOwner(caller, owner uuid.UUID) bool {
	return caller != uuid.Nil && caller == owner
}

func (a *AccessControl) EnsureOwner(caller, owner uuid.UUID, message string) error {
	if !a.IsOwner(caller, owner) {
		return hangoutz_errors.Forbidden(message)
	}
	return nil
}

func (a *AccessControl) EnsureParticipant(c conversation.Conversation, userID uuid.UUID, message string) error {
	if !c.HasParticipant(userID) {
		return hangoutz_errors.Forbidden(message)
	}
	return nil
}

// LoadConversation fetches a conversation and checks that userID belongs to
// it, failing with message when it does not.
func (a *AccessControl) LoadConversation(ctx context.Context, conversationID, userID uuid.UUID, message string) (conversation.Conversation, error) {
	c, err := a.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, hangoutz_errors.ErrNotFound) {
			return conversation.Conversation{}, hangoutz_errors.NotFound("Conversation not found")
		}
		return conversation.Conversation{}, err
	}
	if err := a.EnsureParticipant(c, userID, message); err != nil {
		return conversation.Conversation{}, err
	}
	return c, nil
}

// CanJoinRoom gates realtime subscriptions to conversation rooms.
func (a *AccessControl) CanJoinRoom(ctx context.Context, userID, conversationID uuid.UUID) error {
	ok, err := a.conversationRepo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return hangoutz_errors.Forbidden("Not authorized to join this conversation")
	}
	return nil
}

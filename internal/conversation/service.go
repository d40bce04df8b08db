package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/store"
)

var (
	// ErrForbidden means the caller asked about an address they do not own.
	// Nothing about the address, not even its existence, is revealed.
	ErrForbidden = errors.New("address not owned by member")

	ErrChainNotFound = errors.New("chain not found")
)

// Ownership is the slice of the mailbox service the query paths need.
type Ownership interface {
	OwnedAddresses(ctx context.Context, teamID, memberID int64) ([]string, error)
	Owns(ctx context.Context, teamID, memberID int64, address string) (bool, error)
}

// Service is the read side of the mail core: one-row-per-chain conversation
// listings and full-thread retrieval, gated by address ownership.
type Service struct {
	messages  store.MessageStore
	ownership Ownership
}

func NewService(messages store.MessageStore, ownership Ownership) *Service {
	return &Service{
		messages:  messages,
		ownership: ownership,
	}
}

// List returns a page of conversations for one mailbox address, newest
// activity first. The address must be owned by the requesting member.
func (s *Service) List(ctx context.Context, teamID, memberID int64, address string, query models.ConversationQuery) (*models.ConversationPage, error) {
	address = strings.ToLower(strings.TrimSpace(address))

	owns, err := s.ownership.Owns(ctx, teamID, memberID, address)
	if err != nil {
		return nil, fmt.Errorf("checking address ownership: %w", err)
	}
	if !owns {
		return nil, ErrForbidden
	}

	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 || query.Limit > 100 {
		query.Limit = 20
	}

	total, err := s.messages.CountLatestByRecipient(ctx, teamID, address, query)
	if err != nil {
		return nil, fmt.Errorf("counting conversations: %w", err)
	}

	latest, err := s.messages.FindLatestByRecipient(ctx, teamID, address, query)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}

	conversations := make([]models.ConversationSummary, 0, len(latest))
	for _, msg := range latest {
		conversations = append(conversations, models.ConversationSummary{
			ChainID: msg.ChainID,
			Subject: msg.Subject,
			Message: msg,
		})
	}

	totalPages := (total + query.Limit - 1) / query.Limit
	return &models.ConversationPage{
		Conversations: conversations,
		TotalDocs:     total,
		TotalPages:    totalPages,
		Page:          query.Page,
		Limit:         query.Limit,
		HasNextPage:   query.Page*query.Limit < total,
		HasPrevPage:   query.Page > 1,
	}, nil
}

// GetChainMessages returns every message in the chain, oldest first.
func (s *Service) GetChainMessages(ctx context.Context, chainID string) ([]models.Message, error) {
	msgs, err := s.messages.GetMessagesByChainID(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("loading chain messages: %w", err)
	}
	if len(msgs) == 0 {
		return nil, ErrChainNotFound
	}
	return msgs, nil
}

// IsChainAccessible reports whether at least one message in the chain names
// one of the member's addresses as recipient, sender, or To entry. Used as
// the authorization gate before exposing full-thread detail.
func (s *Service) IsChainAccessible(ctx context.Context, teamID, memberID int64, chainID string) (bool, error) {
	owned, err := s.ownership.OwnedAddresses(ctx, teamID, memberID)
	if err != nil {
		return false, fmt.Errorf("listing owned addresses: %w", err)
	}
	if len(owned) == 0 {
		return false, nil
	}

	ok, err := s.messages.ChainInvolvesAddresses(ctx, teamID, chainID, owned)
	if err != nil {
		return false, fmt.Errorf("checking chain participants: %w", err)
	}
	return ok, nil
}

// MarkRead flips the one mutable read flag on a message.
func (s *Service) MarkRead(ctx context.Context, teamID, messageID int64) error {
	if err := s.messages.MarkMessageRead(ctx, teamID, messageID); err != nil {
		return fmt.Errorf("marking message read: %w", err)
	}
	return nil
}

// SetStarred sets or clears the starred flag on a message.
func (s *Service) SetStarred(ctx context.Context, teamID, messageID int64, starred bool) error {
	if err := s.messages.SetMessageStarred(ctx, teamID, messageID, starred); err != nil {
		return fmt.Errorf("updating starred flag: %w", err)
	}
	return nil
}

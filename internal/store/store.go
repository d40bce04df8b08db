package store

import (
	"context"

	"github.com/hivedesk/hivedesk/internal/models"
)

type MessageStore interface {
	CreateMessage(ctx context.Context, params models.MessageCreateParams) (*models.Message, error)
	GetMessageByMessageID(ctx context.Context, messageID string) (*models.Message, error)
	GetMessagesByChainID(ctx context.Context, chainID string) ([]models.Message, error)
	ClearLatestInChain(ctx context.Context, chainID string) error
	FindLatestByRecipient(ctx context.Context, teamID int64, recipient string, query models.ConversationQuery) ([]models.Message, error)
	CountLatestByRecipient(ctx context.Context, teamID int64, recipient string, query models.ConversationQuery) (int, error)
	ChainInvolvesAddresses(ctx context.Context, teamID int64, chainID string, addresses []string) (bool, error)
	MarkMessageRead(ctx context.Context, teamID, id int64) error
	SetMessageStarred(ctx context.Context, teamID, id int64, starred bool) error
}

type MailboxAddressStore interface {
	ListAddressesByMember(ctx context.Context, teamID, memberID int64) ([]models.MailboxAddress, error)
}

type IntegrationStore interface {
	GetIntegrationByTeamID(ctx context.Context, teamID int64) (*models.Integration, error)
}

package outbound

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hivedesk/hivedesk/internal/chain"
	"github.com/hivedesk/hivedesk/internal/inbound"
	"github.com/hivedesk/hivedesk/internal/mail"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/store"
)

var (
	ErrValidation       = errors.New("invalid outbound message")
	ErrOutboundDisabled = errors.New("outbound mail is disabled")
	ErrForbidden        = errors.New("sender address not owned by member")
)

var validate = validator.New()

// SendInput is an outbound message request from a team member.
type SendInput struct {
	From      string   `json:"from" validate:"required,email"`
	To        []string `json:"to" validate:"required,min=1,dive,required"`
	Cc        []string `json:"cc" validate:"dive,required"`
	Bcc       []string `json:"bcc" validate:"dive,required"`
	Subject   string   `json:"subject" validate:"required"`
	HTML      string   `json:"html" validate:"required"`
	InReplyTo string   `json:"in_reply_to"`
}

// Ownership is the slice of the mailbox service the send path needs.
type Ownership interface {
	Owns(ctx context.Context, teamID, memberID int64, address string) (bool, error)
}

// Service persists and delivers member-composed outbound mail, threading
// replies into their existing chains.
type Service struct {
	integrations store.IntegrationStore
	resolver     *chain.Resolver
	chains       *chain.Service
	ownership    Ownership
	sender       mail.Sender
}

func NewService(integrations store.IntegrationStore, resolver *chain.Resolver, chains *chain.Service, ownership Ownership, sender mail.Sender) *Service {
	return &Service{
		integrations: integrations,
		resolver:     resolver,
		chains:       chains,
		ownership:    ownership,
		sender:       sender,
	}
}

// Send validates the request, threads it, persists the outgoing message, and
// hands it to the transport. Validation and gating failures persist nothing.
func (s *Service) Send(ctx context.Context, teamID, memberID int64, input SendInput) (*models.Message, error) {
	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field()))
			}
			return nil, fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, ", "))
		}
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	integration, err := s.integrations.GetIntegrationByTeamID(ctx, teamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, inbound.ErrIntegrationNotFound
		}
		return nil, fmt.Errorf("loading integration: %w", err)
	}
	if integration.Status != models.IntegrationActive {
		return nil, inbound.ErrIntegrationInactive
	}
	if !integration.OutboundEnabled {
		return nil, ErrOutboundDisabled
	}

	owns, err := s.ownership.Owns(ctx, teamID, memberID, input.From)
	if err != nil {
		return nil, fmt.Errorf("checking sender ownership: %w", err)
	}
	if !owns {
		return nil, ErrForbidden
	}

	chainID, err := s.resolver.Resolve(ctx, input.InReplyTo, nil)
	if err != nil {
		return nil, fmt.Errorf("resolving chain: %w", err)
	}

	from := strings.ToLower(strings.TrimSpace(input.From))
	msg, err := s.chains.Append(ctx, chainID, models.MessageCreateParams{
		TeamID:    teamID,
		InReplyTo: input.InReplyTo,
		From:      from,
		To:        input.To,
		Cc:        input.Cc,
		Bcc:       input.Bcc,
		Recipient: from,
		Subject:   input.Subject,
		Body:      input.HTML,
		Summary:   inbound.Summarize(input.HTML),
		Direction: models.DirectionOutgoing,
		IsRead:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("persisting outbound message: %w", err)
	}

	if err := s.sender.Send(ctx, from, input.To, input.Subject, input.HTML); err != nil {
		// The message stays persisted; the transport failure is surfaced so
		// the provider's own retry policy governs redelivery.
		slog.Error("outbound: transport send failed",
			"team_id", teamID, "message_id", msg.MessageID, "error", err)
		return msg, fmt.Errorf("sending outbound message: %w", err)
	}

	return msg, nil
}

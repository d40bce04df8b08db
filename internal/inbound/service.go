package inbound

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hivedesk/hivedesk/internal/chain"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/store"
)

// Sentinel errors returned before any message is persisted.
var (
	ErrIntegrationNotFound = errors.New("mail integration not found")
	ErrIntegrationInactive = errors.New("mail integration is not active")
	ErrInboundDisabled     = errors.New("inbound mail is disabled")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrNoRecipients        = errors.New("payload has no recipients")
)

// Payload is an inbound provider callback. The recipient field may be a
// comma-separated list when one delivery addresses several team mailboxes.
type Payload struct {
	Recipient string       `json:"recipient"`
	From      string       `json:"from"`
	Subject   string       `json:"subject"`
	BodyHTML  string       `json:"body-html"`
	BodyPlain string       `json:"body-plain"`
	Headers   []HeaderPair `json:"message-headers"`
	Token     string       `json:"token"`
	Timestamp string       `json:"timestamp"`
	Signature string       `json:"signature"`
}

// Result counts the per-recipient fan-out outcome of one delivery.
type Result struct {
	Accepted int `json:"accepted"`
	Failed   int `json:"failed"`
}

// Service authenticates provider callbacks and fans each delivery out into
// one persisted message per addressed team mailbox.
type Service struct {
	integrations store.IntegrationStore
	resolver     *chain.Resolver
	chains       *chain.Service
}

func NewService(integrations store.IntegrationStore, resolver *chain.Resolver, chains *chain.Service) *Service {
	return &Service{
		integrations: integrations,
		resolver:     resolver,
		chains:       chains,
	}
}

// ProcessWebhook validates the delivery against the team's integration and,
// once authenticated, threads and persists one message per recipient.
// Authentication and gating failures abort before any write. Past that
// point, a single recipient's failure is logged and counted but never rolls
// back or aborts its siblings.
func (s *Service) ProcessWebhook(ctx context.Context, teamID int64, payload Payload) (Result, error) {
	integration, err := s.integrations.GetIntegrationByTeamID(ctx, teamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, ErrIntegrationNotFound
		}
		return Result{}, fmt.Errorf("loading integration: %w", err)
	}
	if integration.Status != models.IntegrationActive {
		return Result{}, ErrIntegrationInactive
	}
	if !integration.InboundEnabled {
		return Result{}, ErrInboundDisabled
	}

	if !VerifySignature(integration.SigningKey, payload.Timestamp, payload.Token, payload.Signature) {
		return Result{}, ErrInvalidSignature
	}

	recipients := splitAddressList(payload.Recipient)
	if len(recipients) == 0 {
		return Result{}, ErrNoRecipients
	}

	headers := foldHeaders(payload.Headers)
	inReplyTo := headers["in-reply-to"]
	references := strings.Fields(headers["references"])
	messageID := chain.NormalizeMessageID(headers["message-id"])
	if messageID == "" {
		// Synthesize once so every recipient copy shares the same id.
		messageID, err = chain.SynthesizeMessageID(payload.From)
		if err != nil {
			return Result{}, err
		}
	}

	body := payload.BodyHTML
	if body == "" {
		body = payload.BodyPlain
	}

	to := splitAddressList(headers["to"])
	cc := splitAddressList(headers["cc"])
	bcc := splitAddressList(headers["bcc"])

	var res Result
	for _, recipient := range recipients {
		chainID, err := s.resolver.Resolve(ctx, inReplyTo, references)
		if err != nil {
			slog.Error("inbound: failed to resolve chain",
				"team_id", teamID, "recipient", recipient, "error", err)
			res.Failed++
			continue
		}

		if _, err := s.chains.Append(ctx, chainID, models.MessageCreateParams{
			TeamID:     teamID,
			MessageID:  messageID,
			InReplyTo:  inReplyTo,
			References: references,
			From:       payload.From,
			To:         to,
			Cc:         cc,
			Bcc:        bcc,
			Recipient:  strings.ToLower(recipient),
			Subject:    payload.Subject,
			Body:       body,
			Summary:    Summarize(body),
			Direction:  models.DirectionIncoming,
			IsRead:     false,
		}); err != nil {
			slog.Error("inbound: failed to persist message",
				"team_id", teamID, "recipient", recipient, "chain_id", chainID, "error", err)
			res.Failed++
			continue
		}
		res.Accepted++
	}

	return res, nil
}

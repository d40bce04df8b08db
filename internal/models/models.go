package models

import (
	"time"

	"github.com/google/uuid"
)

// Direction says which way a message travelled relative to the team mailbox.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// AddressStatus is the lifecycle state of a team mailbox address.
type AddressStatus string

const (
	AddressActive   AddressStatus = "active"
	AddressPending  AddressStatus = "pending"
	AddressDisabled AddressStatus = "disabled"
)

// IntegrationStatus is the health state of a team's mail integration.
type IntegrationStatus string

const (
	IntegrationActive IntegrationStatus = "active"
	IntegrationFailed IntegrationStatus = "failed"
)

// Message is one delivered copy of an email. The inbound fan-out persists one
// row per addressed team mailbox, so copies of the same email share MessageID
// but differ by Recipient.
type Message struct {
	ID              int64     `json:"id"`
	PublicID        uuid.UUID `json:"public_id"`
	TeamID          int64     `json:"team_id"`
	MessageID       string    `json:"message_id"`
	ChainID         string    `json:"chain_id"`
	IsLatestInChain bool      `json:"is_latest_in_chain"`
	InReplyTo       string    `json:"in_reply_to,omitempty"`
	References      []string  `json:"references,omitempty"`
	From            string    `json:"from"`
	To              []string  `json:"to"`
	Cc              []string  `json:"cc,omitempty"`
	Bcc             []string  `json:"bcc,omitempty"`
	Recipient       string    `json:"recipient"`
	Subject         string    `json:"subject"`
	Body            string    `json:"body"`
	Summary         string    `json:"summary"`
	Direction       Direction `json:"direction"`
	IsRead          bool      `json:"is_read"`
	IsStarred       bool      `json:"is_starred"`
	CreatedAt       time.Time `json:"created_at"`
	LastMessageAt   time.Time `json:"last_message_at"`
}

type MessageCreateParams struct {
	TeamID        int64
	MessageID     string
	ChainID       string
	InReplyTo     string
	References    []string
	From          string
	To            []string
	Cc            []string
	Bcc           []string
	Recipient     string
	Subject       string
	Body          string
	Summary       string
	Direction     Direction
	IsRead        bool
	LastMessageAt time.Time
}

// MailboxAddress is a team mailbox address assigned to a team member.
// Administered outside this service; the core reads it for ownership checks.
type MailboxAddress struct {
	ID           int64
	TeamID       int64
	TeamMemberID int64
	LocalPart    string
	DomainID     int64
	DomainName   string
	DisplayName  string
	IsDefault    bool
	Status       AddressStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Address returns the fully-qualified form, local part at domain.
func (a MailboxAddress) Address() string {
	return a.LocalPart + "@" + a.DomainName
}

// Integration carries the per-team mail provider configuration. The core
// never mutates it; it reads it to authenticate webhook deliveries and API
// calls and to gate inbound/outbound processing.
type Integration struct {
	ID              int64
	TeamID          int64
	APIKeyHash      string
	SigningKey      string
	InboundEnabled  bool
	OutboundEnabled bool
	Status          IntegrationStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ConversationQuery filters the one-row-per-chain conversation listing.
type ConversationQuery struct {
	Search    string
	IsRead    *bool
	IsStarred *bool
	Page      int
	Limit     int
}

// ConversationSummary pairs the latest message of a chain with the minimal
// conversation descriptor. No separate conversation entity exists; the
// conversation is synthesized from its latest message.
type ConversationSummary struct {
	ChainID string  `json:"chain_id"`
	Subject string  `json:"subject"`
	Message Message `json:"message"`
}

// ConversationPage is an offset-paginated listing result.
type ConversationPage struct {
	Conversations []ConversationSummary `json:"conversations"`
	TotalDocs     int                   `json:"total_docs"`
	TotalPages    int                   `json:"total_pages"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
	HasNextPage   bool                  `json:"has_next_page"`
	HasPrevPage   bool                  `json:"has_prev_page"`
}

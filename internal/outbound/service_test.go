package outbound

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hivedesk/hivedesk/internal/chain"
	"github.com/hivedesk/hivedesk/internal/inbound"
	"github.com/hivedesk/hivedesk/internal/models"
)

// --- Mocks ---

type mockMessageStore struct {
	messages []*models.Message
	nextID   int64
}

func newMockMessageStore() *mockMessageStore {
	return &mockMessageStore{nextID: 1}
}

func (m *mockMessageStore) CreateMessage(_ context.Context, params models.MessageCreateParams) (*models.Message, error) {
	msg := &models.Message{
		ID:              m.nextID,
		PublicID:        uuid.New(),
		TeamID:          params.TeamID,
		MessageID:       params.MessageID,
		ChainID:         params.ChainID,
		IsLatestInChain: true,
		InReplyTo:       params.InReplyTo,
		From:            params.From,
		To:              params.To,
		Recipient:       params.Recipient,
		Subject:         params.Subject,
		Body:            params.Body,
		Summary:         params.Summary,
		Direction:       params.Direction,
		IsRead:          params.IsRead,
		CreatedAt:       time.Now(),
		LastMessageAt:   params.LastMessageAt,
	}
	m.nextID++
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *mockMessageStore) GetMessageByMessageID(_ context.Context, messageID string) (*models.Message, error) {
	for _, msg := range m.messages {
		if msg.MessageID == messageID {
			return msg, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockMessageStore) GetMessagesByChainID(_ context.Context, chainID string) ([]models.Message, error) {
	var out []models.Message
	for _, msg := range m.messages {
		if msg.ChainID == chainID {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (m *mockMessageStore) ClearLatestInChain(_ context.Context, chainID string) error {
	for _, msg := range m.messages {
		if msg.ChainID == chainID {
			msg.IsLatestInChain = false
		}
	}
	return nil
}

func (m *mockMessageStore) FindLatestByRecipient(_ context.Context, _ int64, _ string, _ models.ConversationQuery) ([]models.Message, error) {
	return nil, nil
}

func (m *mockMessageStore) CountLatestByRecipient(_ context.Context, _ int64, _ string, _ models.ConversationQuery) (int, error) {
	return 0, nil
}

func (m *mockMessageStore) ChainInvolvesAddresses(_ context.Context, _ int64, _ string, _ []string) (bool, error) {
	return false, nil
}

func (m *mockMessageStore) MarkMessageRead(_ context.Context, _, _ int64) error { return nil }

func (m *mockMessageStore) SetMessageStarred(_ context.Context, _, _ int64, _ bool) error {
	return nil
}

type mockIntegrationStore struct {
	integration *models.Integration
}

func (m *mockIntegrationStore) GetIntegrationByTeamID(_ context.Context, _ int64) (*models.Integration, error) {
	if m.integration == nil {
		return nil, sql.ErrNoRows
	}
	return m.integration, nil
}

type mockOwnership struct {
	owned []string
}

func (m *mockOwnership) Owns(_ context.Context, _, _ int64, address string) (bool, error) {
	for _, a := range m.owned {
		if a == address {
			return true, nil
		}
	}
	return false, nil
}

type mockSender struct {
	calls int
	from  string
	to    []string
	err   error
}

func (m *mockSender) Send(_ context.Context, from string, to []string, _, _ string) error {
	m.calls++
	m.from = from
	m.to = to
	return m.err
}

// --- Helpers ---

type testEnv struct {
	svc    *Service
	store  *mockMessageStore
	sender *mockSender
}

func newTestEnv(integration *models.Integration, owned []string, senderErr error) testEnv {
	ms := newMockMessageStore()
	sender := &mockSender{err: senderErr}
	svc := NewService(
		&mockIntegrationStore{integration: integration},
		chain.NewResolver(ms),
		chain.NewService(ms),
		&mockOwnership{owned: owned},
		sender,
	)
	return testEnv{svc: svc, store: ms, sender: sender}
}

func activeIntegration() *models.Integration {
	return &models.Integration{
		ID:              1,
		TeamID:          1,
		InboundEnabled:  true,
		OutboundEnabled: true,
		Status:          models.IntegrationActive,
	}
}

func validInput() SendInput {
	return SendInput{
		From:    "alice@team.com",
		To:      []string{"bob@outside.com"},
		Subject: "Re: the numbers",
		HTML:    "<p>Looks good to me.</p>",
	}
}

// --- Tests ---

func TestSend_ValidationFailurePersistsNothing(t *testing.T) {
	env := newTestEnv(activeIntegration(), []string{"alice@team.com"}, nil)

	cases := []struct {
		name  string
		input SendInput
	}{
		{"missing from", SendInput{To: []string{"bob@x.com"}, Subject: "s", HTML: "b"}},
		{"malformed from", SendInput{From: "not-an-address", To: []string{"bob@x.com"}, Subject: "s", HTML: "b"}},
		{"empty to", SendInput{From: "alice@team.com", Subject: "s", HTML: "b"}},
		{"missing subject", SendInput{From: "alice@team.com", To: []string{"bob@x.com"}, HTML: "b"}},
		{"missing body", SendInput{From: "alice@team.com", To: []string{"bob@x.com"}, Subject: "s"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Send(context.Background(), 1, 2, tc.input)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}

	if len(env.store.messages) != 0 {
		t.Errorf("expected no persisted messages, got %d", len(env.store.messages))
	}
	if env.sender.calls != 0 {
		t.Errorf("expected no transport calls, got %d", env.sender.calls)
	}
}

func TestSend_IntegrationNotFound(t *testing.T) {
	env := newTestEnv(nil, []string{"alice@team.com"}, nil)

	_, err := env.svc.Send(context.Background(), 1, 2, validInput())
	if !errors.Is(err, inbound.ErrIntegrationNotFound) {
		t.Fatalf("expected ErrIntegrationNotFound, got %v", err)
	}
}

func TestSend_OutboundDisabled(t *testing.T) {
	integration := activeIntegration()
	integration.OutboundEnabled = false
	env := newTestEnv(integration, []string{"alice@team.com"}, nil)

	_, err := env.svc.Send(context.Background(), 1, 2, validInput())
	if !errors.Is(err, ErrOutboundDisabled) {
		t.Fatalf("expected ErrOutboundDisabled, got %v", err)
	}
	if len(env.store.messages) != 0 {
		t.Error("expected nothing persisted")
	}
}

func TestSend_ForbiddenForUnownedSender(t *testing.T) {
	env := newTestEnv(activeIntegration(), []string{"someone-else@team.com"}, nil)

	_, err := env.svc.Send(context.Background(), 1, 2, validInput())
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSend_PersistsOutgoingAndDelivers(t *testing.T) {
	env := newTestEnv(activeIntegration(), []string{"alice@team.com"}, nil)

	msg, err := env.svc.Send(context.Background(), 1, 2, validInput())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if msg.Direction != models.DirectionOutgoing {
		t.Errorf("expected outgoing direction, got %q", msg.Direction)
	}
	if !msg.IsRead {
		t.Error("expected outgoing message to start read")
	}
	if msg.Recipient != "alice@team.com" {
		t.Errorf("expected sender address as owning recipient, got %q", msg.Recipient)
	}
	if msg.MessageID == "" {
		t.Error("expected a synthesized message id")
	}
	if msg.Summary != "Looks good to me." {
		t.Errorf("expected tag-stripped summary, got %q", msg.Summary)
	}
	if env.sender.calls != 1 || env.sender.from != "alice@team.com" {
		t.Errorf("expected one delivery from alice@team.com, got %d from %q", env.sender.calls, env.sender.from)
	}
}

func TestSend_ReplyThreadsIntoExistingChain(t *testing.T) {
	env := newTestEnv(activeIntegration(), []string{"alice@team.com"}, nil)

	seed, err := env.store.CreateMessage(context.Background(), models.MessageCreateParams{
		TeamID:    1,
		MessageID: "m1@outside.com",
		ChainID:   "chain-1",
	})
	if err != nil {
		t.Fatalf("seeding message: %v", err)
	}

	input := validInput()
	input.InReplyTo = "<m1@outside.com>"

	msg, err := env.svc.Send(context.Background(), 1, 2, input)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if msg.ChainID != "chain-1" {
		t.Errorf("expected reply in chain-1, got %q", msg.ChainID)
	}

	if seedRow, _ := env.store.GetMessageByMessageID(context.Background(), seed.MessageID); seedRow.IsLatestInChain {
		t.Error("expected the prior message to lose the latest marker")
	}
	if !msg.IsLatestInChain {
		t.Error("expected the reply to carry the latest marker")
	}
}

func TestSend_TransportFailureKeepsPersistedMessage(t *testing.T) {
	env := newTestEnv(activeIntegration(), []string{"alice@team.com"}, errors.New("smtp refused"))

	msg, err := env.svc.Send(context.Background(), 1, 2, validInput())
	if err == nil {
		t.Fatal("expected a transport error")
	}
	if msg == nil {
		t.Fatal("expected the persisted message alongside the error")
	}
	if len(env.store.messages) != 1 {
		t.Errorf("expected 1 persisted message, got %d", len(env.store.messages))
	}
}

package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/store"
)

var ErrChainIDRequired = errors.New("chain id is required")

// Service appends messages to chains and maintains the denormalized
// latest-in-chain marker that backs the one-row-per-thread inbox listing.
type Service struct {
	messages store.MessageStore
	locks    *chainLocks
}

func NewService(messages store.MessageStore) *Service {
	return &Service{
		messages: messages,
		locks:    newChainLocks(),
	}
}

// Append inserts a message into the chain and repoints the latest-in-chain
// marker to it. The clear-then-insert pair is not atomic at the store level,
// so appends for the same chain are serialized through a per-chain lock to
// keep exactly one latest row per chain under concurrent delivery.
func (s *Service) Append(ctx context.Context, chainID string, params models.MessageCreateParams) (*models.Message, error) {
	if chainID == "" {
		return nil, ErrChainIDRequired
	}

	params.ChainID = chainID
	params.InReplyTo = NormalizeMessageID(params.InReplyTo)
	if params.MessageID = NormalizeMessageID(params.MessageID); params.MessageID == "" {
		id, err := SynthesizeMessageID(params.From)
		if err != nil {
			return nil, err
		}
		params.MessageID = id
	}
	if params.LastMessageAt.IsZero() {
		params.LastMessageAt = time.Now().UTC()
	}

	unlock := s.locks.lock(chainID)
	defer unlock()

	if err := s.messages.ClearLatestInChain(ctx, chainID); err != nil {
		return nil, fmt.Errorf("clearing latest in chain %s: %w", chainID, err)
	}

	msg, err := s.messages.CreateMessage(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("creating message in chain %s: %w", chainID, err)
	}
	return msg, nil
}

// chainLocks hands out one mutex per live chain id and drops entries once the
// last holder releases, so the map stays bounded by in-flight appends.
type chainLocks struct {
	mu     sync.Mutex
	chains map[string]*chainLock
}

type chainLock struct {
	mu   sync.Mutex
	refs int
}

func newChainLocks() *chainLocks {
	return &chainLocks{chains: make(map[string]*chainLock)}
}

func (l *chainLocks) lock(chainID string) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.chains[chainID]
	if !ok {
		entry = &chainLock{}
		l.chains[chainID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.chains, chainID)
		}
		l.mu.Unlock()
	}
}

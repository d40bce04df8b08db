package chain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hivedesk/hivedesk/internal/store"
)

// Resolver places a reply into an existing chain from its reply headers, or
// mints a fresh chain id for messages that start a new thread.
type Resolver struct {
	messages store.MessageStore
}

func NewResolver(messages store.MessageStore) *Resolver {
	return &Resolver{messages: messages}
}

// Resolve returns the chain id a message with the given reply metadata
// belongs to. The In-Reply-To id is tried first, then the References list
// newest to oldest. Unresolvable reply metadata deliberately falls back to a
// new chain: a reply whose ancestors were never delivered here becomes its
// own thread instead of failing the delivery.
func (r *Resolver) Resolve(ctx context.Context, inReplyTo string, references []string) (string, error) {
	if id := NormalizeMessageID(inReplyTo); id != "" {
		chainID, err := r.lookup(ctx, id)
		if err != nil {
			return "", err
		}
		if chainID != "" {
			return chainID, nil
		}
	}

	for i := len(references) - 1; i >= 0; i-- {
		id := NormalizeMessageID(references[i])
		if id == "" {
			continue
		}
		chainID, err := r.lookup(ctx, id)
		if err != nil {
			return "", err
		}
		if chainID != "" {
			return chainID, nil
		}
	}

	return NewChainID()
}

func (r *Resolver) lookup(ctx context.Context, messageID string) (string, error) {
	msg, err := r.messages.GetMessageByMessageID(ctx, messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("looking up message %q: %w", messageID, err)
	}
	return msg.ChainID, nil
}

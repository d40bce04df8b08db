package chain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// NewChainID generates an opaque 36-character hex chain identifier.
func NewChainID() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate chain id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NormalizeMessageID strips whitespace and the RFC 5322 angle brackets from a
// message id so that stored ids and reply headers compare equal.
func NormalizeMessageID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "<")
	id = strings.TrimSuffix(id, ">")
	return id
}

// SynthesizeMessageID builds a message id for payloads that did not carry
// one. The timestamp plus random token makes collisions vanishingly unlikely.
func SynthesizeMessageID(from string) (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate message id: %w", err)
	}
	return fmt.Sprintf("%d.%s@%s", time.Now().UnixNano(), hex.EncodeToString(b), senderDomain(from)), nil
}

func senderDomain(from string) string {
	addr := strings.TrimSpace(from)
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		addr = strings.TrimSuffix(addr[i+1:], ">")
	}
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return strings.ToLower(strings.TrimSpace(addr[i+1:]))
	}
	return "localhost"
}

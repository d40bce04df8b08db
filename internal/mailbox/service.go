package mailbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/store"
)

// Service answers which mailbox addresses a team member is authorized to use.
type Service struct {
	addresses store.MailboxAddressStore
}

func NewService(addresses store.MailboxAddressStore) *Service {
	return &Service{addresses: addresses}
}

// OwnedAddresses returns the fully-qualified addresses assigned to the
// member. Disabled addresses are excluded. A member with zero addresses is a
// valid result, not an error.
func (s *Service) OwnedAddresses(ctx context.Context, teamID, memberID int64) ([]string, error) {
	records, err := s.addresses.ListAddressesByMember(ctx, teamID, memberID)
	if err != nil {
		return nil, fmt.Errorf("listing member addresses: %w", err)
	}

	owned := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Status == models.AddressDisabled {
			continue
		}
		owned = append(owned, strings.ToLower(rec.Address()))
	}
	return owned, nil
}

// Owns reports whether the member is assigned the given address.
func (s *Service) Owns(ctx context.Context, teamID, memberID int64, address string) (bool, error) {
	owned, err := s.OwnedAddresses(ctx, teamID, memberID)
	if err != nil {
		return false, err
	}

	address = strings.ToLower(strings.TrimSpace(address))
	for _, a := range owned {
		if a == address {
			return true, nil
		}
	}
	return false, nil
}

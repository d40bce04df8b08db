package mailbox

import (
	"context"
	"errors"
	"testing"

	"github.com/hivedesk/hivedesk/internal/models"
)

type mockAddressStore struct {
	addresses []models.MailboxAddress
	err       error
}

func (m *mockAddressStore) ListAddressesByMember(_ context.Context, _, _ int64) ([]models.MailboxAddress, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.addresses, nil
}

func addr(local, domain string, status models.AddressStatus) models.MailboxAddress {
	return models.MailboxAddress{
		LocalPart:  local,
		DomainName: domain,
		Status:     status,
	}
}

func TestOwnedAddresses_ExcludesDisabled(t *testing.T) {
	svc := NewService(&mockAddressStore{addresses: []models.MailboxAddress{
		addr("alice", "team.com", models.AddressActive),
		addr("old-alias", "team.com", models.AddressDisabled),
		addr("alice", "other.com", models.AddressPending),
	}})

	owned, err := svc.OwnedAddresses(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(owned) != 2 {
		t.Fatalf("expected 2 owned addresses, got %v", owned)
	}
	for _, a := range owned {
		if a == "old-alias@team.com" {
			t.Error("expected disabled address to be excluded")
		}
	}
}

func TestOwnedAddresses_LowercasesResults(t *testing.T) {
	svc := NewService(&mockAddressStore{addresses: []models.MailboxAddress{
		addr("Alice", "Team.COM", models.AddressActive),
	}})

	owned, err := svc.OwnedAddresses(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(owned) != 1 || owned[0] != "alice@team.com" {
		t.Errorf("expected lowercased address, got %v", owned)
	}
}

func TestOwnedAddresses_EmptyIsValid(t *testing.T) {
	svc := NewService(&mockAddressStore{})

	owned, err := svc.OwnedAddresses(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(owned) != 0 {
		t.Errorf("expected no addresses, got %v", owned)
	}
}

func TestOwns_CaseInsensitive(t *testing.T) {
	svc := NewService(&mockAddressStore{addresses: []models.MailboxAddress{
		addr("alice", "team.com", models.AddressActive),
	}})

	owns, err := svc.Owns(context.Background(), 1, 2, "  Alice@TEAM.com ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !owns {
		t.Error("expected ownership check to ignore case and surrounding space")
	}
}

func TestOwns_UnassignedAddress(t *testing.T) {
	svc := NewService(&mockAddressStore{addresses: []models.MailboxAddress{
		addr("alice", "team.com", models.AddressActive),
	}})

	owns, err := svc.Owns(context.Background(), 1, 2, "bob@team.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if owns {
		t.Error("expected address not assigned to the member to be rejected")
	}
}

func TestOwns_PropagatesStoreError(t *testing.T) {
	storeErr := errors.New("db down")
	svc := NewService(&mockAddressStore{err: storeErr})

	if _, err := svc.Owns(context.Background(), 1, 2, "alice@team.com"); !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

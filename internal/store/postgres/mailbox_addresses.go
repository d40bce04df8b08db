package postgres

import (
	"context"
	"database/sql"

	"github.com/hivedesk/hivedesk/internal/models"
)

type MailboxAddressStore struct {
	db *sql.DB
}

func NewMailboxAddressStore(db *sql.DB) *MailboxAddressStore {
	return &MailboxAddressStore{db: db}
}

func (s *MailboxAddressStore) ListAddressesByMember(ctx context.Context, teamID, memberID int64) ([]models.MailboxAddress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.team_id, a.team_member_id, a.local_part, a.domain_id, d.name,
		        a.display_name, a.is_default, a.status, a.created_at, a.updated_at
		 FROM mailbox_addresses a
		 JOIN mail_domains d ON d.id = a.domain_id
		 WHERE a.team_id = $1 AND a.team_member_id = $2
		 ORDER BY a.is_default DESC, a.created_at ASC`,
		teamID, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addrs []models.MailboxAddress
	for rows.Next() {
		var a models.MailboxAddress
		if err := rows.Scan(
			&a.ID, &a.TeamID, &a.TeamMemberID, &a.LocalPart, &a.DomainID, &a.DomainName,
			&a.DisplayName, &a.IsDefault, &a.Status, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}
	return addrs, rows.Err()
}

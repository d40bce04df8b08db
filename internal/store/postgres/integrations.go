package postgres

import (
	"context"
	"database/sql"

	"github.com/hivedesk/hivedesk/internal/models"
)

type IntegrationStore struct {
	db *sql.DB
}

func NewIntegrationStore(db *sql.DB) *IntegrationStore {
	return &IntegrationStore{db: db}
}

func (s *IntegrationStore) GetIntegrationByTeamID(ctx context.Context, teamID int64) (*models.Integration, error) {
	i := &models.Integration{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, team_id, api_key_hash, signing_key, inbound_enabled, outbound_enabled,
		        status, created_at, updated_at
		 FROM inbound_integrations WHERE team_id = $1`,
		teamID,
	).Scan(&i.ID, &i.TeamID, &i.APIKeyHash, &i.SigningKey, &i.InboundEnabled,
		&i.OutboundEnabled, &i.Status, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return i, nil
}

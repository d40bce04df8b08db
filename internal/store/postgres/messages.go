package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hivedesk/hivedesk/internal/models"
)

type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

const messageColumns = `id, public_id, team_id, message_id, chain_id, is_latest_in_chain,
	 in_reply_to, references_list, from_address, to_addresses, cc_addresses, bcc_addresses,
	 recipient, subject, body, summary, direction, is_read, is_starred, created_at, last_message_at`

func (s *MessageStore) CreateMessage(ctx context.Context, params models.MessageCreateParams) (*models.Message, error) {
	m := &models.Message{
		PublicID:        uuid.New(),
		TeamID:          params.TeamID,
		MessageID:       params.MessageID,
		ChainID:         params.ChainID,
		IsLatestInChain: true,
		InReplyTo:       params.InReplyTo,
		References:      params.References,
		From:            params.From,
		To:              params.To,
		Cc:              params.Cc,
		Bcc:             params.Bcc,
		Recipient:       params.Recipient,
		Subject:         params.Subject,
		Body:            params.Body,
		Summary:         params.Summary,
		Direction:       params.Direction,
		IsRead:          params.IsRead,
		LastMessageAt:   params.LastMessageAt,
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO messages
		 (public_id, team_id, message_id, chain_id, is_latest_in_chain, in_reply_to, references_list,
		  from_address, to_addresses, cc_addresses, bcc_addresses, recipient, subject, body, summary,
		  direction, is_read, last_message_at)
		 VALUES ($1, $2, $3, $4, TRUE, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 RETURNING id, is_starred, created_at`,
		m.PublicID, m.TeamID, m.MessageID, m.ChainID, m.InReplyTo, pq.Array(m.References),
		m.From, pq.Array(m.To), pq.Array(m.Cc), pq.Array(m.Bcc), m.Recipient, m.Subject,
		m.Body, m.Summary, string(m.Direction), m.IsRead, m.LastMessageAt,
	).Scan(&m.ID, &m.IsStarred, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MessageStore) GetMessageByMessageID(ctx context.Context, messageID string) (*models.Message, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+`
		 FROM messages WHERE message_id = $1
		 ORDER BY created_at ASC LIMIT 1`,
		messageID,
	)
	return scanMessage(row)
}

func (s *MessageStore) GetMessagesByChainID(ctx context.Context, chainID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageColumns+`
		 FROM messages WHERE chain_id = $1
		 ORDER BY created_at ASC`,
		chainID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]models.Message, 0, 8)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

func (s *MessageStore) ClearLatestInChain(ctx context.Context, chainID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE messages SET is_latest_in_chain = FALSE
		 WHERE chain_id = $1 AND is_latest_in_chain = TRUE`,
		chainID)
	return err
}

func (s *MessageStore) FindLatestByRecipient(ctx context.Context, teamID int64, recipient string, query models.ConversationQuery) ([]models.Message, error) {
	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := query.Page
	if page < 1 {
		page = 1
	}

	var (
		sb   strings.Builder
		args []interface{}
	)
	sb.WriteString(
		`SELECT ` + messageColumns + `
		 FROM messages
		 WHERE team_id = $1 AND recipient = $2 AND is_latest_in_chain = TRUE`,
	)
	args = append(args, teamID, recipient)
	appendConversationFilters(&sb, &args, query)

	args = append(args, limit, (page-1)*limit)
	sb.WriteString(" ORDER BY last_message_at DESC LIMIT $" + itoa(len(args)-1) + " OFFSET $" + itoa(len(args)))

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]models.Message, 0, limit)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

func (s *MessageStore) CountLatestByRecipient(ctx context.Context, teamID int64, recipient string, query models.ConversationQuery) (int, error) {
	var (
		sb   strings.Builder
		args []interface{}
	)
	sb.WriteString(
		`SELECT COUNT(*) FROM messages
		 WHERE team_id = $1 AND recipient = $2 AND is_latest_in_chain = TRUE`,
	)
	args = append(args, teamID, recipient)
	appendConversationFilters(&sb, &args, query)

	var count int
	err := s.db.QueryRowContext(ctx, sb.String(), args...).Scan(&count)
	return count, err
}

func (s *MessageStore) ChainInvolvesAddresses(ctx context.Context, teamID int64, chainID string, addresses []string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM messages
		   WHERE team_id = $1 AND chain_id = $2
		     AND (recipient = ANY($3) OR from_address = ANY($3) OR to_addresses && $3)
		 )`,
		teamID, chainID, pq.Array(addresses),
	).Scan(&exists)
	return exists, err
}

func (s *MessageStore) MarkMessageRead(ctx context.Context, teamID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET is_read = TRUE WHERE team_id = $1 AND id = $2`,
		teamID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *MessageStore) SetMessageStarred(ctx context.Context, teamID, id int64, starred bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET is_starred = $3 WHERE team_id = $1 AND id = $2`,
		teamID, id, starred)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func appendConversationFilters(sb *strings.Builder, args *[]interface{}, query models.ConversationQuery) {
	if q := strings.TrimSpace(query.Search); q != "" {
		*args = append(*args, "%"+q+"%")
		sb.WriteString(" AND (subject ILIKE $" + itoa(len(*args)) + " OR summary ILIKE $" + itoa(len(*args)) + ")")
	}
	if query.IsRead != nil {
		*args = append(*args, *query.IsRead)
		sb.WriteString(" AND is_read = $" + itoa(len(*args)))
	}
	if query.IsStarred != nil {
		*args = append(*args, *query.IsStarred)
		sb.WriteString(" AND is_starred = $" + itoa(len(*args)))
	}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(scanner rowScanner) (*models.Message, error) {
	var m models.Message
	if err := scanner.Scan(
		&m.ID, &m.PublicID, &m.TeamID, &m.MessageID, &m.ChainID, &m.IsLatestInChain,
		&m.InReplyTo, pq.Array(&m.References), &m.From, pq.Array(&m.To), pq.Array(&m.Cc),
		pq.Array(&m.Bcc), &m.Recipient, &m.Subject, &m.Body, &m.Summary,
		&m.Direction, &m.IsRead, &m.IsStarred, &m.CreatedAt, &m.LastMessageAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

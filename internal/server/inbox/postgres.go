package inbox

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophshare/internal/dbx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, recipient string, m Message) (Message, error) {
	m = prepare(recipient, m)

	query :=
		`INSERT INTO messages (id, recipient, kind, sender, content, created_at, read)
		 VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		`

	_, err := s.db.ExecContext(ctx, query, m.ID, m.Recipient, string(m.Kind), m.From, m.Content, m.CreatedAt)
	if err != nil {
		return Message{}, fmt.Errorf("db error: %w", err)
	}

	return m, nil
}

func (s *PostgresStore) ListUnread(ctx context.Context, recipient string) ([]Message, error) {
	return s.list(ctx, recipient, false)
}

func (s *PostgresStore) ListRead(ctx context.Context, recipient string) ([]Message, error) {
	return s.list(ctx, recipient, true)
}

func (s *PostgresStore) list(ctx context.Context, recipient string, read bool) ([]Message, error) {
	query :=
		`SELECT id, recipient, kind, sender, content, created_at, read FROM messages
		 WHERE recipient = $1 AND read = $2
		 ORDER BY seq
		`

	rows, err := s.db.QueryContext(ctx, query, recipient, read)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var kind string
		if err := rows.Scan(&m.ID, &m.Recipient, &kind, &m.From, &m.Content, &m.CreatedAt, &m.Read); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		m.Kind = Kind(kind)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

// MarkRead flags all ids in one transaction.
func (s *PostgresStore) MarkRead(ctx context.Context, recipient string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, id := range ids {
			_, err := tx.ExecContext(ctx,
				`UPDATE messages SET read = TRUE WHERE recipient = $1 AND id = $2`, recipient, id)
			if err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) UnreadCount(ctx context.Context, recipient string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE recipient = $1 AND read = FALSE`, recipient).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

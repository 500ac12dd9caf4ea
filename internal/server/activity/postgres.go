package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophshare/internal/dbx"
)

type PostgresLog struct {
	db dbx.DBTX
}

func NewPostgresLog(db dbx.DBTX) *PostgresLog {
	return &PostgresLog{db: db}
}

func (l *PostgresLog) Append(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	query :=
		`INSERT INTO activities (username, file_name, kind, description, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		`

	_, err := l.db.ExecContext(ctx, query, e.User, e.FileName, string(e.Kind), e.Description, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (l *PostgresLog) List(ctx context.Context, user string) ([]Entry, error) {
	query :=
		`SELECT username, file_name, kind, description, created_at FROM activities
		 WHERE username = $1
		 ORDER BY id
		`
	rows, err := l.db.QueryContext(ctx, query, user)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanEntries(rows)
}

func (l *PostgresLog) ListKind(ctx context.Context, user string, kind Kind) ([]Entry, error) {
	query :=
		`SELECT username, file_name, kind, description, created_at FROM activities
		 WHERE username = $1 AND kind = $2
		 ORDER BY id
		`
	rows, err := l.db.QueryContext(ctx, query, user, string(kind))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.User, &e.FileName, &kind, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		e.Kind = Kind(kind)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

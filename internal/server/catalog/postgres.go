package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophshare/internal/dbx"
)

// PostgresPersister keeps records in the files table. The ord column fixes
// the listing order; a replacement inherits the ord of the row it drops.
type PostgresPersister struct {
	db *sql.DB
}

func NewPostgresPersister(db *sql.DB) *PostgresPersister {
	return &PostgresPersister{db: db}
}

func (p *PostgresPersister) Load(ctx context.Context) ([]FileRecord, error) {
	query :=
		`SELECT id, owner, name, size, public, checksum, created_at FROM files
		 ORDER BY ord
		`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var r FileRecord
		if err := rows.Scan(&r.ID, &r.Owner, &r.Name, &r.Size, &r.Public, &r.Checksum, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

func (p *PostgresPersister) Replace(ctx context.Context, stale *FileRecord, rec FileRecord) error {
	return dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var ord sql.NullInt64

		if stale != nil {
			err := tx.QueryRowContext(ctx,
				`DELETE FROM files WHERE id = $1 RETURNING ord`, stale.ID).Scan(&ord)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("db error: %w", err)
			}
		}

		query :=
			`INSERT INTO files (id, owner, name, size, public, checksum, created_at, ord)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, nextval('files_ord_seq')))
			`

		_, err := tx.ExecContext(ctx, query,
			rec.ID, rec.Owner, rec.Name, rec.Size, rec.Public, rec.Checksum, rec.CreatedAt, ord)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		return nil
	})
}

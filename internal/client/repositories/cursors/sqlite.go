package cursors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/facelock/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, itemID string) (*Cursor, error) {
	c := Cursor{ItemID: itemID}
	err := r.db.QueryRowContext(ctx,
		`SELECT seq, state, updated_at FROM cursors WHERE item_id = ?`, itemID).
		Scan(&c.Seq, &c.State, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cursor[%s]: %w", itemID, err)
	}
	return &c, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, c Cursor) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cursors (item_id, seq, state, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			seq = excluded.seq, state = excluded.state, updated_at = excluded.updated_at
	`, c.ItemID, c.Seq, c.State, c.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save cursor[%s]: %w", c.ItemID, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]Cursor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT item_id, seq, state, updated_at FROM cursors ORDER BY updated_at DESC, item_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cursors: %w", err)
	}
	defer rows.Close()

	var result []Cursor
	for rows.Next() {
		var c Cursor
		if err := rows.Scan(&c.ItemID, &c.Seq, &c.State, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cursor row: %w", err)
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cursor rows: %w", err)
	}

	return result, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const upsertRecord = `
	INSERT INTO records (kind, owner, name, data)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(kind, owner, name) DO UPDATE SET
		data = excluded.data,
		revision = revision + 1
`

// Put creates or replaces a record. Replacing bumps the record's revision.
func (s *Store) Put(ctx context.Context, kind Kind, owner uuid.UUID, name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("put %s %s: %w", kind, owner, ErrNameRequired)
	}
	_, err := s.db.ExecContext(ctx, upsertRecord,
		string(kind),
		owner.String(),
		name,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("put %s %s/%s: %w", kind, owner, name, err)
	}
	return nil
}

// PutBatch writes every record inside one transaction.
func (s *Store) PutBatch(ctx context.Context, writes []Write) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put batch: begin: %w", err)
	}
	defer tx.Rollback()

	if err := putAll(ctx, tx, writes); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put batch: commit: %w", err)
	}
	return nil
}

func putAll(ctx context.Context, tx *sql.Tx, writes []Write) error {
	for _, w := range writes {
		if w.Name == "" {
			return fmt.Errorf("put batch %s %s: %w", w.Kind, w.Owner, ErrNameRequired)
		}
		if _, err := tx.ExecContext(ctx, upsertRecord,
			string(w.Kind), w.Owner.String(), w.Name, string(w.Data),
		); err != nil {
			return fmt.Errorf("put batch %s %s/%s: %w", w.Kind, w.Owner, w.Name, err)
		}
	}
	return nil
}

// Delete removes a record and reports whether it existed.
func (s *Store) Delete(ctx context.Context, kind Kind, owner uuid.UUID, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE kind = ? AND owner = ? AND name = ?`,
		string(kind), owner.String(), name,
	)
	if err != nil {
		return false, fmt.Errorf("delete %s %s/%s: %w", kind, owner, name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s %s/%s: %w", kind, owner, name, err)
	}
	return n > 0, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Get returns a record's value, or ErrNotFound.
func (s *Store) Get(ctx context.Context, kind Kind, owner uuid.UUID, name string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE kind = ? AND owner = ? AND name = ?`,
		string(kind), owner.String(), name,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s %s/%s: %w", kind, owner, name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s/%s: %w", kind, owner, name, err)
	}
	return []byte(data), nil
}

// List returns the names of an owner's records of one kind.
// Results are ordered by name COLLATE BINARY.
func (s *Store) List(ctx context.Context, kind Kind, owner uuid.UUID) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM records
		WHERE kind = ? AND owner = ?
		ORDER BY name COLLATE BINARY ASC
	`, string(kind), owner.String())
	if err != nil {
		return nil, fmt.Errorf("list %s %s: %w", kind, owner, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list %s %s: scan: %w", kind, owner, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s %s: %w", kind, owner, err)
	}
	return names, nil
}

// Owners returns every owner with at least one record of the kind.
func (s *Store) Owners(ctx context.Context, kind Kind) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT owner FROM records
		WHERE kind = ?
		ORDER BY owner COLLATE BINARY ASC
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("owners %s: %w", kind, err)
	}
	defer rows.Close()

	var owners []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("owners %s: scan: %w", kind, err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("owners %s: parse %q: %w", kind, raw, err)
		}
		owners = append(owners, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("owners %s: %w", kind, err)
	}
	return owners, nil
}

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Records is a typed view of one record kind. Values are stored as JSON.
type Records[T any] struct {
	backend Backend
	kind    Kind
}

// NewRecords returns a typed view of kind over backend.
func NewRecords[T any](backend Backend, kind Kind) *Records[T] {
	return &Records[T]{backend: backend, kind: kind}
}

// Kind returns the record kind.
func (r *Records[T]) Kind() Kind {
	return r.kind
}

// Load decodes a record. Missing records return ErrNotFound.
func (r *Records[T]) Load(ctx context.Context, owner uuid.UUID, name string) (T, error) {
	var v T
	data, err := r.backend.Get(ctx, r.kind, owner, name)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s %s/%s: %w", r.kind, owner, name, err)
	}
	return v, nil
}

// Save encodes and stores a record.
func (r *Records[T]) Save(ctx context.Context, owner uuid.UUID, name string, v T) error {
	data, err := marshalRecord(v)
	if err != nil {
		return fmt.Errorf("encode %s %s/%s: %w", r.kind, owner, name, err)
	}
	return r.backend.Put(ctx, r.kind, owner, name, data)
}

// Write encodes a record for Backend.PutBatch.
func (r *Records[T]) Write(owner uuid.UUID, name string, v T) (Write, error) {
	data, err := marshalRecord(v)
	if err != nil {
		return Write{}, fmt.Errorf("encode %s %s/%s: %w", r.kind, owner, name, err)
	}
	return Write{Kind: r.kind, Owner: owner, Name: name, Data: data}, nil
}

// Delete removes a record and reports whether it existed.
func (r *Records[T]) Delete(ctx context.Context, owner uuid.UUID, name string) (bool, error) {
	return r.backend.Delete(ctx, r.kind, owner, name)
}

// Names lists an owner's record names in ascending order.
func (r *Records[T]) Names(ctx context.Context, owner uuid.UUID) ([]string, error) {
	return r.backend.List(ctx, r.kind, owner)
}

// Owners lists every owner holding a record of this kind.
func (r *Records[T]) Owners(ctx context.Context) ([]uuid.UUID, error) {
	return r.backend.Owners(ctx, r.kind)
}

// Exists reports whether a record is present.
func (r *Records[T]) Exists(ctx context.Context, owner uuid.UUID, name string) (bool, error) {
	_, err := r.backend.Get(ctx, r.kind, owner, name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// marshalRecord encodes v as compact JSON without HTML escaping, so item
// metadata round-trips byte for byte.
func marshalRecord(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Encoder adds a trailing newline, remove it
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

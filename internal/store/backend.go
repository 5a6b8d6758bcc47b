package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get when no record exists.
var ErrNotFound = errors.New("record not found")

// ErrNameRequired is returned for a write without a record name.
var ErrNameRequired = errors.New("record name is required")

// Kind identifies a record family.
type Kind string

const (
	KindShop      Kind = "shop"
	KindVault     Kind = "vault"
	KindSign      Kind = "sign"
	KindPlayer    Kind = "player"
	KindInventory Kind = "inventory"
	KindPlayerID  Kind = "player_id"
)

// Backend is a key-value store for named records.
type Backend interface {
	// Get returns the record value or ErrNotFound.
	Get(ctx context.Context, kind Kind, owner uuid.UUID, name string) ([]byte, error)

	// Put creates or replaces a record.
	Put(ctx context.Context, kind Kind, owner uuid.UUID, name string, data []byte) error

	// PutBatch creates or replaces every record in one transaction. Either
	// all writes are stored or none are.
	PutBatch(ctx context.Context, writes []Write) error

	// Delete removes a record and reports whether it existed.
	Delete(ctx context.Context, kind Kind, owner uuid.UUID, name string) (bool, error)

	// List returns the names of an owner's records of one kind, sorted.
	List(ctx context.Context, kind Kind, owner uuid.UUID) ([]string, error)

	// Owners returns every owner holding at least one record of a kind, sorted.
	Owners(ctx context.Context, kind Kind) ([]uuid.UUID, error)

	Close() error
}

// Write is one record of a batch.
type Write struct {
	Kind  Kind
	Owner uuid.UUID
	Name  string
	Data  []byte
}

// Revisioner is implemented by backends that count writes per record.
type Revisioner interface {
	Revision(ctx context.Context, kind Kind, owner uuid.UUID, name string) (int64, error)
}

// Driver names a Backend implementation.
type Driver string

const (
	DriverSQLite Driver = "sqlite"
	DriverBolt   Driver = "bolt"
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

// OpenDriver opens the backend named by driver at path.
func OpenDriver(driver Driver, path string) (Backend, error) {
	switch driver {
	case DriverSQLite, "":
		return Open(path)
	case DriverBolt:
		return OpenBolt(path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

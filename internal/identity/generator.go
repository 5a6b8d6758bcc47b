package identity

import (
	"github.com/google/uuid"
)

// Generator mints actor identities.
type Generator interface {
	NewID() uuid.UUID
}

// UUIDv7Generator generates time-sortable UUIDv7 identities.
//
// UUIDv7 embeds a timestamp in the most significant bits, so players list in
// registration order when sorted by id.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// NewID creates a new UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// OfflineNamespace scopes placeholder identities for names that have never
// been registered.
var OfflineNamespace = uuid.MustParse("6ba7b812-9dad-11d1-80b4-00c04fd430c8")

// Placeholder returns the deterministic identity for an unknown name. The
// same name always maps to the same id.
func Placeholder(name string) uuid.UUID {
	return uuid.NewSHA1(OfflineNamespace, []byte("OfflinePlayer:"+name))
}

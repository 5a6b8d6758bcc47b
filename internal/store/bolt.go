package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// BoltStore is the bbolt Backend. Each kind is a top-level bucket holding one
// nested bucket per owner; names are keys inside the owner bucket.
type BoltStore struct {
	db *bolt.DB
}

var _ Backend = (*BoltStore)(nil)

// OpenBolt opens or creates a bbolt database file.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close closes the database.
func (b *BoltStore) Close() error {
	return b.db.Close()
}

func ownerBucket(tx *bolt.Tx, kind Kind, owner uuid.UUID) *bolt.Bucket {
	root := tx.Bucket([]byte(kind))
	if root == nil {
		return nil
	}
	return root.Bucket([]byte(owner.String()))
}

// Get returns a record's value, or ErrNotFound.
func (b *BoltStore) Get(_ context.Context, kind Kind, owner uuid.UUID, name string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := ownerBucket(tx, kind, owner)
		if bucket == nil {
			return ErrNotFound
		}
		v := bucket.Get([]byte(name))
		if v == nil {
			return ErrNotFound
		}
		// The slice is only valid during the transaction
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get %s %s/%s: %w", kind, owner, name, err)
	}
	return data, nil
}

// Put creates or replaces a record.
func (b *BoltStore) Put(_ context.Context, kind Kind, owner uuid.UUID, name string, data []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return putRecord(tx, Write{Kind: kind, Owner: owner, Name: name, Data: data})
	})
	if err != nil {
		return fmt.Errorf("put %s %s/%s: %w", kind, owner, name, err)
	}
	return nil
}

// PutBatch writes every record in a single update transaction.
func (b *BoltStore) PutBatch(_ context.Context, writes []Write) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		for _, w := range writes {
			if err := putRecord(tx, w); err != nil {
				return fmt.Errorf("%s %s/%s: %w", w.Kind, w.Owner, w.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put batch: %w", err)
	}
	return nil
}

func putRecord(tx *bolt.Tx, w Write) error {
	if w.Name == "" {
		return ErrNameRequired
	}
	root, err := tx.CreateBucketIfNotExists([]byte(w.Kind))
	if err != nil {
		return err
	}
	bucket, err := root.CreateBucketIfNotExists([]byte(w.Owner.String()))
	if err != nil {
		return err
	}
	return bucket.Put([]byte(w.Name), w.Data)
}

// Delete removes a record and reports whether it existed. An owner bucket
// left empty is removed with it.
func (b *BoltStore) Delete(_ context.Context, kind Kind, owner uuid.UUID, name string) (bool, error) {
	var existed bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := ownerBucket(tx, kind, owner)
		if bucket == nil || bucket.Get([]byte(name)) == nil {
			return nil
		}
		existed = true
		if err := bucket.Delete([]byte(name)); err != nil {
			return err
		}
		if k, _ := bucket.Cursor().First(); k == nil {
			return tx.Bucket([]byte(kind)).DeleteBucket([]byte(owner.String()))
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete %s %s/%s: %w", kind, owner, name, err)
	}
	return existed, nil
}

// List returns the names of an owner's records of one kind in key order.
func (b *BoltStore) List(_ context.Context, kind Kind, owner uuid.UUID) ([]string, error) {
	var names []string
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := ownerBucket(tx, kind, owner)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list %s %s: %w", kind, owner, err)
	}
	return names, nil
}

// Owners returns every owner with at least one record of the kind.
func (b *BoltStore) Owners(_ context.Context, kind Kind) ([]uuid.UUID, error) {
	var owners []uuid.UUID
	err := b.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(kind))
		if root == nil {
			return nil
		}
		return root.ForEachBucket(func(k []byte) error {
			id, err := uuid.ParseBytes(k)
			if err != nil {
				return fmt.Errorf("parse owner %q: %w", k, err)
			}
			owners = append(owners, id)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("owners %s: %w", kind, err)
	}
	return owners, nil
}

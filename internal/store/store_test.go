package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.False(t, os.IsNotExist(err), "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	owner := uuid.New()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), KindShop, owner, "farm", []byte(`{}`)))
	s.Close()

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	names, err := s.List(context.Background(), KindShop, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"farm"}, names, "records survive reopening")
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_MigrationIndex(t *testing.T) {
	s := createTestStore(t)

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
		"idx_records_kind_owner",
	).Scan(&name)
	require.NoError(t, err)
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	defer s.Close()

	owner := uuid.New()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, KindVault, owner, "farm", []byte(`{"0":{}}`)))
	got, err := s.Get(ctx, KindVault, owner, "farm")
	require.NoError(t, err)
	assert.JSONEq(t, `{"0":{}}`, string(got))
}

func TestOpenDriver(t *testing.T) {
	dir := t.TempDir()

	b, err := OpenDriver(DriverSQLite, filepath.Join(dir, "a.db"))
	require.NoError(t, err)
	assert.IsType(t, &Store{}, b)
	require.NoError(t, b.Close())

	b, err = OpenDriver(DriverBolt, filepath.Join(dir, "b.bolt"))
	require.NoError(t, err)
	assert.IsType(t, &BoltStore{}, b)
	require.NoError(t, b.Close())

	_, err = OpenDriver("postgres", "x")
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestRevision(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	owner := uuid.New()

	rev, err := s.Revision(ctx, KindShop, owner, "farm")
	require.NoError(t, err)
	assert.Zero(t, rev)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Put(ctx, KindShop, owner, "farm", []byte(`{}`)))
	}
	rev, err = s.Revision(ctx, KindShop, owner, "farm")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rev)
}

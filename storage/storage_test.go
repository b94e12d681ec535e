package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runSlotStoreTests 对任意 SlotStore 实现执行同一组用例
func runSlotStoreTests(t *testing.T, store SlotStore) {
	ctx := context.Background()

	t.Run("missing slot", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrSlotNotFound)
		assert.ErrorIs(t, store.Delete(ctx, "missing"), ErrSlotNotFound)
	})

	t.Run("empty key", func(t *testing.T) {
		assert.ErrorIs(t, store.Put(ctx, "  ", []byte("{}")), ErrEmptySlotKey)
	})

	t.Run("put get overwrite delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "b", []byte(`{"v":1}`)))
		require.NoError(t, store.Put(ctx, "a", []byte(`{"v":2}`)))
		require.NoError(t, store.Put(ctx, "b", []byte(`{"v":3}`)))

		data, err := store.Get(ctx, "b")
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":3}`, string(data))

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, keys)

		require.NoError(t, store.Delete(ctx, "a"))
		keys, err = store.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, keys)
	})
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	runSlotStoreTests(t, store)
}

func TestMemoryStoreCopiesData(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "slot", data))
	data[0] = 'z'

	got, err := store.Get(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "saves.db"))
	require.NoError(t, err)
	defer store.Close()
	runSlotStoreTests(t, store)
}

func TestSQLiteStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "saves.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "slot", []byte("data")))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()
	data, err := reopened.Get(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("HOUSE_MONGO_TEST_URI")
	if uri == "" {
		t.Skip("HOUSE_MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := "houseguest_test_" + time.Now().Format("20060102150405")
	store, err := OpenMongo(ctx, uri, dbName)
	require.NoError(t, err)
	defer func() {
		_ = store.Client.Database(dbName).Drop(context.Background())
		_ = store.Close()
	}()
	runSlotStoreTests(t, store)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open(ctx, Options{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	require.NoError(t, store.Close())

	_, err = Open(ctx, Options{Driver: "redis"})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Driver: "sqlite"})
	assert.Error(t, err)
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestObjectStore(t *testing.T) (*LocalObjectStore, string) {
	t.Helper()
	dir := t.TempDir()
	objectStore, err := NewLocalObjectStore(dir)
	require.NoError(t, err)
	return objectStore, dir
}

func TestLocalObjectStore_PutObject(t *testing.T) {
	objectStore, baseDir := setupTestObjectStore(t)
	ctx := context.Background()

	key := "models/sentiment_model_20250301_123045.gob"
	content := []byte("model bytes")

	require.NoError(t, objectStore.PutObject(ctx, key, bytes.NewReader(content)))

	data, err := os.ReadFile(filepath.Join(baseDir, "models", "sentiment_model_20250301_123045.gob"))
	require.NoError(t, err)
	assert.Equal(t, content, data)

	got, err := objectStore.GetObject(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	exists, err := objectStore.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Equal(t, filepath.Join(baseDir, "models", "sentiment_model_20250301_123045.gob"), objectStore.Location(key))
}

func TestLocalObjectStore_Overwrite(t *testing.T) {
	objectStore, baseDir := setupTestObjectStore(t)
	ctx := context.Background()

	require.NoError(t, objectStore.PutObject(ctx, "a.gob", strings.NewReader("first")))
	require.NoError(t, objectStore.PutObject(ctx, "a.gob", strings.NewReader("second")))

	got, err := objectStore.GetObject(ctx, "a.gob")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := os.ReadDir(baseDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files should not be left behind")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("read failed")
}

func TestLocalObjectStore_FailedWriteLeavesNothing(t *testing.T) {
	objectStore, baseDir := setupTestObjectStore(t)
	ctx := context.Background()

	require.NoError(t, objectStore.PutObject(ctx, "a.gob", strings.NewReader("original")))
	assert.Error(t, objectStore.PutObject(ctx, "a.gob", failingReader{}))
	assert.Error(t, objectStore.PutObject(ctx, "b.gob", failingReader{}))

	got, err := objectStore.GetObject(ctx, "a.gob")
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	exists, err := objectStore.Exists(ctx, "b.gob")
	require.NoError(t, err)
	assert.False(t, exists)

	entries, err := os.ReadDir(baseDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalObjectStore_Missing(t *testing.T) {
	objectStore, _ := setupTestObjectStore(t)
	ctx := context.Background()

	_, err := objectStore.GetObject(ctx, "missing.gob")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	exists, err := objectStore.Exists(ctx, "missing.gob")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNewLocalObjectStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "models")
	_, err := NewLocalObjectStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

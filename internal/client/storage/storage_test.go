package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_LoadMissing(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "token.json"))
	token, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	fs := NewFileStore(path)

	require.NoError(t, fs.Save(ctx, "abc"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"auth_token": "abc"}`, string(raw))

	require.NoError(t, fs.Save(ctx, "def"))
	token, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "def", token)

	require.NoError(t, fs.Clear(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine.
	require.NoError(t, fs.Clear(ctx))
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("not-json"), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode token file")
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()

	token, err := ms.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, ms.Save(ctx, "abc"))
	token, _ = ms.Load(ctx)
	assert.Equal(t, "abc", token)

	require.NoError(t, ms.Clear(ctx))
	require.NoError(t, ms.Clear(ctx))
	token, _ = ms.Load(ctx)
	assert.Empty(t, token)
}

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubArchiveStore_Put(t *testing.T) {
	store := NewStubArchiveStore()
	ctx := context.Background()

	t.Run("stores the file and returns its URL", func(t *testing.T) {
		url, err := store.Put(ctx, "exports/store-1/DS-0001.xlsx", "application/octet-stream", []byte("content"))
		require.NoError(t, err)
		assert.Equal(t, "https://archive.example.com/exports/store-1/DS-0001.xlsx", url)

		body, ok := store.Get("exports/store-1/DS-0001.xlsx")
		require.True(t, ok)
		assert.Equal(t, []byte("content"), body)
	})

	t.Run("rejects an empty key", func(t *testing.T) {
		_, err := store.Put(ctx, "", "application/octet-stream", nil)
		assert.Error(t, err)
	})

	t.Run("copies the body instead of aliasing it", func(t *testing.T) {
		body := []byte("original")
		_, err := store.Put(ctx, "exports/x", "text/plain", body)
		require.NoError(t, err)

		body[0] = 'X'
		stored, ok := store.Get("exports/x")
		require.True(t, ok)
		assert.Equal(t, []byte("original"), stored)
	})
}

package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	s, err := NewLocalStorageService(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "communications/abc-logo.png", []byte("bytes")))

	ok, err := s.Exists(ctx, "communications/abc-logo.png")
	require.NoError(t, err)
	assert.True(t, ok)

	f, err := s.Open(ctx, "communications/abc-logo.png")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "bytes", string(data))

	require.NoError(t, s.Delete(ctx, "communications/abc-logo.png"))
	ok, err = s.Exists(ctx, "communications/abc-logo.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStorageBlocksTraversal(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorageService(filepath.Join(dir, "store"))
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), "../escape.txt", []byte("x")))
	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); !os.IsNotExist(err) {
		t.Fatalf("file escaped the storage root")
	}
}

func TestLocalStorageDeleteMissingIsNoError(t *testing.T) {
	s, err := NewLocalStorageService(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, s.Delete(context.Background(), "never/stored.bin"))
}

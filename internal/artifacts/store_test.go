package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	valid := map[string]string{
		"model.json":               "model.json",
		"predictions/./1-a.png":    "predictions/1-a.png",
		`group1\shard1of2.bin`:     "group1/shard1of2.bin",
		"predictions/x/../1-a.png": "predictions/1-a.png",
	}
	for in, want := range valid {
		got, err := CleanKey(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "/etc/passwd", "..", "../secret", "a/../../b", "."} {
		_, err := CleanKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "model.json", BaseName("model.json"))
	assert.Equal(t, "weights.bin", BaseName("../../weights.bin"))
	assert.Equal(t, "dam.jpg", BaseName(`C:\Users\op\dam.jpg`))
}

func TestDiskStorePut(t *testing.T) {
	root := t.TempDir()
	s := NewDiskStore(root)
	assert.Equal(t, root, s.Root())

	loc, err := s.Put(context.Background(), "predictions/1-dam.png", strings.NewReader("png bytes"), 9, "image/png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "predictions", "1-dam.png"), loc)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))

	// overwrite in place, no temp files left behind
	_, err = s.Put(context.Background(), "predictions/1-dam.png", strings.NewReader("v2"), 2, "")
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Join(root, "predictions"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDiskStoreRejectsEscapes(t *testing.T) {
	s := NewDiskStore(t.TempDir())
	_, err := s.Put(context.Background(), "../outside.bin", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestDiskStoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDiskStore(t.TempDir()).Put(ctx, "a.bin", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, context.Canceled)
}

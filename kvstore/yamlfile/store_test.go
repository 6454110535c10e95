package yamlfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-kb-chat/kvstore/yamlfile"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	s := yamlfile.New(path)

	t.Run("missing file reads as empty", func(t *testing.T) {
		v, found, err := s.Get(ctx, "absent")
		require.NoError(t, err)
		require.False(t, found)
		require.Empty(t, v)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "a", "1"))
		v, found, err := s.Get(ctx, "a")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "1", v)
	})

	t.Run("set many is visible to a second handle", func(t *testing.T) {
		require.NoError(t, s.SetMany(ctx, map[string]string{"token": "abc", "expires": "42"}))

		other := yamlfile.New(path)
		v, _, err := other.Get(ctx, "token")
		require.NoError(t, err)
		require.Equal(t, "abc", v)
		v, _, err = other.Get(ctx, "expires")
		require.NoError(t, err)
		require.Equal(t, "42", v)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "a"))
		require.NoError(t, s.Delete(ctx, "a"))
		_, found, err := s.Get(ctx, "a")
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("key: [unterminated"), 0o644))

	_, _, err := yamlfile.New(path).Get(context.Background(), "key")
	require.Error(t, err)
}

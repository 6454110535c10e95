package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-kb-chat/kvstore/sqlite"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kb-chat.db")
	s, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s, path := openTestStore(t)

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.Set(ctx, "k", "v1"))
	require.NoError(t, s.Set(ctx, "k", "v2"))
	v, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v2", v)

	require.NoError(t, s.SetMany(ctx, map[string]string{"token": "t", "expires": "99"}))
	require.NoError(t, s.Close())

	reopened, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	v, _, err = reopened.Get(ctx, "expires")
	require.NoError(t, err)
	require.Equal(t, "99", v)

	require.NoError(t, reopened.Delete(ctx, "token"))
	_, found, err = reopened.Get(ctx, "token")
	require.NoError(t, err)
	require.False(t, found)
}

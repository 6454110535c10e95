package kvstore_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-kb-chat/kvstore"
	kvstorefake "github.com/jrsteele09/go-kb-chat/kvstore/repofake"
	"github.com/stretchr/testify/require"
)

func TestTypedAccessors(t *testing.T) {
	ctx := context.Background()
	s := kvstorefake.NewFakeKVStore()
	require.NoError(t, s.SetMany(ctx, map[string]string{
		"int":     "1700000000",
		"badint":  "soon",
		"flag":    "1",
		"textual": "TRUE",
		"off":     "0",
	}))

	t.Run("absent keys read as zero values", func(t *testing.T) {
		v, err := kvstore.GetString(ctx, s, "nope")
		require.NoError(t, err)
		require.Empty(t, v)

		n, err := kvstore.GetInt64(ctx, s, "nope")
		require.NoError(t, err)
		require.Zero(t, n)

		b, err := kvstore.GetBool(ctx, s, "nope")
		require.NoError(t, err)
		require.False(t, b)
	})

	t.Run("ints", func(t *testing.T) {
		n, err := kvstore.GetInt64(ctx, s, "int")
		require.NoError(t, err)
		require.Equal(t, int64(1700000000), n)

		n, err = kvstore.GetInt64(ctx, s, "badint")
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("bools", func(t *testing.T) {
		for key, want := range map[string]bool{"flag": true, "textual": true, "off": false} {
			b, err := kvstore.GetBool(ctx, s, key)
			require.NoError(t, err)
			require.Equal(t, want, b, key)
		}
	})

	t.Run("storage errors propagate", func(t *testing.T) {
		s.FailGets(kvstorefake.ErrInjected)
		defer s.FailGets(nil)

		_, err := kvstore.GetInt64(ctx, s, "int")
		require.ErrorIs(t, err, kvstorefake.ErrInjected)
	})

	require.Equal(t, "1", kvstore.FormatBool(true))
	require.Equal(t, "0", kvstore.FormatBool(false))
	require.Equal(t, "42", kvstore.FormatInt64(42))
}

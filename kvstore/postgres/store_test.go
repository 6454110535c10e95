package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

const testDBError = "db error"

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func TestStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		store, mock := newTestStore(t)
		mock.ExpectQuery(`SELECT value FROM kv_store WHERE key = \$1`).
			WithArgs("kb_chat_oauth_token").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("abc"))

		v, found, err := store.Get(ctx, "kb_chat_oauth_token")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "abc", v)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows", func(t *testing.T) {
		store, mock := newTestStore(t)
		mock.ExpectQuery("SELECT value FROM kv_store").WillReturnError(sql.ErrNoRows)

		v, found, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		require.False(t, found)
		require.Empty(t, v)
	})

	t.Run("db error", func(t *testing.T) {
		store, mock := newTestStore(t)
		mock.ExpectQuery("SELECT value FROM kv_store").WillReturnError(errors.New(testDBError))

		_, _, err := store.Get(ctx, "k")
		require.ErrorContains(t, err, testDBError)
	})
}

func TestStore_Set(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectExec(`INSERT INTO kv_store \(key,value,updated_at\) VALUES \(\$1,\$2,NOW\(\)\) ON CONFLICT`).
		WithArgs("k", "v").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Set(context.Background(), "k", "v"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SetMany(t *testing.T) {
	ctx := context.Background()

	t.Run("commits all values", func(t *testing.T) {
		store, mock := newTestStore(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO kv_store").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO kv_store").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.SetMany(ctx, map[string]string{"a": "1", "b": "2"})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		store, mock := newTestStore(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO kv_store").WillReturnError(errors.New(testDBError))
		mock.ExpectRollback()

		err := store.SetMany(ctx, map[string]string{"a": "1"})
		require.ErrorContains(t, err, testDBError)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_Delete(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectExec(`DELETE FROM kv_store WHERE key = \$1`).
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Delete(context.Background(), "k"))
	require.NoError(t, mock.ExpectationsWereMet())
}

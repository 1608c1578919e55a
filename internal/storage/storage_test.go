package storage_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/linemk/damio-storefront/internal/domain/models"
	"github.com/linemk/damio-storefront/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	selectQuery = "SELECT value FROM session_state WHERE session_id = $1 AND key = $2"
	upsertQuery = `INSERT INTO session_state (session_id, key, value, updated_at)
	          VALUES ($1, $2, $3, NOW())
	          ON CONFLICT (session_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
)

func TestSessionGet_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewSessionRepository(db)

	rows := sqlmock.NewRows([]string{"value"}).
		AddRow([]byte(`{"5":{"productId":5,"quantity":2,"variant":{"size":"4Y"}}}`))
	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("sid-1", storage.KeyCart).WillReturnRows(rows)

	var cart models.Cart
	err = repo.Get(context.Background(), "sid-1", storage.KeyCart, &cart)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Quantity(5))
	assert.Equal(t, "4Y", cart[5].Variant.Size)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionGet_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewSessionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("sid-1", storage.KeyTheme).WillReturnRows(sqlmock.NewRows([]string{"value"}))

	var theme string
	err = repo.Get(context.Background(), "sid-1", storage.KeyTheme, &theme)
	assert.True(t, errors.Is(err, storage.ErrKeyNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionGet_CorruptValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewSessionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("sid-1", storage.KeyCart).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{broken`)))

	var cart models.Cart
	err = repo.Get(context.Background(), "sid-1", storage.KeyCart, &cart)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, storage.ErrKeyNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionGet_EmptySession(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewSessionRepository(db)
	var v string
	assert.ErrorIs(t, repo.Get(context.Background(), "", storage.KeyTheme, &v), storage.ErrInvalidSession)
}

func TestSessionSet_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewSessionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta(upsertQuery)).
		WithArgs("sid-1", storage.KeyTheme, []byte(`"dark"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Set(context.Background(), "sid-1", storage.KeyTheme, "dark")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionSet_LockNotAvailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewSessionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta(upsertQuery)).
		WithArgs("sid-1", storage.KeyTheme, []byte(`"dark"`)).
		WillReturnError(&pq.Error{Code: "55P03"})

	err = repo.Set(context.Background(), "sid-1", storage.KeyTheme, "dark")
	assert.True(t, errors.Is(err, storage.ErrStoreBusy))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewSessionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM session_state WHERE session_id = $1 AND key = $2")).
		WithArgs("sid-1", storage.KeyAuthToken).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM session_state WHERE session_id = $1")).
		WithArgs("sid-1").WillReturnResult(sqlmock.NewResult(0, 3))

	assert.NoError(t, repo.Delete(context.Background(), "sid-1", storage.KeyAuthToken))
	assert.NoError(t, repo.DeleteAll(context.Background(), "sid-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemorySessionStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemorySessionStorage()

	cart := models.Cart{}
	cart.Add(5, nil)
	require.NoError(t, st.Set(ctx, "sid", storage.KeyCart, cart))

	var loaded models.Cart
	require.NoError(t, st.Get(ctx, "sid", storage.KeyCart, &loaded))
	assert.Equal(t, cart, loaded)

	require.NoError(t, st.Delete(ctx, "sid", storage.KeyCart))
	assert.ErrorIs(t, st.Get(ctx, "sid", storage.KeyCart, &loaded), storage.ErrKeyNotFound)
}

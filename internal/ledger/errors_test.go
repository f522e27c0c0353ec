package ledger

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		want string
	}{
		{ErrInsufficientHolding, "InsufficientHolding"},
		{ErrInsufficientFunds, "InsufficientFunds"},
		{ErrInvalidQuantity, "InvalidQuantity"},
		{ErrInvalidPrice, "InvalidPrice"},
		{ErrStorageConflict, "StorageConflict"},
		{errors.New("connection reset"), "StorageFault"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Kind(tc.err))
	}
}

func TestClassifyStorageErr(t *testing.T) {
	t.Parallel()

	t.Run("nil passes through", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, classifyStorageErr(nil))
	})

	t.Run("serialization failure becomes conflict", func(t *testing.T) {
		t.Parallel()
		err := classifyStorageErr(&pgconn.PgError{Code: "40001"})
		assert.ErrorIs(t, err, ErrStorageConflict)
	})

	t.Run("deadlock becomes conflict", func(t *testing.T) {
		t.Parallel()
		err := classifyStorageErr(&pgconn.PgError{Code: "40P01"})
		assert.ErrorIs(t, err, ErrStorageConflict)
	})

	t.Run("conflict keeps the original error", func(t *testing.T) {
		t.Parallel()
		pgErr := &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
		err := classifyStorageErr(pgErr)
		var got *pgconn.PgError
		assert.True(t, errors.As(err, &got))
		assert.Equal(t, "could not serialize access", got.Message)
	})

	t.Run("other postgres errors surface unchanged", func(t *testing.T) {
		t.Parallel()
		pgErr := &pgconn.PgError{Code: "23505"}
		err := classifyStorageErr(pgErr)
		assert.NotErrorIs(t, err, ErrStorageConflict)
		assert.Equal(t, error(pgErr), err)
	})
}

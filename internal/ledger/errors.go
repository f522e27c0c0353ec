package ledger

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds returned by the engine. Validation errors are detected
// before any mutation; ErrStorageConflict is the only retryable kind.
var (
	ErrInsufficientHolding = errors.New("insufficient gold holding")
	ErrInsufficientFunds   = errors.New("insufficient cash balance")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidPrice        = errors.New("price must not be negative")
	ErrStorageConflict     = errors.New("storage conflict")
)

// Kind maps an engine error to the wire-level error kind string.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientHolding):
		return "InsufficientHolding"
	case errors.Is(err, ErrInsufficientFunds):
		return "InsufficientFunds"
	case errors.Is(err, ErrInvalidQuantity):
		return "InvalidQuantity"
	case errors.Is(err, ErrInvalidPrice):
		return "InvalidPrice"
	case errors.Is(err, ErrStorageConflict):
		return "StorageConflict"
	default:
		return "StorageFault"
	}
}

// classifyStorageErr folds Postgres serialization failures and deadlocks
// into ErrStorageConflict so the service layer can retry them. Everything
// else surfaces unchanged as a terminal storage fault.
func classifyStorageErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return errors.Join(ErrStorageConflict, err)
		}
	}
	return err
}

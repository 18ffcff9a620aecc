package ledger

import "errors"

var (
	ErrItemNotFound      = errors.New("ledger: item not found")
	ErrDuplicateItem     = errors.New("ledger: item already exists")
	ErrDuplicateDelta    = errors.New("ledger: delta already applied")
	ErrInsufficientStock = errors.New("ledger: insufficient stock")
	ErrInvalidInput      = errors.New("ledger: invalid input")
	// ErrPersistence is returned when the snapshot could not be saved. The
	// in-memory mutation that preceded it is already committed.
	ErrPersistence = errors.New("ledger: persist snapshot failed")
)

// Error codes exposed to API clients.
const (
	CodeItemNotFound      = "ITEM_NOT_FOUND"
	CodeDuplicateItem     = "DUPLICATE_ITEM"
	CodeDuplicateDelta    = "DUPLICATE_DELTA"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidInput      = "INVALID_INPUT"
	CodePersistenceFailed = "PERSISTENCE_FAILED"
	CodeInternal          = "INTERNAL_ERROR"
)

// Code maps err to a stable error code. Unknown errors map to CodeInternal.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrItemNotFound):
		return CodeItemNotFound
	case errors.Is(err, ErrDuplicateItem):
		return CodeDuplicateItem
	case errors.Is(err, ErrDuplicateDelta):
		return CodeDuplicateDelta
	case errors.Is(err, ErrInsufficientStock):
		return CodeInsufficientStock
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrPersistence):
		return CodePersistenceFailed
	default:
		return CodeInternal
	}
}

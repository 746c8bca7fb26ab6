package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// Inventory and reservation errors.
var (
	// ErrInvalidQuantity indicates a non-positive quantity was supplied to an
	// operation that requires a positive one.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInsufficientStock indicates a stock decrement would drive
	// quantity-on-hand negative.
	ErrInsufficientStock = errors.New("insufficient stock on hand")

	// ErrInsufficientAvailability indicates the sellable quantity (on hand
	// minus active reservations) cannot cover the requested reservation.
	ErrInsufficientAvailability = errors.New("insufficient sellable quantity")

	// ErrReservationExpired indicates a reservation was consumed after its
	// expiry, or is otherwise no longer in a consumable state.
	ErrReservationExpired = errors.New("reservation has expired")

	// ErrCOGSNotInitialized indicates the weighted-average cost was zero at
	// sale time: the sale has no cost basis until a purchase backfills one.
	ErrCOGSNotInitialized = errors.New("cost basis not initialized for stock item")
)

// Ledger errors.
var (
	// ErrUnbalancedEntry indicates an entry whose debit lines do not sum to
	// its credit lines.
	ErrUnbalancedEntry = errors.New("journal entry debits do not equal credits")

	// ErrUnknownAccount indicates a line references an account code absent
	// from the chart of accounts.
	ErrUnknownAccount = errors.New("account code not found in chart of accounts")

	// ErrDuplicateEntryNumber indicates an entry-number collision under
	// concurrent posting; callers retry with a freshly allocated number.
	ErrDuplicateEntryNumber = errors.New("journal entry number already allocated")
)

// AppError wraps an underlying error with an HTTP-ish status code and a
// caller-facing message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping err.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

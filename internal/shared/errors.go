package shared

import "errors"

// Error kinds shared across modules. Domain packages wrap these with
// fmt.Errorf("...: %w", ...) so callers can branch on the kind while the
// message stays specific.
var (
	// ErrValidation indicates malformed or out-of-range input, detected
	// before any write.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates a referenced entity is absent.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness or dependency violation.
	ErrConflict = errors.New("conflict")
	// ErrInsufficientStock indicates a decrement would drive quantity negative.
	ErrInsufficientStock = errors.New("insufficient stock")
)

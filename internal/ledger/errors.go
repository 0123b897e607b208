package ledger

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when a transfer row is locked by a concurrent edit.
	ErrConflict = errors.New("transfer is being edited")

	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrInvalidType            = errors.New("invalid transfer type: allowed ADD, WITHDRAW, ZAKAT_OUT")
	ErrAssetInactive          = errors.New("asset not found or inactive")
	ErrUserInactive           = errors.New("user not found or inactive")
	ErrInvalidDisplayCurrency = errors.New("display currency must be an active asset with unit amount")
	ErrNoteTooLong            = errors.New("note exceeds 240 characters")
	ErrInvalidAttachment      = errors.New("attachment url must point into the receipt store")
)

// IsValidation reports whether err was caused by rejected input.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidQuantity, ErrInvalidType, ErrAssetInactive, ErrUserInactive,
		ErrInvalidDisplayCurrency, ErrNoteTooLong, ErrInvalidAttachment,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

package security

import "errors"

// ErrInvalidPinFormat indicates the supplied PIN is not 4-8 ASCII digits.
var ErrInvalidPinFormat = errors.New("pin must be 4-8 digits")

// ValidatePinFormat enforces the user-chosen PIN shape: 4 to 8 ASCII digits.
// Generated 6-digit codes satisfy it by construction.
func ValidatePinFormat(pin string) error {
	if len(pin) < 4 || len(pin) > 8 {
		return ErrInvalidPinFormat
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return ErrInvalidPinFormat
		}
	}
	return nil
}

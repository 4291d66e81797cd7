package domain

import "time"

// User mirrors the persisted representation in the users table.
//
// The primary PIN (PinHash + PinSentAt + PinExpiresAt + PinFailedCount) is a
// short-lived login credential delivered by email. The saved PIN
// (SavedPinHash + RememberPin) is an independent, longer-lived credential used
// for quick re-login and is only honored while RememberPin is set.
type User struct {
	ID             int64
	Email          string
	PinHash        *string
	PinFailedCount int
	PinSentAt      *time.Time
	PinExpiresAt   *time.Time
	CaregiverEmail *string

	RememberPin  bool
	SavedPinHash *string

	Name             *string
	Phone            *string
	Address          *string
	EmergencyContact *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasSavedPin reports whether the quick-login credential is usable.
// Both parts of the pair must be present; a saved hash without the remember
// flag is a dangling credential and is never honored.
func (u *User) HasSavedPin() bool {
	return u.RememberPin && u.SavedPinHash != nil && *u.SavedPinHash != ""
}

// PinOutstanding reports whether a primary PIN challenge is currently stored.
func (u *User) PinOutstanding() bool {
	return u.PinHash != nil && *u.PinHash != ""
}

// PinUsableAt reports whether the primary PIN may still be presented at the
// given instant. A PIN with an expiry is valid only strictly before it; a PIN
// stored without an expiry (set directly via reset or in-session change) does
// not age out.
func (u *User) PinUsableAt(now time.Time) bool {
	if !u.PinOutstanding() {
		return false
	}
	if u.PinExpiresAt == nil {
		return true
	}
	return now.Before(*u.PinExpiresAt)
}

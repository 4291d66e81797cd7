package security

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

// ErrInvalidAddress indicates the supplied value does not parse to a valid ASCII mailbox.
var ErrInvalidAddress = errors.New("invalid email address")

var mailboxPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// NormalizeAddress extracts the bare mailbox from a raw address, case-folds
// it, and enforces ASCII-only form. Display-name wrapping ("Name <addr>") is
// stripped. Non-ASCII mailboxes are rejected here, before any delivery
// attempt, instead of surfacing later as a transport error.
func NormalizeAddress(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	target := trimmed
	if parsed, err := mail.ParseAddress(trimmed); err == nil {
		target = parsed.Address
	}
	target = strings.ToLower(strings.TrimSpace(target))

	for _, r := range target {
		if r > unicode.MaxASCII {
			return "", fmt.Errorf("%w: non-ascii character %q", ErrInvalidAddress, r)
		}
	}

	if !mailboxPattern.MatchString(target) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, target)
	}

	return target, nil
}

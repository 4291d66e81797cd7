package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// PinCodeLength is the fixed width of generated login and reset codes.
const PinCodeLength = 6

var pinCodeRange = big.NewInt(900000)

// GeneratePinCode returns a 6-digit numeric code drawn uniformly from
// 100000-999999 using a cryptographically strong source.
func GeneratePinCode() (string, error) {
	n, err := rand.Int(rand.Reader, pinCodeRange)
	if err != nil {
		return "", fmt.Errorf("generate pin code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// HashToken calculates a SHA-256 hash of the provided value.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewLockToken returns a random opaque token bound to one reservation
// lock grant.  Presenting the token is required to confirm against the
// lock, so a holder whose lock expired and was re-granted to someone
// else cannot confirm with stale credentials.
func NewLockToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NewPaymentRef returns a random reference in the shape the payment
// gateway simulator hands back for successful charges.
func NewPaymentRef() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "pay_" + hex.EncodeToString(buf), nil
}

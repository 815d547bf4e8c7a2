package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// TicketBytes is the entropy of a login ticket before encoding (256 bits).
const TicketBytes = 32

// GenerateTicket returns a random single-use login ticket, base64url encoded
// without padding so it can sit in a query string as is.
func GenerateTicket() (string, error) {
	buf := make([]byte, TicketBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate login ticket: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintTicket is the lookup key a ticket is stored under. Tickets carry
// full entropy, so an unsalted SHA-256 is enough to keep a database dump from
// yielding usable tickets.
func FingerprintTicket(ticket string) string {
	sum := sha256.Sum256([]byte(ticket))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

package domain

import "time"

// LoginTicket is a short-lived single-use credential that can stand in for the
// account secret in a login URL. Only its fingerprint is stored.
type LoginTicket struct {
	ID         string
	MappingID  string
	TicketHash string
	ExpiresAt  time.Time
	UsedAt     *time.Time
	CreatedAt  time.Time
}

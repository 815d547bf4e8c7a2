package domain

import "time"

// Mapping links an owning-application user to their bouncer account.
type Mapping struct {
	ID              string
	ExternalUserID  string
	BouncerUsername string // immutable once created
	CredentialHash  string // argon2id PHC string
	DisplayName     string
	RealName        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastUsedAt      *time.Time // nil until the first accepted auth callback
}

package jwtx

import (
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the upstream caller claims the bridge understands. The owning
// application issues them; only "sub" is mandatory.
type Claims struct {
	jwt.RegisteredClaims

	// Permission Scopes, e.g. "irc:provision"
	Scopes []string `json:"scopes,omitempty"`

	// Username for the authenticated user
	Username string `json:"username,omitempty"`

	// PreferredName is the display name for the user
	PreferredName string `json:"preferred_name,omitempty"`
}

// NewClaims builds minimally-correct caller claims.
func NewClaims(
	subject, username, preferredName string,
	scopes []string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Scopes:        scopes,
		Username:      username,
		PreferredName: preferredName,
	}
}

// DisplayName is the name the caller should appear under: preferred_name
// when present, username otherwise.
func (c *Claims) DisplayName() string {
	if n := strings.TrimSpace(c.PreferredName); n != "" {
		return n
	}
	return strings.TrimSpace(c.Username)
}

// HasScope reports whether the scope was granted.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiryWithLeeway adds a small grace period for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}

// validate runs every check a caller token has to pass once its signature is
// known to be good.
func (c *Claims) validate(opts VerifyOptions) error {
	if strings.TrimSpace(c.Subject) == "" {
		return ErrMissingSubject
	}
	if err := c.ValidateIssuer(opts.Issuer); err != nil {
		return err
	}
	if err := c.ValidateAudience(opts.Audience); err != nil {
		return err
	}
	return c.ValidateExpiryWithLeeway(opts.Leeway)
}

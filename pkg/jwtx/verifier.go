package jwtx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Audience values the token must contain (claims.aud). Empty means "don't care".
	Audience []string

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrMissingKID  = errors.New("jwtx: missing kid")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")

	ErrIssuer         = errors.New("jwtx: issuer mismatch")
	ErrAudience       = errors.New("jwtx: audience mismatch")
	ErrExpired        = errors.New("jwtx: token expired")
	ErrNotYetValid    = errors.New("jwtx: token not yet valid")
	ErrMissingSubject = errors.New("jwtx: missing subject")
)

// asymmetricAlgs are the algorithms accepted from a JWKS.
var asymmetricAlgs = []string{
	jwt.SigningMethodEdDSA.Alg(),
	jwt.SigningMethodRS256.Alg(),
	jwt.SigningMethodES256.Alg(),
}

// KeySetVerifier validates JWTs signed by any key in a KeySet. The key is
// selected by "kid" and must match the algorithm in the token header.
type KeySetVerifier struct {
	keys *KeySet
	opts VerifyOptions
}

// NewKeySetVerifier creates a verifier backed by keys.
func NewKeySetVerifier(keys *KeySet, opts VerifyOptions) *KeySetVerifier {
	return &KeySetVerifier{keys: keys, opts: opts}
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *KeySetVerifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods(asymmetricAlgs),
		jwt.WithLeeway(v.opts.Leeway),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrMissingKID
		}

		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
		}

		if !keyMatchesAlg(pub, t.Method.Alg()) {
			return nil, ErrAlgMismatch
		}
		return pub, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	return checked(token, v.opts)
}

// Ready reports whether any verification key has been loaded.
func (v *KeySetVerifier) Ready() bool { return v.keys.IsReady() }

// HMACVerifier validates HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	secret []byte
	opts   VerifyOptions
}

// NewHMACVerifier creates an HS256 verifier.
func NewHMACVerifier(secret []byte, opts VerifyOptions) *HMACVerifier {
	return &HMACVerifier{secret: secret, opts: opts}
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *HMACVerifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.opts.Leeway),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	return checked(token, v.opts)
}

// Ready is always true; the secret is loaded at construction.
func (v *HMACVerifier) Ready() bool { return len(v.secret) > 0 }

func checked(token *jwt.Token, opts VerifyOptions) (Claims, error) {
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrMalformed
	}
	if err := claims.validate(opts); err != nil {
		return Claims{}, err
	}
	return *claims, nil
}

func keyMatchesAlg(pub any, alg string) bool {
	switch pub.(type) {
	case ed25519.PublicKey:
		return alg == jwt.SigningMethodEdDSA.Alg()
	case *rsa.PublicKey:
		return alg == jwt.SigningMethodRS256.Alg()
	case *ecdsa.PublicKey:
		return alg == jwt.SigningMethodES256.Alg()
	default:
		return false
	}
}

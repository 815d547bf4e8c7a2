package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Configuration for Argon2id hashing.
const (
	memory      = 19 * 1024 // Memory usage in KiB (19 MiB)
	iterations  = 2         // Iteration count
	parallelism = 1         // Number of threads
	keyLength   = 32        // Length of the generated hash
	saltLength  = 16        // Length of the salt
)

// ErrMismatch is returned when a secret does not match the encoded hash.
var ErrMismatch = errors.New("password does not match")

// Hasher hashes and verifies credential secrets.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, encodedHash string) error
}

// Argon2id is a Hasher producing PHC-format Argon2id strings. The pepper is
// appended to every secret before hashing and never stored with the hash.
type Argon2id struct {
	Pepper string
}

// NewArgon2id returns a hasher using the given pepper.
func NewArgon2id(pepper string) *Argon2id {
	return &Argon2id{Pepper: pepper}
}

// Hash generates a PHC-format Argon2id hash string including salt and parameters.
func (a *Argon2id) Hash(secret string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey(
		[]byte(secret+a.Pepper),
		salt,
		iterations,
		memory,
		parallelism,
		keyLength,
	)
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		iterations,
		parallelism,
		b64Salt,
		b64Hash,
	), nil
}

// Verify compares a plaintext secret against a PHC-style Argon2id hash.
// Returns ErrMismatch when the hash is well formed but the secret differs.
func (a *Argon2id) Verify(secret, encodedHash string) error {
	// Expect ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return errors.New("invalid hash format: expected 6 parts")
	}
	if parts[1] != "argon2id" {
		return errors.New("invalid hash format: not argon2id")
	}
	if parts[2] != "v=19" {
		return errors.New("invalid hash format: wrong version")
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("invalid hash format: failed to parse parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("invalid hash format: failed to decode salt: %w", err)
	}
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("invalid hash format: failed to decode hash: %w", err)
	}

	computed := argon2.IDKey(
		[]byte(secret+a.Pepper),
		salt,
		iters,
		mem,
		par,
		uint32(len(expectedHash)), // #nosec G115 - bounded by the decoded hash
	)

	if subtle.ConstantTimeCompare(computed, expectedHash) == 1 {
		return nil
	}
	return ErrMismatch
}

const secretCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// SecretLength is the length of secrets produced by GenerateSecret.
const SecretLength = 24

// GenerateSecret returns a random alphanumeric secret of SecretLength
// characters (~142 bits). It is safe to embed in URLs without escaping.
func GenerateSecret() (string, error) {
	secret := make([]byte, SecretLength)
	limit := big.NewInt(int64(len(secretCharset)))
	for i := range secret {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate random secret: %w", err)
		}
		secret[i] = secretCharset[n.Int64()]
	}
	return string(secret), nil
}

package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadOrCreatePepper loads the pepper from file, generating and persisting a
// new one when the file does not exist yet. Losing the pepper invalidates
// every stored credential hash, so the file must live on durable storage.
func LoadOrCreatePepper(file string) (string, error) {
	file = filepath.Clean(file)
	if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
		return "", fmt.Errorf("create pepper directory: %w", err)
	}

	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		pepper := strings.TrimSpace(string(data))
		if pepper == "" {
			return "", fmt.Errorf("pepper file %s is empty", file)
		}
		return pepper, nil
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("read pepper: %w", err)
	}

	pepperBytes := make([]byte, keyLength)
	if _, err := rand.Read(pepperBytes); err != nil {
		return "", err
	}
	pepper := base64.RawURLEncoding.EncodeToString(pepperBytes)

	if err := os.WriteFile(file, []byte(pepper), 0600); err != nil {
		return "", fmt.Errorf("write pepper: %w", err)
	}
	return pepper, nil
}

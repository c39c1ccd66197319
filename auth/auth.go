// Package auth checks API keys for privileged endpoints.
package auth

import (
	"bufio"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrUnauthorized is returned for a missing, unknown or disabled key.
var ErrUnauthorized = errors.New("auth: unauthorized")

// Authenticator validates an API key.
type Authenticator interface {
	Authenticate(ctx context.Context, key string) error
}

// HashKey returns the hex-encoded SHA-256 of key. Keys are stored and
// compared only in this form.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// StaticKeys accepts a fixed set of keys.
type StaticKeys struct {
	hashes [][sha256.Size]byte
}

// NewStaticKeys creates an authenticator for keys. Empty keys are ignored.
func NewStaticKeys(keys ...string) *StaticKeys {
	s := &StaticKeys{}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			s.hashes = append(s.hashes, sha256.Sum256([]byte(k)))
		}
	}
	return s
}

// Len returns the number of keys.
func (s *StaticKeys) Len() int { return len(s.hashes) }

// Authenticate implements Authenticator.
func (s *StaticKeys) Authenticate(_ context.Context, key string) error {
	if key == "" {
		return ErrUnauthorized
	}
	h := sha256.Sum256([]byte(key))
	found := 0
	for i := range s.hashes {
		found |= subtle.ConstantTimeCompare(h[:], s.hashes[i][:])
	}
	if found == 0 {
		return ErrUnauthorized
	}
	return nil
}

// LoadKeysFile reads one key per line. Blank lines and lines starting
// with # are skipped.
func LoadKeysFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("auth: open keys file: %w", err)
	}
	defer f.Close()

	var keys []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("auth: read keys file: %w", err)
	}
	return keys, nil
}

// Deny rejects every key. It guards privileged endpoints when no keys are
// configured.
type Deny struct{}

// Authenticate implements Authenticator.
func (Deny) Authenticate(context.Context, string) error { return ErrUnauthorized }

package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	// Used for group invite tokens.
	TokenSize256 = 32
	// TokenSize512 provides 512 bits of entropy (86 chars base64url).
	// Used for refresh session tokens.
	TokenSize512 = 64
)

// GenerateToken creates a cryptographically secure random token of the
// specified byte length, encoded base64url without padding. The caller sees
// the raw value exactly once; only its digest is ever persisted.
//
// crypto/rand.Reader is safe for concurrent use, so a single process-wide
// source serves all in-flight requests.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateCode creates a random human-typable code of length n drawn from
// alphabet. Selection uses rejection sampling so every character is equally
// likely regardless of alphabet size.
func GenerateCode(alphabet string, n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("code length must be positive, got %d", n)
	}
	if len(alphabet) < 2 || len(alphabet) > 256 {
		return "", fmt.Errorf("alphabet must have 2..256 characters, got %d", len(alphabet))
	}

	// Largest multiple of len(alphabet) that fits in a byte.
	max := byte(256 - (256 % len(alphabet)))

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate random code: %w", err)
		}
		for _, b := range buf {
			if max != 0 && b >= max {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// HashToken returns the deterministic SHA-256 digest of a token as 64
// lower-case hex characters. This is the sole stored representation of
// invite tokens and refresh sessions, allowing lookup without ever keeping
// the original value.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

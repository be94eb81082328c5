package envelope

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const (
	keyAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	keyLength    = 32
	keyGroupSize = 8
)

// GenerateKey returns a new secret key formatted as four dash-separated groups of eight.
func GenerateKey() (string, error) {
	var b strings.Builder
	b.Grow(keyLength + keyLength/keyGroupSize - 1)

	max := big.NewInt(int64(len(keyAlphabet)))
	for i := 0; i < keyLength; i++ {
		if i > 0 && i%keyGroupSize == 0 {
			b.WriteByte('-')
		}
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate secret key: %w", err)
		}
		b.WriteByte(keyAlphabet[n.Int64()])
	}

	return b.String(), nil
}

// NormalizeKey strips separators and whitespace and upper-cases the key.
func NormalizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '-' || r == ' ' || r == '\t' || r == '\n' || r == '\r':
			return -1
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		default:
			return r
		}
	}, key)
}

// ValidKey reports whether key has the shape of a generated key.
func ValidKey(key string) bool {
	n := NormalizeKey(key)
	if len(n) != keyLength {
		return false
	}
	for i := 0; i < len(n); i++ {
		if strings.IndexByte(keyAlphabet, n[i]) < 0 {
			return false
		}
	}
	return true
}

// Fingerprint identifies a key without revealing it.
func Fingerprint(key string) string {
	sum := sha256.Sum256([]byte(NormalizeKey(key)))
	return hex.EncodeToString(sum[:])
}

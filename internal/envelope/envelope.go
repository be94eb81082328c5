// Package envelope seals message content under a human-readable secret key.
//
// An envelope is laid out as
//
//	version(1) | time(4) | memKiB(4) | threads(1) | salt(16) | nonce(12) | ciphertext+tag
//
// The AES-256-GCM key is derived from the normalized secret key with argon2id
// and the per-envelope salt. The header is authenticated as associated data.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	version   byte = 1
	saltSize       = 16
	nonceSize      = 12
	keySize        = 32
	headerLen      = 1 + 4 + 4 + 1 + saltSize + nonceSize

	maxTime   = 16
	maxMemKiB = 1 << 20
)

// ErrDecrypt is returned for any envelope that cannot be opened with the given key.
var ErrDecrypt = errors.New("failed to decrypt envelope")

// Params are the argon2id cost parameters for new envelopes.
type Params struct {
	Time    uint32
	MemKiB  uint32
	Threads uint8
}

// DefaultParams mirror the argon2 settings used for master key derivation.
var DefaultParams = Params{Time: 1, MemKiB: 64 * 1024, Threads: 4}

// Envelope seals and opens content.
type Envelope struct {
	params Params
}

// New creates an Envelope. Zero fields fall back to DefaultParams.
func New(params Params) *Envelope {
	if params.Time == 0 {
		params.Time = DefaultParams.Time
	}
	if params.MemKiB == 0 {
		params.MemKiB = DefaultParams.MemKiB
	}
	if params.Threads == 0 {
		params.Threads = DefaultParams.Threads
	}
	return &Envelope{params: params}
}

// Seal encrypts plaintext under key. Each call uses a fresh salt and nonce.
func (e *Envelope) Seal(plaintext []byte, key string) ([]byte, error) {
	out := make([]byte, headerLen, headerLen+len(plaintext)+16)
	out[0] = version
	binary.BigEndian.PutUint32(out[1:5], e.params.Time)
	binary.BigEndian.PutUint32(out[5:9], e.params.MemKiB)
	out[9] = e.params.Threads

	if _, err := rand.Read(out[10:headerLen]); err != nil {
		return nil, fmt.Errorf("failed to generate salt and nonce: %w", err)
	}

	header := append([]byte(nil), out...)
	salt := header[10 : 10+saltSize]
	nonce := header[10+saltSize:]

	gcm, err := newGCM(deriveKey(key, salt, e.params))
	if err != nil {
		return nil, err
	}

	return gcm.Seal(out, nonce, plaintext, header), nil
}

// Open decrypts an envelope produced by Seal. Any failure yields ErrDecrypt.
func (e *Envelope) Open(ciphertext []byte, key string) ([]byte, error) {
	if len(ciphertext) < headerLen+16 || ciphertext[0] != version {
		return nil, ErrDecrypt
	}

	params := Params{
		Time:    binary.BigEndian.Uint32(ciphertext[1:5]),
		MemKiB:  binary.BigEndian.Uint32(ciphertext[5:9]),
		Threads: ciphertext[9],
	}
	if params.Time == 0 || params.Time > maxTime || params.MemKiB == 0 || params.MemKiB > maxMemKiB || params.Threads == 0 {
		return nil, ErrDecrypt
	}

	salt := ciphertext[10 : 10+saltSize]
	nonce := ciphertext[10+saltSize : headerLen]

	gcm, err := newGCM(deriveKey(key, salt, params))
	if err != nil {
		return nil, ErrDecrypt
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext[headerLen:], ciphertext[:headerLen])
	if err != nil {
		return nil, ErrDecrypt
	}

	return plaintext, nil
}

func deriveKey(key string, salt []byte, params Params) []byte {
	return argon2.IDKey([]byte(NormalizeKey(key)), salt, params.Time, params.MemKiB, params.Threads, keySize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return gcm, nil
}

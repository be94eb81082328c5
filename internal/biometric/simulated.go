// Package biometric provides the policy deciding biometric checks.
package biometric

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/model"
)

// DefaultPassRate is the share of simulated checks that pass.
const DefaultPassRate = 0.7

var _ model.BiometricVerifier = (*Simulated)(nil)

// Simulated passes a check with a fixed probability. No biometric data is read.
type Simulated struct {
	passRate float64
	draw     func() (float64, error)
}

// NewSimulated creates a Simulated verifier. passRate is clamped to [0, 1].
func NewSimulated(passRate float64) *Simulated {
	switch {
	case passRate < 0:
		passRate = 0
	case passRate > 1:
		passRate = 1
	}
	return &Simulated{passRate: passRate, draw: uniform}
}

// Verify draws a uniform number and passes when it falls under the pass rate.
func (s *Simulated) Verify(ctx context.Context, _ uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	x, err := s.draw()
	if err != nil {
		return false, fmt.Errorf("failed to draw biometric sample: %w", err)
	}

	return x < s.passRate, nil
}

// uniform returns a float in [0, 1) with 53 bits of randomness.
func uniform() (float64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53), nil
}

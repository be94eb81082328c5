package biometric

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulated_Verify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		passRate float64
		sample   float64
		want     bool
	}{
		{name: "under rate passes", passRate: 0.7, sample: 0.69, want: true},
		{name: "at rate fails", passRate: 0.7, sample: 0.7, want: false},
		{name: "always fail", passRate: 0, sample: 0, want: false},
		{name: "always pass", passRate: 1, sample: 0.999999, want: true},
		{name: "rate clamped high", passRate: 5, sample: 0.999, want: true},
		{name: "rate clamped low", passRate: -1, sample: 0, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewSimulated(tt.passRate)
			s.draw = func() (float64, error) { return tt.sample, nil }

			ok, err := s.Verify(context.Background(), uuid.New())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestSimulated_VerifyDrawError(t *testing.T) {
	t.Parallel()

	s := NewSimulated(DefaultPassRate)
	s.draw = func() (float64, error) { return 0, errors.New("no entropy") }

	_, err := s.Verify(context.Background(), uuid.New())
	require.Error(t, err)
}

func TestSimulated_VerifyCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSimulated(1).Verify(ctx, uuid.New())
	require.ErrorIs(t, err, context.Canceled)
}

func TestUniform_Range(t *testing.T) {
	t.Parallel()

	for i := 0; i < 1000; i++ {
		x, err := uniform()
		require.NoError(t, err)
		require.GreaterOrEqual(t, x, 0.0)
		require.Less(t, x, 1.0)
	}
}

package envelope

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyPattern = regexp.MustCompile(`^[A-Z0-9]{8}-[A-Z0-9]{8}-[A-Z0-9]{8}-[A-Z0-9]{8}$`)

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		key, err := GenerateKey()
		require.NoError(t, err)
		assert.Regexp(t, keyPattern, key)
		assert.True(t, ValidKey(key))

		_, dup := seen[key]
		assert.False(t, dup)
		seen[key] = struct{}{}
	}
}

func TestNormalizeKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "ABCD-efgh", want: "ABCDEFGH"},
		{in: "  ab cd\n", want: "ABCD"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeKey(tt.in))
	}
}

func TestValidKey(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidKey("abcdefgh12345678ABCDEFGH12345678"))
	assert.False(t, ValidKey("ABCDEFGH-12345678"))
	assert.False(t, ValidKey("ABCDEFGH-12345678-ABCDEFGH-1234567!"))
	assert.False(t, ValidKey(""))
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	fp := Fingerprint("abcd-1234")
	assert.Len(t, fp, 64)
	assert.Equal(t, fp, Fingerprint("ABCD1234"))
	assert.NotEqual(t, fp, Fingerprint("ABCD1235"))
}

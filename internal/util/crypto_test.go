package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Run("generates 64 character hex string", func(t *testing.T) {
		token, err := GenerateToken()
		require.NoError(t, err)
		assert.Len(t, token, 64)
	})

	t.Run("generates unique tokens", func(t *testing.T) {
		token1, _ := GenerateToken()
		token2, _ := GenerateToken()
		assert.NotEqual(t, token1, token2)
	})

	t.Run("generates valid hex", func(t *testing.T) {
		token, _ := GenerateToken()
		for _, c := range token {
			assert.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'))
		}
	})
}

func TestHashToken(t *testing.T) {
	t.Run("returns 64 character hex string", func(t *testing.T) {
		assert.Len(t, HashToken("test-token"), 64)
	})

	t.Run("same input produces same hash", func(t *testing.T) {
		assert.Equal(t, HashToken("test-token"), HashToken("test-token"))
	})

	t.Run("different input produces different hash", func(t *testing.T) {
		assert.NotEqual(t, HashToken("token-1"), HashToken("token-2"))
	})
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("eyJhbGciOiJIUzI1NiJ9.payload.sig")
	assert.Len(t, fp, 12)
	assert.NotContains(t, "eyJhbGciOiJIUzI1NiJ9.payload.sig", fp)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong horse", hash))
	assert.False(t, CheckPasswordHash("correct horse", "not-a-hash"))
}

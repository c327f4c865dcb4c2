package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewHasher(t *testing.T) {
	assert.Equal(t, bcrypt.MinCost, NewHasher(bcrypt.MinCost).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(bcrypt.MaxCost+1).cost)
}

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	digest, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, "secret1", digest)
	assert.True(t, strings.HasPrefix(digest, "$2a$"))
	assert.True(t, h.Verify("secret1", digest))
	assert.False(t, h.Verify("secret2", digest))
	assert.False(t, h.Verify("", digest))
}

func TestHasher_HashIsSalted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("secret1")
	require.NoError(t, err)
	second, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("secret1", second))
}

func TestHasher_HashEmpty(t *testing.T) {
	_, err := NewHasher(bcrypt.MinCost).Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestHasher_VerifyMalformedDigest(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	assert.False(t, h.Verify("secret1", "not-a-bcrypt-hash"))
	assert.False(t, h.Verify("secret1", ""))
}

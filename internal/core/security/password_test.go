package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trackerpro/tracker-auth/internal/core/domain"
	"github.com/trackerpro/tracker-auth/internal/core/security"
)

func TestBcryptHasher_Hash(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost)

	t.Run("never returns the plaintext", func(t *testing.T) {
		digest, err := hasher.Hash("secret1")
		require.NoError(t, err)
		assert.NotEqual(t, "secret1", digest)
		assert.True(t, strings.HasPrefix(digest, "$2a$"))
	})

	t.Run("same password produces different digests", func(t *testing.T) {
		d1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		d2, err := hasher.Hash("samepassword")
		require.NoError(t, err)

		assert.NotEqual(t, d1, d2)
		assert.True(t, hasher.Verify("samepassword", d1))
		assert.True(t, hasher.Verify("samepassword", d2))
	})

	t.Run("rejects passwords longer than 72 bytes", func(t *testing.T) {
		_, err := hasher.Hash(strings.Repeat("p", 80))
		assert.ErrorIs(t, err, domain.ErrFieldValidation)

		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, []string{"password must be at most 72 bytes"}, ve.Fields)

		_, err = hasher.Hash(strings.Repeat("p", security.MaxPasswordBytes))
		assert.NoError(t, err)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		assert.ErrorIs(t, err, security.ErrEmptyPassword)
	})
}

func TestBcryptHasher_Verify(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	digest, err := hasher.Hash("correctpassword")
	require.NoError(t, err)

	assert.True(t, hasher.Verify("correctpassword", digest))
	assert.False(t, hasher.Verify("wrongpassword", digest))
	assert.False(t, hasher.Verify("correctpassword", "not-a-valid-hash"))
	assert.False(t, hasher.Verify("correctpassword", ""))
}

func TestBcryptHasher_VerifiesDigestsFromOtherCosts(t *testing.T) {
	old, err := security.NewBcryptHasher(bcrypt.MinCost).Hash("secret1")
	require.NoError(t, err)

	upgraded := security.NewBcryptHasher(bcrypt.MinCost + 1)
	assert.True(t, upgraded.Verify("secret1", old))
	assert.True(t, upgraded.NeedsRehash(old))
	assert.True(t, upgraded.NeedsRehash("garbage"))
}

func TestNewBcryptHasher_FallsBackToDefaultCost(t *testing.T) {
	hasher := security.NewBcryptHasher(0)
	digest, err := hasher.Hash("secret1")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
	assert.False(t, hasher.NeedsRehash(digest))
}

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPassword("correct horse battery staple", hash))
	assert.False(t, CheckPassword("wrong", hash))
	assert.False(t, CheckPassword("", hash))
}

func TestBootstrapAdminMatch(t *testing.T) {
	b := BootstrapAdmin{Email: "admin@storefront.local", Password: "bootstrap-pw"}

	assert.True(t, b.Match("admin@storefront.local", "bootstrap-pw"))
	assert.False(t, b.Match("admin@storefront.local", "wrong"))
	assert.False(t, b.Match("other@storefront.local", "bootstrap-pw"))
}

func TestBootstrapAdminDisabledWithoutPassword(t *testing.T) {
	b := BootstrapAdmin{Email: "admin@storefront.local"}

	// An empty configured password must never match, even if submitted empty.
	assert.False(t, b.Match("admin@storefront.local", ""))
}

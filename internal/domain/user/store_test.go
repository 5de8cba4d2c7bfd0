package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astro-web3/credential-gateway/internal/domain/user"
)

func TestMemoryStore_Lookup(t *testing.T) {
	store := user.NewMemoryStore(user.SampleUsers()...)

	u, err := store.GetBySubject(context.Background(), "1002")
	require.NoError(t, err)
	assert.Equal(t, "jane", u.LoginID)

	_, err = store.GetBySubject(context.Background(), "9999")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestMemoryStore_ClaimsOf(t *testing.T) {
	store := user.NewMemoryStore(user.SampleUsers()...)

	claims, ok := store.ClaimsOf("1003")
	require.True(t, ok)
	assert.Equal(t, "Max Meier", claims[user.ClaimName])
	assert.Equal(t, map[string]any{"country": "Germany", "locality": "Berlin", "postal_code": "10115"}, claims[user.ClaimAddress])
	assert.NotContains(t, claims, "password")

	_, ok = store.ClaimsOf("unknown")
	assert.False(t, ok)
}

func TestUser_ClaimSkipsEmptyValues(t *testing.T) {
	u := &user.User{Subject: "1", Name: "Only Name"}

	_, ok := u.Claim(user.ClaimEmail)
	assert.False(t, ok)
	_, ok = u.Claim(user.ClaimAddress)
	assert.False(t, ok)
	_, ok = u.Claim("nickname")
	assert.False(t, ok)

	assert.Equal(t, map[string]any{"name": "Only Name"}, u.Claims())
}

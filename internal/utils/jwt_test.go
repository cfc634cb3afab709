package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackforge/platform/internal/domain"
)

const testSecret = "test-secret-key-that-is-at-least-32-characters-long"

func TestSessionTokenRoundTrip(t *testing.T) {
	m := NewSessionTokenManager(testSecret, 30*24*time.Hour)

	token, err := m.Generate("user-1", domain.RoleTeacher)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, domain.RoleTeacher, claims.Role)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt, time.Minute)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), claims.ExpiresAt, time.Minute)
}

func TestSessionTokenExpired(t *testing.T) {
	m := NewSessionTokenManager(testSecret, -time.Minute)

	token, err := m.Generate("user-1", domain.RoleStudent)
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSessionTokenMalformed(t *testing.T) {
	m := NewSessionTokenManager(testSecret, time.Hour)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := m.Validate(token)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", token)
	}
}

func TestSessionTokenWrongSignature(t *testing.T) {
	m := NewSessionTokenManager(testSecret, time.Hour)
	other := NewSessionTokenManager("another-secret-key-that-is-32-characters!!", time.Hour)

	token, err := other.Generate("user-1", domain.RoleAdmin)
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSessionTokenUnknownRole(t *testing.T) {
	m := NewSessionTokenManager(testSecret, time.Hour)

	token, err := m.Generate("user-1", domain.Role("SUPERUSER"))
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret", 10)
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("Sup3rSecret", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestValidatePassword(t *testing.T) {
	assert.True(t, ValidatePassword("Abcdefg1"))
	assert.False(t, ValidatePassword("short1A"))
	assert.False(t, ValidatePassword("alllowercase1"))
	assert.False(t, ValidatePassword("ALLUPPERCASE1"))
	assert.False(t, ValidatePassword("NoNumbersHere"))
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", SanitizeEmail("  User@Example.COM "))
}

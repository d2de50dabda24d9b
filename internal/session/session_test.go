package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserSessionKey(t *testing.T) {
	id := uuid.New()
	key := userSessionKey(id)
	assert.Contains(t, key, "user:session:")
	assert.Equal(t, userSessionKey(id), key)
}

func TestSignInKey(t *testing.T) {
	id := uuid.New()
	assert.Contains(t, SignInKey(id), "user:sign_in:")
}

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordValidator(t *testing.T) {
	p := Password{Cost: bcrypt.MinCost}
	h, err := p.Validate("secret")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, []byte("secret")))
	assert.False(t, VerifyPassword(h, []byte("wrong")))

	// An already hashed password is kept as is.
	h2, err := p.Validate([]byte(h.(string)))
	require.NoError(t, err)
	assert.Equal(t, h, h2)

	_, err = Password{MinLen: 10}.Validate("short")
	assert.EqualError(t, err, "is shorter than 10")
	_, err = Password{MaxLen: 2}.Validate("toolong")
	assert.EqualError(t, err, "is longer than 2")
	_, err = p.Validate(123)
	assert.EqualError(t, err, "not a string")
	assert.False(t, VerifyPassword(123, []byte("secret")))
}

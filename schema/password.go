package schema

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Password crypts a field password using bcrypt algorithm.
type Password struct {
	// MinLen defines the minimum password length (default 0).
	MinLen int
	// MaxLen defines the maximum password length (default no limit).
	MaxLen int
	// Cost sets a custom bcrypt hashing cost.
	Cost int
}

// PasswordField is a common schema field for passwords. It encrypts the
// password using bcrypt before storage and hides the value so the hash can't
// be read back.
var PasswordField = Field{
	Description: "Write-only field storing a secret password.",
	Required:    true,
	Hidden:      true,
	Validator:   &Password{},
}

// Validate implements FieldValidator interface.
func (v Password) Validate(value interface{}) (interface{}, error) {
	s, ok := value.(string)
	if !ok {
		if b, ok := value.([]byte); ok {
			// Maybe it's an already encoded version of the password.
			if _, err := bcrypt.Cost(b); err == nil {
				return string(b), nil
			}
		}
		return nil, errors.New("not a string")
	}
	l := len(s)
	if l < v.MinLen {
		return nil, fmt.Errorf("is shorter than %d", v.MinLen)
	}
	if v.MaxLen > 0 && l > v.MaxLen {
		return nil, fmt.Errorf("is longer than %d", v.MaxLen)
	}
	cost := v.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(s), cost)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// VerifyPassword compares a stored bcrypt hash with a clear text password and
// returns true if they match.
func VerifyPassword(hash interface{}, password []byte) bool {
	var h []byte
	switch v := hash.(type) {
	case string:
		h = []byte(v)
	case []byte:
		h = v
	default:
		return false
	}
	return bcrypt.CompareHashAndPassword(h, password) == nil
}
